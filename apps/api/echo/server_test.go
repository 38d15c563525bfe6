package echoapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tfgestor/backend/core"
	"github.com/tfgestor/backend/core/defense"
	"github.com/tfgestor/backend/core/grade"
	"github.com/tfgestor/backend/core/thesis"
	"github.com/tfgestor/backend/core/tribunal"
	notifsvc "github.com/tfgestor/backend/services/notification"
	dummydb "github.com/tfgestor/backend/storage/database/dummy"
)

type testLogger struct{}

func (testLogger) Enable(bool)                  {}
func (testLogger) Debug(string, ...interface{}) {}
func (testLogger) Info(string, ...interface{})  {}
func (testLogger) Warn(string, ...interface{})  {}
func (testLogger) Error(string, ...interface{}) {}
func (testLogger) Fatal(string, ...interface{}) {}

type testEnv struct {
	server   Server
	thSvc    *thesis.Service
	defSvc   *defense.Service
	thRepo   thesis.Repository
	tribRepo tribunal.Repository
	defRepo  defense.Repository
}

func setup(t *testing.T) testEnv {
	db, err := dummydb.Open()
	require.NoError(t, err)

	conf := &core.Config{TestMode: true, AppName: "TFGestor"}
	notifSvc := notifsvc.NewConsoleServiceMock(conf)

	thRepo := dummydb.NewThesisRepository(db)
	tribRepo := dummydb.NewTribunalRepository(db)
	defRepo := dummydb.NewDefenseRepository(db)
	grdRepo := dummydb.NewGradeRepository(db)

	thSvc := thesis.NewService(db, thRepo)
	tribSvc := tribunal.NewService(tribRepo)
	defSvc := defense.NewService(db, defRepo, thRepo, tribRepo, notifSvc)
	grdSvc := grade.NewService(db, grdRepo, defRepo, thRepo, tribRepo, notifSvc)

	server := NewServer(ServerDeps{
		Conf:           conf,
		Logger:         testLogger{},
		DisableReqLogs: true,
		ThesisSvc:      thSvc,
		TribunalSvc:    tribSvc,
		DefenseSvc:     defSvc,
		GradeSvc:       grdSvc,
	})

	return testEnv{
		server:   server,
		thSvc:    thSvc,
		defSvc:   defSvc,
		thRepo:   thRepo,
		tribRepo: tribRepo,
		defRepo:  defRepo,
	}
}

func (env testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buff bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buff).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buff)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)
	return rec
}

func (env testEnv) approvedThesis(t *testing.T) thesis.Thesis {
	rec := env.do(t, http.MethodPost, "/v1/theses", map[string]interface{}{
		"title":      "Streaming Joins on Skewed Data",
		"student_id": "st1",
		"tutor_id":   "tu1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var th thesis.Thesis
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &th))

	for _, target := range []string{thesis.StatusSubmitted, thesis.StatusReview, thesis.StatusApproved} {
		rec = env.do(t, http.MethodPost, "/v1/theses/"+th.ID+"/state", map[string]string{"target": target})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	th.Status = thesis.StatusApproved
	return th
}

func (env testEnv) activeTribunal(t *testing.T) tribunal.Tribunal {
	rec := env.do(t, http.MethodPost, "/v1/tribunals", map[string]string{
		"name":         "Tribunal A",
		"president_id": "p1",
		"secretary_id": "s1",
		"vocal_id":     "v1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var trib tribunal.Tribunal
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &trib))
	return trib
}

func (env testEnv) scheduleDefense(t *testing.T, th thesis.Thesis, trib tribunal.Tribunal, startsAt time.Time, room string) defense.Defense {
	rec := env.do(t, http.MethodPost, "/v1/defenses", map[string]interface{}{
		"thesis_id":   th.ID,
		"tribunal_id": trib.ID,
		"starts_at":   startsAt.Format(time.RFC3339),
		"room":        room,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var d defense.Defense
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
	return d
}

func futureSlot() time.Time {
	return time.Now().Add(72 * time.Hour).UTC().Truncate(time.Second)
}

func TestServer_home(t *testing.T) {
	env := setup(t)
	rec := env.do(t, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_thesisAPI(t *testing.T) {
	t.Run("create", func(t *testing.T) {
		env := setup(t)
		rec := env.do(t, http.MethodPost, "/v1/theses", map[string]string{
			"title":      "A Study of Bloom Filters",
			"student_id": "st1",
		})
		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("create missing title", func(t *testing.T) {
		env := setup(t)
		rec := env.do(t, http.MethodPost, "/v1/theses", map[string]string{"student_id": "st1"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "title")
	})

	t.Run("retrieve unknown", func(t *testing.T) {
		env := setup(t)
		rec := env.do(t, http.MethodGet, "/v1/theses/missing", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("illegal transition", func(t *testing.T) {
		env := setup(t)
		th := env.approvedThesis(t)
		rec := env.do(t, http.MethodPost, "/v1/theses/"+th.ID+"/state", map[string]string{"target": thesis.StatusDraft})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestServer_tribunalAPI(t *testing.T) {
	t.Run("create and list", func(t *testing.T) {
		env := setup(t)
		env.activeTribunal(t)

		rec := env.do(t, http.MethodGet, "/v1/tribunals", nil)
		assert.Equal(t, http.StatusOK, rec.Code)

		var tribs []tribunal.Tribunal
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tribs))
		assert.Len(t, tribs, 1)
	})

	t.Run("duplicate members", func(t *testing.T) {
		env := setup(t)
		rec := env.do(t, http.MethodPost, "/v1/tribunals", map[string]string{
			"name":         "Tribunal B",
			"president_id": "p1",
			"secretary_id": "p1",
			"vocal_id":     "v1",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "members")
	})

	t.Run("deactivate", func(t *testing.T) {
		env := setup(t)
		trib := env.activeTribunal(t)

		rec := env.do(t, http.MethodPut, "/v1/tribunals/"+trib.ID+"/active", map[string]bool{"is_active": false})
		require.Equal(t, http.StatusOK, rec.Code)

		var refreshed tribunal.Tribunal
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &refreshed))
		assert.False(t, refreshed.IsActive)
	})
}

func TestServer_defenseAPI(t *testing.T) {
	t.Run("schedule", func(t *testing.T) {
		env := setup(t)
		th := env.approvedThesis(t)
		trib := env.activeTribunal(t)
		d := env.scheduleDefense(t, th, trib, futureSlot(), "A-101")
		assert.Equal(t, defense.StatusScheduled, d.Status)
	})

	t.Run("schedule unapproved thesis", func(t *testing.T) {
		env := setup(t)
		trib := env.activeTribunal(t)

		rec := env.do(t, http.MethodPost, "/v1/theses", map[string]string{"title": "Draft", "student_id": "st9"})
		require.Equal(t, http.StatusCreated, rec.Code)
		var th thesis.Thesis
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &th))

		rec = env.do(t, http.MethodPost, "/v1/defenses", map[string]interface{}{
			"thesis_id":   th.ID,
			"tribunal_id": trib.ID,
			"starts_at":   futureSlot().Format(time.RFC3339),
			"room":        "A-101",
		})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("schedule conflict", func(t *testing.T) {
		env := setup(t)
		trib := env.activeTribunal(t)
		slot := futureSlot()
		env.scheduleDefense(t, env.approvedThesis(t), trib, slot, "A-101")

		th2 := env.approvedThesis(t)
		rec := env.do(t, http.MethodPost, "/v1/defenses", map[string]interface{}{
			"thesis_id":   th2.ID,
			"tribunal_id": trib.ID,
			"starts_at":   slot.Format(time.RFC3339),
			"room":        "A-101",
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, rec.Body.String(), "conflicts")
	})

	t.Run("reschedule", func(t *testing.T) {
		env := setup(t)
		d := env.scheduleDefense(t, env.approvedThesis(t), env.activeTribunal(t), futureSlot(), "A-101")

		rec := env.do(t, http.MethodPut, "/v1/defenses/"+d.ID, map[string]string{"room": "B-202"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var updated defense.Defense
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
		assert.Equal(t, "B-202", updated.Room)
	})

	t.Run("complete then grade", func(t *testing.T) {
		env := setup(t)
		d := env.scheduleDefense(t, env.approvedThesis(t), env.activeTribunal(t), futureSlot(), "A-101")

		rec := env.do(t, http.MethodPost, "/v1/defenses/"+d.ID+"/state", map[string]string{"target": defense.StatusCompleted})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec = env.do(t, http.MethodPost, "/v1/defenses/"+d.ID+"/grades", map[string]interface{}{
			"evaluator_id": "p1",
			"presentation": 8.0,
			"content":      9.0,
		})
		assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		// resubmission is rejected
		rec = env.do(t, http.MethodPost, "/v1/defenses/"+d.ID+"/grades", map[string]interface{}{
			"evaluator_id": "p1",
			"content":      7.0,
		})
		assert.Equal(t, http.StatusConflict, rec.Code)

		rec = env.do(t, http.MethodGet, "/v1/defenses/"+d.ID+"/grades", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var grds []grade.Grade
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &grds))
		assert.Len(t, grds, 1)
	})

	t.Run("grade a scheduled defense", func(t *testing.T) {
		env := setup(t)
		d := env.scheduleDefense(t, env.approvedThesis(t), env.activeTribunal(t), futureSlot(), "A-101")

		rec := env.do(t, http.MethodPost, "/v1/defenses/"+d.ID+"/grades", map[string]interface{}{
			"evaluator_id": "p1",
			"content":      8.0,
		})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("cancel", func(t *testing.T) {
		env := setup(t)
		d := env.scheduleDefense(t, env.approvedThesis(t), env.activeTribunal(t), futureSlot(), "A-101")

		rec := env.do(t, http.MethodDelete, "/v1/defenses/"+d.ID, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = env.do(t, http.MethodGet, "/v1/defenses/"+d.ID, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var cancelled defense.Defense
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cancelled))
		assert.Equal(t, defense.StatusCancelled, cancelled.Status)
	})

	t.Run("conflict probe", func(t *testing.T) {
		env := setup(t)
		trib := env.activeTribunal(t)
		slot := futureSlot()
		env.scheduleDefense(t, env.approvedThesis(t), trib, slot, "A-101")

		v := make(url.Values)
		v.Set("tribunal_id", trib.ID)
		v.Set("room", "A-101")
		v.Set("starts_at", slot.Format(time.RFC3339))
		rec := env.do(t, http.MethodGet, "/v1/defenses/conflicts?"+v.Encode(), nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp struct {
			Conflicts []core.Conflict `json:"conflicts"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Len(t, resp.Conflicts, 2)
	})

	t.Run("conflict probe free slot", func(t *testing.T) {
		env := setup(t)
		trib := env.activeTribunal(t)

		v := make(url.Values)
		v.Set("tribunal_id", trib.ID)
		v.Set("starts_at", futureSlot().Format(time.RFC3339))
		rec := env.do(t, http.MethodGet, "/v1/defenses/conflicts?"+v.Encode(), nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Conflicts []core.Conflict `json:"conflicts"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Empty(t, resp.Conflicts)
	})

	t.Run("conflict probe bad timestamp", func(t *testing.T) {
		env := setup(t)
		rec := env.do(t, http.MethodGet, "/v1/defenses/conflicts?starts_at=tomorrow", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestServer_notFoundMapping(t *testing.T) {
	env := setup(t)
	for _, path := range []string{
		"/v1/defenses/no-such-id",
		"/v1/theses/no-such-id",
		"/v1/tribunals/no-such-id",
	} {
		rec := env.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
}
