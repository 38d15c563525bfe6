package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tfgestor/backend/core"
	"github.com/tfgestor/backend/core/defense"
	"github.com/tfgestor/backend/core/grade"
)

var (
	errBadStartsAt = "must be a valid RFC 3339 timestamp"
	errBadDuration = "must be a positive number of minutes"
)

type defenseApi struct {
	service  *defense.Service
	gradeSvc *grade.Service
}

func RegisterDefenseAPI(g *echo.Group, svc *defense.Service, gradeSvc *grade.Service) {
	api := defenseApi{service: svc, gradeSvc: gradeSvc}

	dg := g.Group("/defenses")
	dg.POST("", api.defenseSchedule)
	dg.GET("/conflicts", api.defenseCheckConflicts)
	dg.GET("/:id", api.defenseRetrieve)
	dg.PUT("/:id", api.defenseReschedule)
	dg.POST("/:id/state", api.defenseChangeState)
	dg.DELETE("/:id", api.defenseCancel)
	dg.POST("/:id/grades", api.gradeSubmit)
	dg.GET("/:id/grades", api.gradeQuery)
}

// Handlers

func (api *defenseApi) defenseSchedule(ctx echo.Context) error {
	data := new(defense.NewDefense)
	if err := ctx.Bind(data); err != nil {
		return err
	}

	d, err := api.service.Schedule(ctx.Request().Context(), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, d)
}

func (api *defenseApi) defenseRetrieve(ctx echo.Context) error {
	d, err := api.service.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, d)
}

func (api *defenseApi) defenseReschedule(ctx echo.Context) error {
	data := new(defense.UpdateDefense)
	if err := ctx.Bind(data); err != nil {
		return err
	}

	d, err := api.service.Reschedule(ctx.Request().Context(), ctx.Param("id"), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, d)
}

func (api *defenseApi) defenseChangeState(ctx echo.Context) error {
	data := new(defense.StateChange)
	if err := ctx.Bind(data); err != nil {
		return err
	}

	d, err := api.service.ChangeState(ctx.Request().Context(), ctx.Param("id"), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, d)
}

func (api *defenseApi) defenseCancel(ctx echo.Context) error {
	if err := api.service.Cancel(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// defenseCheckConflicts is a dry-run availability probe: it reports what
// Schedule would reject for the candidate slot without booking anything.
func (api *defenseApi) defenseCheckConflicts(ctx echo.Context) error {
	startsAt, err := time.Parse(time.RFC3339, ctx.QueryParam("starts_at"))
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "starts_at", Error: errBadStartsAt})
	}
	durationMins := defense.DefaultDurationMins
	if raw := ctx.QueryParam("duration_mins"); raw != "" {
		if durationMins, err = strconv.Atoi(raw); err != nil || durationMins <= 0 {
			return core.NewValidationError(nil, core.FieldError{Field: "duration_mins", Error: errBadDuration})
		}
	}
	excludeID := ctx.QueryParam("exclude_id")

	rctx := ctx.Request().Context()
	var conflicts []core.Conflict

	if tribunalID := ctx.QueryParam("tribunal_id"); tribunalID != "" {
		if d, found, err := api.service.FindTribunalConflict(rctx, tribunalID, startsAt, durationMins, excludeID); err != nil {
			return err
		} else if found {
			conflicts = append(conflicts, core.Conflict{Resource: "tribunal", DefenseID: d.ID, StartsAt: d.StartsAt, EndsAt: d.EndsAt()})
		}
	}
	if room := ctx.QueryParam("room"); room != "" {
		if d, found, err := api.service.FindRoomConflict(rctx, room, startsAt, durationMins, excludeID); err != nil {
			return err
		} else if found {
			conflicts = append(conflicts, core.Conflict{Resource: "room", DefenseID: d.ID, StartsAt: d.StartsAt, EndsAt: d.EndsAt()})
		}
	}

	if conflicts == nil {
		conflicts = []core.Conflict{}
	}
	return ctx.JSON(http.StatusOK, echo.Map{"conflicts": conflicts})
}

func (api *defenseApi) gradeSubmit(ctx echo.Context) error {
	data := new(grade.NewGrade)
	if err := ctx.Bind(data); err != nil {
		return err
	}

	grd, err := api.gradeSvc.Submit(ctx.Request().Context(), ctx.Param("id"), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, grd)
}

func (api *defenseApi) gradeQuery(ctx echo.Context) error {
	grds, err := api.gradeSvc.QueryByDefense(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, grds)
}
