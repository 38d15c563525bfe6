package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tfgestor/backend/core/thesis"
)

type thesisApi struct {
	service *thesis.Service
}

func RegisterThesisAPI(g *echo.Group, svc *thesis.Service) {
	api := thesisApi{service: svc}

	tg := g.Group("/theses")
	tg.POST("", api.thesisCreate)
	tg.GET("/:id", api.thesisRetrieve)
	tg.POST("/:id/state", api.thesisChangeState)
}

// Handlers

func (api *thesisApi) thesisCreate(ctx echo.Context) error {
	data := new(thesis.NewThesis)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := data.Validate(); err != nil {
		return err
	}

	th, err := api.service.Create(ctx.Request().Context(), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, th)
}

func (api *thesisApi) thesisRetrieve(ctx echo.Context) error {
	th, err := api.service.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, th)
}

func (api *thesisApi) thesisChangeState(ctx echo.Context) error {
	data := new(thesis.StateChange)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := data.Validate(); err != nil {
		return err
	}

	th, err := api.service.ChangeState(ctx.Request().Context(), ctx.Param("id"), data.Target)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, th)
}
