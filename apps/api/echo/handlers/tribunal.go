package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tfgestor/backend/core/tribunal"
)

type tribunalApi struct {
	service *tribunal.Service
}

func RegisterTribunalAPI(g *echo.Group, svc *tribunal.Service) {
	api := tribunalApi{service: svc}

	tg := g.Group("/tribunals")
	tg.POST("", api.tribunalCreate)
	tg.GET("", api.tribunalQuery)
	tg.GET("/:id", api.tribunalRetrieve)
	tg.PUT("/:id/active", api.tribunalSetActive)
}

// Handlers

func (api *tribunalApi) tribunalCreate(ctx echo.Context) error {
	data := new(tribunal.NewTribunal)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := data.Validate(); err != nil {
		return err
	}

	trib, err := api.service.Create(ctx.Request().Context(), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, trib)
}

func (api *tribunalApi) tribunalQuery(ctx echo.Context) error {
	tribs, err := api.service.QueryAll(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, tribs)
}

func (api *tribunalApi) tribunalRetrieve(ctx echo.Context) error {
	trib, err := api.service.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, trib)
}

type setActiveRequest struct {
	IsActive bool `json:"is_active"`
}

func (api *tribunalApi) tribunalSetActive(ctx echo.Context) error {
	data := new(setActiveRequest)
	if err := ctx.Bind(data); err != nil {
		return err
	}

	trib, err := api.service.SetActive(ctx.Request().Context(), ctx.Param("id"), data.IsActive)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, trib)
}
