package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mentora/core/vip"
)

type vipApi struct {
	svc      *vip.Service
	validate *validator.Validate
}

func registerVipAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := vipApi{
		svc:      deps.VipSvc,
		validate: deps.Validate,
	}

	vg := g.Group("/vips", jwt, adminMiddleware())
	vg.GET("", api.query)
	vg.POST("", api.create)
	vg.DELETE("/:id", api.destroy)
}

// Handlers

func (api *vipApi) query(ctx echo.Context) error {
	vips, err := api.svc.List(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing vips")
	}
	return ctx.JSON(http.StatusOK, vips)
}

func (api *vipApi) create(ctx echo.Context) error {
	var data vip.NewVip
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewVip")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	prov, err := api.svc.Provision(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "provisioning vip")
	}
	return ctx.JSON(http.StatusCreated, prov)
}

func (api *vipApi) destroy(ctx echo.Context) error {
	if err := api.svc.Remove(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "removing vip")
	}
	return ctx.NoContent(http.StatusNoContent)
}
