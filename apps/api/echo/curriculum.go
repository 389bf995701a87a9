package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mentora/core/curriculum"
)

type curriculumApi struct {
	svc      *curriculum.Service
	validate *validator.Validate
}

func registerCurriculumAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := curriculumApi{
		svc:      deps.CurriculumSvc,
		validate: deps.Validate,
	}

	cg := g.Group("/curriculum", jwt)
	cg.GET("/outline", api.outline)

	ag := cg.Group("", adminMiddleware())
	ag.GET("", api.retrieve)
	ag.POST("/modules", api.createModule)
	ag.PUT("/modules/:moduleId", api.updateModule)
	ag.DELETE("/modules/:moduleId", api.destroyModule)
	ag.POST("/modules/:moduleId/lessons", api.createLesson)
	ag.PUT("/modules/:moduleId/lessons/:lessonId", api.updateLesson)
	ag.DELETE("/modules/:moduleId/lessons/:lessonId", api.destroyLesson)
}

// Handlers

func (api *curriculumApi) retrieve(ctx echo.Context) error {
	c, err := api.svc.GetCurriculum(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "getting curriculum")
	}
	if c == nil {
		c = curriculum.Curriculum{}
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *curriculumApi) outline(ctx echo.Context) error {
	outline, err := api.svc.Outline(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "getting curriculum outline")
	}
	return ctx.JSON(http.StatusOK, outline)
}

func (api *curriculumApi) createModule(ctx echo.Context) error {
	var data curriculum.NewModule
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewModule")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	mod, err := api.svc.CreateModule(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating module")
	}
	return ctx.JSON(http.StatusCreated, mod)
}

func (api *curriculumApi) updateModule(ctx echo.Context) error {
	var data curriculum.UpdateModule
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateModule")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	mod, err := api.svc.UpdateModule(ctx.Request().Context(), ctx.Param("moduleId"), data)
	if err != nil {
		return errors.Wrap(err, "updating module")
	}
	return ctx.JSON(http.StatusOK, mod)
}

func (api *curriculumApi) destroyModule(ctx echo.Context) error {
	if err := api.svc.DeleteModule(ctx.Request().Context(), ctx.Param("moduleId")); err != nil {
		return errors.Wrap(err, "deleting module")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *curriculumApi) createLesson(ctx echo.Context) error {
	var data curriculum.NewLesson
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLesson")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	l, err := api.svc.CreateLesson(ctx.Request().Context(), ctx.Param("moduleId"), data)
	if err != nil {
		return errors.Wrap(err, "creating lesson")
	}
	return ctx.JSON(http.StatusCreated, l)
}

func (api *curriculumApi) updateLesson(ctx echo.Context) error {
	var data curriculum.UpdateLesson
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateLesson")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	l, err := api.svc.UpdateLesson(ctx.Request().Context(), ctx.Param("moduleId"), ctx.Param("lessonId"), data)
	if err != nil {
		return errors.Wrap(err, "updating lesson")
	}
	return ctx.JSON(http.StatusOK, l)
}

func (api *curriculumApi) destroyLesson(ctx echo.Context) error {
	err := api.svc.DeleteLesson(ctx.Request().Context(), ctx.Param("moduleId"), ctx.Param("lessonId"))
	if err != nil {
		return errors.Wrap(err, "deleting lesson")
	}
	return ctx.NoContent(http.StatusNoContent)
}
