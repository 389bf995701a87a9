package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mentora/core/inbox"
)

type inboxApi struct {
	svc      *inbox.Service
	validate *validator.Validate
}

func registerInboxAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := inboxApi{
		svc:      deps.InboxSvc,
		validate: deps.Validate,
	}

	ig := g.Group("/inbox/threads", jwt)
	ig.GET("", api.queryThreads, adminMiddleware())

	tg := ig.Group("/:learnerId/:lessonId", learnerOrAdminMiddleware("learnerId"))
	tg.GET("", api.retrieveThread)
	tg.POST("", api.postMessage)
}

// Handlers

func (api *inboxApi) queryThreads(ctx echo.Context) error {
	threads, err := api.svc.ListThreads(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing threads")
	}
	return ctx.JSON(http.StatusOK, threads)
}

func (api *inboxApi) retrieveThread(ctx echo.Context) error {
	msgs, err := api.svc.GetThread(ctx.Request().Context(), ctx.Param("learnerId"), ctx.Param("lessonId"))
	if err != nil {
		return errors.Wrap(err, "getting thread")
	}
	return ctx.JSON(http.StatusOK, msgs)
}

func (api *inboxApi) postMessage(ctx echo.Context) error {
	var data inbox.NewMessage
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMessage")
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	data.LearnerID = ctx.Param("learnerId")
	data.LessonID = ctx.Param("lessonId")
	data.Sender = inbox.SenderLearner
	if claims.IsAdmin {
		data.Sender = inbox.SenderAdmin
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	msg, err := api.svc.Post(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "posting message")
	}
	return ctx.JSON(http.StatusCreated, msg)
}
