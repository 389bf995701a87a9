package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/mentora/core"
	"github.com/trezcool/mentora/core/progress"
	"github.com/trezcool/mentora/core/user"
)

type progressApi struct {
	engine  *progress.Engine
	userSvc *user.Service
}

func registerProgressAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := progressApi{
		engine:  deps.Engine,
		userSvc: deps.UserSvc,
	}

	learner := learnerMiddleware(api.userSvc)
	unlockJWT := middleware.JWTWithConfig(newUnlockJWTConfig(deps.Conf))

	pg := g.Group("/progress")
	pg.GET("/me", api.me, jwt, learner)
	pg.POST("/unlock", api.unlock, unlockJWT, learner)
}

// newUnlockJWTConfig answers auth failures of the unlock operation with its own error envelope.
func newUnlockJWTConfig(conf *core.Config) middleware.JWTConfig {
	jwtConf := newJWTConfig(conf)
	jwtConf.ErrorHandlerWithContext = func(err error, _ echo.Context) error {
		return &progress.Error{Kind: progress.Unauthenticated, Message: "You must be signed in to unlock lessons.", Err: err}
	}
	return jwtConf
}

// UnlockResponse is the body of a successful unlock attempt.
type UnlockResponse struct {
	Success bool `json:"success"`
	progress.Outcome
}

// Handlers

func (api *progressApi) me(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	prg, err := api.engine.GetProgress(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "getting progress")
	}
	return ctx.JSON(http.StatusOK, prg)
}

func (api *progressApi) unlock(ctx echo.Context) error {
	var data progress.UnlockRequest
	if err := ctx.Bind(&data); err != nil {
		return &progress.Error{Kind: progress.InvalidArgument, Message: "The request body is invalid.", Err: err}
	}
	// the learner is always the authenticated user
	data.LearnerID = ""
	if claims, err := getContextClaims(ctx); err == nil {
		data.LearnerID = claims.Subject
	}

	outcome, err := api.engine.Unlock(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, UnlockResponse{Success: true, Outcome: outcome})
}
