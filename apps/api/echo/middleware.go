package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mentora/core/user"
)

func adminMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsAdmin && contextHasAnyRole(ctx, roles) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// learnerMiddleware only lets active learners through; the user is loaded in the context.
func learnerMiddleware(svc *user.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if !claims.IsLearner {
				return errHttpForbidden
			}
			usr, err := getContextUser(ctx, svc, claims)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}
			if !usr.IsActive {
				return errAccountDeactivated
			}
			return next(ctx)
		}
	}
}

// learnerOrAdminMiddleware lets admins through, and learners when `param` is their own ID.
func learnerOrAdminMiddleware(param string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsAdmin || (claims.IsLearner && ctx.Param(param) == claims.Subject) {
				return next(ctx)
			}
			return errHttpNotFound
		}
	}
}
