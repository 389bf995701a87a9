package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/mentora/core"
	"github.com/trezcool/mentora/core/curriculum"
	"github.com/trezcool/mentora/core/progress"
	"github.com/trezcool/mentora/core/user"
)

var (
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errAuthenticationFailed = echo.NewHTTPError(http.StatusBadRequest, "authentication failed")
	errAccountDeactivated   = echo.NewHTTPError(http.StatusForbidden, "account deactivated")
	errRefreshExpired       = echo.NewHTTPError(http.StatusForbidden, "refresh has expired")
	errHttpForbidden        = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound         = echo.NewHTTPError(http.StatusNotFound, "not found")

	unlockStatuses = map[progress.Kind]int{
		progress.Unauthenticated: http.StatusUnauthorized,
		progress.InvalidArgument: http.StatusBadRequest,
		progress.NotFound:        http.StatusNotFound,
		progress.InvalidCode:     http.StatusBadRequest,
		progress.Internal:        http.StatusInternalServerError,
	}
)

// UnlockErrorResponse is the body of a failed unlock attempt.
type UnlockErrorResponse struct {
	Success   bool          `json:"success"`
	ErrorKind progress.Kind `json:"errorKind"`
	Message   string        `json:"message"`
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	logServerError := func(ctx echo.Context, msg string, err error) {
		var usr user.User
		if claims, cErr := getContextClaims(ctx); cErr == nil {
			usr.ID = claims.Subject
			usr.Username = claims.Username
			usr.Email = claims.Email
		}
		logger.Error(msg, errors.Wrap(err, msg), usr)
	}

	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		cause := errors.Cause(err)
		if isNotFound(cause) {
			cause = errHttpNotFound
		}

		switch origErr := cause.(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = origErr.Message
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(translator)
			}
			code = http.StatusBadRequest
			message = fldErrs
		case *core.ValidationError:
			if flds := origErr.FieldMap(); flds != nil {
				message = flds
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		case *progress.Error:
			code = unlockStatuses[origErr.Kind]
			if code == http.StatusInternalServerError {
				logServerError(ctx, origErr.Message, err)
			}
			sendErrorResponse(ctx, code, UnlockErrorResponse{ErrorKind: origErr.Kind, Message: origErr.Message})
			return
		default: // any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg
			logServerError(ctx, msg, err)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug && code == http.StatusInternalServerError {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}
		sendErrorResponse(ctx, code, message)
	}
}

// isNotFound reports whether `err` is one of the "not found" errors of the domain packages.
func isNotFound(err error) bool {
	switch err {
	case user.ErrNotFound, curriculum.ErrModuleNotFound, curriculum.ErrLessonNotFound, progress.ErrNotFound:
		return true
	}
	return false
}

func sendErrorResponse(ctx echo.Context, code int, body interface{}) {
	if ctx.Response().Committed {
		return
	}
	var err error
	if ctx.Request().Method == http.MethodHead { // Issue #608
		err = ctx.NoContent(code)
	} else {
		err = ctx.JSON(code, body)
	}
	if err != nil {
		ctx.Echo().Logger.Error(err)
	}
}
