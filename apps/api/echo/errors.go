package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/carline/core"
	"github.com/trezcool/carline/core/access"
	"github.com/trezcool/carline/core/queue"
)

// Error codes
const (
	codeValidation      = "VALIDATION_ERROR"
	codeNotFound        = "NOT_FOUND"
	codeUnauthenticated = "UNAUTHENTICATED"
	codeForbidden       = "FORBIDDEN"
	codeInternal        = "INTERNAL_ERROR"
)

var validationCodes = map[error]string{
	queue.ErrInvalidCampus:    "INVALID_CAMPUS",
	queue.ErrInactiveCampus:   "CAMPUS_INACTIVE",
	queue.ErrInvalidCarNumber: "INVALID_CAR_NUMBER",
	queue.ErrInvalidLane:      "INVALID_LANE",
	queue.ErrAlreadyQueued:    "CAR_ALREADY_QUEUED",
	queue.ErrNoStudents:       "NO_STUDENTS_FOUND",
	queue.ErrNotWaiting:       "ENTRY_NOT_WAITING",
	queue.ErrSameLane:         "LANE_UNCHANGED",
}

var httpCodes = map[int]string{
	http.StatusBadRequest:   codeValidation,
	http.StatusUnauthorized: codeUnauthenticated,
	http.StatusForbidden:    codeForbidden,
	http.StatusNotFound:     codeNotFound,
}

type errorBody struct {
	Code    string            `json:"code"`
	Message interface{}       `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func validationCode(err error) string {
	if code, ok := validationCodes[errors.Cause(err)]; ok {
		return code
	}
	return codeValidation
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var status int
		body := errorBody{Message: err.Error()}

		if errors.Is(err, access.ErrUnauthenticated) {
			err = errUnauthorized
		}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				status = http.StatusUnauthorized
				body.Message = origErr.Message
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			status = origErr.Code
			body.Message = origErr.Message
		case validator.ValidationErrors:
			body.Fields = make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				body.Fields[vErr.Field()] = vErr.Translate(core.Translator)
			}
			status = http.StatusBadRequest
			body.Code = codeValidation
			body.Message = "invalid request"
		case *core.ValidationError:
			if len(origErr.Fields) > 0 {
				body.Fields = make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					body.Fields[fErr.Field] = fErr.Error
				}
			}
			status = http.StatusBadRequest
			body.Code = validationCode(origErr.Err)
			body.Message = origErr.Error()
		case *core.NotFoundError:
			status = http.StatusNotFound
			body.Code = codeNotFound
			body.Message = origErr.Error()
		case *access.DeniedError:
			status = http.StatusForbidden
			body.Code = codeForbidden
			body.Message = origErr.Error()
		default: // any other error is a server error
			status = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			body.Code = codeInternal
			body.Message = msg

			logger.Error(msg, errors.Wrap(err, msg), getContextPrincipal(ctx))

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if body.Code == "" {
			if body.Code = httpCodes[status]; body.Code == "" {
				body.Code = codeInternal
			}
		}
		if ctx.Echo().Debug {
			body.Message = err.Error()
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(status)
			} else {
				err = ctx.JSON(status, body)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
