package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/alexanderramin/expeditions/internal/domain"
)

var (
	errMissingProfile = echo.NewHTTPError(http.StatusUnauthorized, "missing "+HeaderProfileID+" header")
	errNoStorage      = echo.NewHTTPError(http.StatusServiceUnavailable, "uploads are not configured")
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error           string            `json:"error"`
	Code            string            `json:"code,omitempty"`
	Fields          map[string]string `json:"fields,omitempty"`
	AlreadyResolved bool              `json:"alreadyResolved,omitempty"`
}

// newAppHTTPErrorHandler maps domain errors to status codes. Anything it does
// not recognise is logged and reported as a 500.
func newAppHTTPErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		code, body := classify(err)
		if code == http.StatusInternalServerError {
			logger.Error("request failed",
				"method", ctx.Request().Method,
				"path", ctx.Request().URL.Path,
				"profile", contextProfile(ctx),
				"error", err)
		}
		if ctx.Echo().Debug && code == http.StatusInternalServerError {
			body.Error = err.Error()
		}

		if ctx.Response().Committed {
			return
		}
		if ctx.Request().Method == http.MethodHead {
			err = ctx.NoContent(code)
		} else {
			err = ctx.JSON(code, body)
		}
		if err != nil {
			logger.Error("writing error response", "error", err)
		}
	}
}

func classify(err error) (int, errorBody) {
	var (
		httpErr   *echo.HTTPError
		valErr    *domain.ValidationError
		transErr  *domain.InvalidTransitionError
		lockedErr *domain.PinLockedError
	)
	switch {
	case errors.As(err, &httpErr):
		msg, ok := httpErr.Message.(string)
		if !ok {
			msg = http.StatusText(httpErr.Code)
		}
		return httpErr.Code, errorBody{Error: msg}
	case errors.As(err, &valErr):
		fields := make(map[string]string, len(valErr.Fields))
		for _, f := range valErr.Fields {
			fields[f.Field] = f.Error
		}
		return http.StatusBadRequest, errorBody{Error: domain.ErrValidation.Error(), Code: "validation", Fields: fields}
	case errors.As(err, &lockedErr):
		return http.StatusConflict, errorBody{Error: err.Error(), Code: "pin_locked"}
	case errors.As(err, &transErr):
		return http.StatusConflict, errorBody{Error: err.Error(), Code: "invalid_transition", AlreadyResolved: transErr.AlreadyResolved}
	case errors.Is(err, domain.ErrGraphFrozen):
		return http.StatusConflict, errorBody{Error: err.Error(), Code: "graph_frozen"}
	case errors.Is(err, domain.ErrEmptyGraph):
		return http.StatusConflict, errorBody{Error: err.Error(), Code: "empty_graph"}
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, errorBody{Error: err.Error(), Code: "not_found"}
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusForbidden, errorBody{Error: err.Error(), Code: "unauthorized"}
	default:
		return http.StatusInternalServerError, errorBody{Error: http.StatusText(http.StatusInternalServerError)}
	}
}
