package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/logbook/logbook-service/internal/api/handler"
)

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that renders errors
// escaping the handlers (unknown routes, panics caught by Recover, timeouts)
// in the same envelope the dispatcher uses. Unexpected errors are logged
// without leaking details to the client.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg, _ := handler.ResolveError(err)
		if code >= http.StatusInternalServerError {
			log.Error().
				Err(err).
				Str("method", c.Request().Method).
				Str("path", c.Path()).
				Msg("unhandled error")
		}

		_ = c.JSON(code, handler.Envelope{Success: false, Message: msg})
	}
}
