package middleware

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/logbook/logbook-service/internal/core/domain"
	"github.com/logbook/logbook-service/internal/core/ports"
)

// sessionKey is the echo context key the resolved session is stored under.
const sessionKey = "session"

// Session resolves an optional bearer token into the caller's session. A
// missing or invalid token leaves the request anonymous; the dispatcher
// decides which actions need a session. Any other resolve failure is
// returned to the error handler.
func Session(tokens ports.TokenIssuer, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return next(c)
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				log.Debug().Msg("ignoring malformed authorization header")
				return next(c)
			}

			session, err := tokens.Resolve(c.Request().Context(), strings.TrimSpace(parts[1]))
			if errors.Is(err, domain.ErrUnauthenticated) {
				log.Debug().Err(err).Msg("ignoring unresolvable bearer token")
				return next(c)
			}
			if err != nil {
				return err
			}

			c.Set(sessionKey, session)
			return next(c)
		}
	}
}

// SessionFrom returns the session resolved by Session, if any.
func SessionFrom(c echo.Context) (domain.Session, bool) {
	s, ok := c.Get(sessionKey).(domain.Session)
	return s, ok && s.Username != ""
}

// WithSession stores s on c. Tests and internal callers use it to act as s.
func WithSession(c echo.Context, s domain.Session) {
	c.Set(sessionKey, s)
}
