package http

import (
	echo "github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Additional-Code/serviceorders/internal/database"
)

const sessionKey = "db.session"

// SessionMiddleware opens a database session for every request and releases
// it once the handler returns, whether it succeeded, failed or panicked.
func SessionMiddleware(conns *database.Connections, logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess := database.NewSession(conns)
			c.Set(sessionKey, sess)
			defer func() {
				held := sess.Acquired()
				if err := sess.Release(); err != nil {
					logger.Warn("release database session", zap.Bool("held_connection", held), zap.Error(err))
					return
				}
				if held {
					logger.Debug("database session released", zap.String("route", c.Path()))
				}
			}()
			return next(c)
		}
	}
}

// Session returns the database session opened for the request, or nil when
// the middleware is not installed.
func Session(c echo.Context) *database.Session {
	sess, _ := c.Get(sessionKey).(*database.Session)
	return sess
}
