package http_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	echo "github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Additional-Code/serviceorders/internal/config"
	"github.com/Additional-Code/serviceorders/internal/database/databasetest"
	httpserver "github.com/Additional-Code/serviceorders/internal/server/http"
)

func TestHealthAndReady(t *testing.T) {
	conns := databasetest.Open(t)
	e := httpserver.NewEcho(httpserver.Params{Config: config.Config{}, Connections: conns, Logger: zap.NewNop()})

	for path, want := range map[string]string{"/health": "ok", "/ready": "ready"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, rec.Code, path)
		require.Contains(t, rec.Body.String(), want, path)
	}
}

func TestSessionReleasedAfterRequest(t *testing.T) {
	conns := databasetest.Open(t)
	e := httpserver.NewEcho(httpserver.Params{Config: config.Config{}, Connections: conns, Logger: zap.NewNop()})

	e.GET("/touch", func(c echo.Context) error {
		db, err := httpserver.Session(c).Writer(c.Request().Context())
		if err != nil {
			return err
		}
		var one int
		if err := db.NewSelect().ColumnExpr("1").Scan(c.Request().Context(), &one); err != nil {
			return err
		}
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/fail", func(c echo.Context) error {
		if _, err := httpserver.Session(c).Writer(c.Request().Context()); err != nil {
			return err
		}
		return errors.New("boom")
	})
	e.GET("/panic", func(c echo.Context) error {
		if _, err := httpserver.Session(c).Writer(c.Request().Context()); err != nil {
			return err
		}
		panic("boom")
	})

	for path, code := range map[string]int{"/touch": http.StatusOK, "/fail": http.StatusInternalServerError, "/panic": http.StatusInternalServerError} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, code, rec.Code, path)
		require.Zero(t, conns.Primary.DB.Stats().InUse, path)
	}
}

func TestReadyReportsUnavailableDatabase(t *testing.T) {
	conns := databasetest.Open(t)
	e := httpserver.NewEcho(httpserver.Params{Config: config.Config{}, Connections: conns, Logger: zap.NewNop()})
	require.NoError(t, conns.Close())

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Contains(t, rec.Body.String(), "database unavailable")
}

func TestSessionReleaseLogsOnlyHeldConnections(t *testing.T) {
	conns := databasetest.Open(t)
	core, logs := observer.New(zapcore.DebugLevel)
	e := httpserver.NewEcho(httpserver.Params{Config: config.Config{}, Connections: conns, Logger: zap.New(core)})

	e.GET("/idle", func(c echo.Context) error {
		return c.String(http.StatusOK, "idle")
	})
	e.GET("/orders/:id", func(c echo.Context) error {
		if _, err := httpserver.Session(c).Reader(c.Request().Context()); err != nil {
			return err
		}
		return c.String(http.StatusOK, "ok")
	})

	for _, path := range []string{"/idle", "/orders/7"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, rec.Code, path)
	}

	released := logs.FilterMessage("database session released").All()
	require.Len(t, released, 1)
	require.Equal(t, "/orders/:id", released[0].ContextMap()["route"])
}
