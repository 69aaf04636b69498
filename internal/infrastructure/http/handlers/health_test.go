package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveReadiness(t *testing.T, checks map[string]Checker) (int, readinessResponse) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health/ready", nil), rec)

	require.NoError(t, NewHealthDependenciesHandler(checks).Readiness(c))

	var resp readinessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec.Code, resp
}

func TestLiveness(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rec)

	require.NoError(t, NewHealthHandler().Liveness(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestReadiness_AllHealthy(t *testing.T) {
	ok := func(context.Context) error { return nil }

	code, resp := serveReadiness(t, map[string]Checker{"mongodb": ok, "redis": ok})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "ok", resp.Dependencies["mongodb"].Status)
	assert.Equal(t, "ok", resp.Dependencies["redis"].Status)
}

func TestReadiness_Degraded(t *testing.T) {
	code, resp := serveReadiness(t, map[string]Checker{
		"mongodb": func(context.Context) error { return nil },
		"s3":      func(context.Context) error { return errors.New("no such bucket") },
	})
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "unhealthy", resp.Dependencies["s3"].Status)
	assert.Equal(t, "no such bucket", resp.Dependencies["s3"].Error)
	assert.Equal(t, "ok", resp.Dependencies["mongodb"].Status)
}

func TestReadiness_NoDependencies(t *testing.T) {
	code, resp := serveReadiness(t, nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Empty(t, resp.Dependencies)
}
