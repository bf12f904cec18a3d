package wire

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cinebook/internal/data/repository"
	"cinebook/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	config := &utils.Config{
		App: utils.AppConfig{Name: "cinebook", CORSOrigins: []string{"*"}},
		JWT: utils.JWTConfig{Secret: "test-secret"},
	}
	return Wiring(&repository.Repository{}, config, nil, zap.NewNop())
}

func TestWiring_RegistersRoutes(t *testing.T) {
	app := newTestApp(t)

	routes := map[string]bool{}
	err := chi.Walk(app.Router, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes[method+" "+strings.TrimSuffix(route, "/")] = true
		return nil
	})
	require.NoError(t, err)

	for _, want := range []string{
		"GET /health",
		"POST /api/register",
		"POST /api/login",
		"POST /api/logout",
		"GET /api/movies/{id}",
		"GET /api/movies/{id}/reviews",
		"GET /api/shows/{id}/seats",
		"POST /api/shows/{id}/seats",
		"POST /api/bookings",
		"GET /api/user/bookings",
		"POST /api/admin/movies",
		"GET /api/admin/metadata/{externalID}",
		"GET /api/admin/shows",
		"POST /api/admin/shows/backfill-dates",
		"PUT /api/admin/shows/{id}",
		"GET /api/admin/analytics",
		"DELETE /api/admin/users/{id}",
	} {
		assert.True(t, routes[want], "missing route %s", want)
	}
}

func TestWiring_ProtectedRoutesRequireToken(t *testing.T) {
	app := newTestApp(t)

	for _, target := range []struct{ method, path string }{
		{http.MethodPost, "/api/bookings"},
		{http.MethodPost, "/api/shows/6f1d7d2c-8d59-4bb4-9c50-6c1c8a0d4f11/seats"},
		{http.MethodGet, "/api/admin/analytics"},
	} {
		rec := httptest.NewRecorder()
		app.Router.ServeHTTP(rec, httptest.NewRequest(target.method, target.path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", target.method, target.path)
	}
}

func TestWiring_Health(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestApp(t).Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"service":"cinebook"`)
}
