package wire

import (
	"cinebook/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireAnalytics(r chi.Router, analyticsHandler *adaptor.AnalyticsHandler, g guards) {
	// ==================== ADMIN ROUTES ====================
	r.With(g.auth, g.admin).Get("/api/admin/analytics", analyticsHandler.GetAnalytics)
}
