package adaptor

import (
	"net/http"

	"cinebook/internal/usecase"
	"cinebook/pkg/utils"

	"go.uber.org/zap"
)

type AnalyticsHandler struct {
	service usecase.AnalyticsService
	log     *zap.Logger
}

func NewAnalyticsHandler(service usecase.AnalyticsService, log *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		service: service,
		log:     log.With(zap.String("handler", "analytics")),
	}
}

// GetAnalytics handles GET /api/admin/analytics
func (h *AnalyticsHandler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.GetAnalytics(r.Context())
	if err != nil {
		writeServiceError(w, h.log, err, "get analytics")
		return
	}

	utils.ResponseSuccess(w, "Analytics retrieved successfully", out)
}
