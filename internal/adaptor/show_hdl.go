package adaptor

import (
	"net/http"

	"cinebook/internal/dto/request"
	"cinebook/internal/usecase"
	"cinebook/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ShowHandler struct {
	service usecase.ShowService
	log     *zap.Logger
}

func NewShowHandler(service usecase.ShowService, log *zap.Logger) *ShowHandler {
	return &ShowHandler{
		service: service,
		log:     log.With(zap.String("handler", "show")),
	}
}

// GetShowtimes handles GET /api/shows?movie_id=&date=
func (h *ShowHandler) GetShowtimes(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	movieID := query.Get("movie_id")
	if movieID == "" {
		utils.ResponseBadRequest(w, "Validation failed", map[string]string{"movie_id": "This field is required"})
		return
	}

	showtimes, err := h.service.GetShowtimes(r.Context(), movieID, query.Get("date"))
	if err != nil {
		writeServiceError(w, h.log, err, "get showtimes")
		return
	}

	utils.ResponseSuccess(w, "Showtimes retrieved successfully", showtimes)
}

// GetShow handles GET /api/shows/{id}
func (h *ShowHandler) ListShows(w http.ResponseWriter, r *http.Request) {
	shows, err := h.service.ListShows(r.Context(), pageFrom(r))
	if err != nil {
		writeServiceError(w, h.log, err, "list shows")
		return
	}
	utils.ResponseSuccess(w, "Shows retrieved successfully", shows)
}

func (h *ShowHandler) GetShow(w http.ResponseWriter, r *http.Request) {
	show, err := h.service.GetShow(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.log, err, "get show")
		return
	}

	utils.ResponseSuccess(w, "Show retrieved successfully", show)
}

// GetBookedSeats handles GET /api/shows/{id}/seats
func (h *ShowHandler) GetBookedSeats(w http.ResponseWriter, r *http.Request) {
	seats, err := h.service.GetBookedSeats(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.log, err, "get booked seats")
		return
	}

	utils.ResponseSuccess(w, "Seats retrieved successfully", seats)
}

// ReserveSeats handles POST /api/shows/{id}/seats. A taken seat answers 409
// and leaves the show unchanged.
func (h *ShowHandler) ReserveSeats(w http.ResponseWriter, r *http.Request) {
	var req request.ReserveSeatsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.service.ReserveSeats(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "reserve seats")
		return
	}

	utils.ResponseSuccess(w, "Seats reserved successfully", resp)
}

// CreateShow handles POST /api/admin/shows
func (h *ShowHandler) CreateShow(w http.ResponseWriter, r *http.Request) {
	var req request.CreateShowRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	show, err := h.service.CreateShow(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "create show")
		return
	}

	utils.ResponseCreated(w, "Show created successfully", show)
}

// UpdateShow handles PUT /api/admin/shows/{id}
func (h *ShowHandler) UpdateShow(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateShowRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	show, err := h.service.UpdateShow(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "update show")
		return
	}

	utils.ResponseSuccess(w, "Show updated successfully", show)
}

// DeleteShow handles DELETE /api/admin/shows/{id}
func (h *ShowHandler) DeleteShow(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteShow(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, h.log, err, "delete show")
		return
	}

	utils.ResponseSuccess(w, "Show deleted successfully", nil)
}

// BackfillShowDates handles POST /api/admin/shows/backfill-dates
func (h *ShowHandler) BackfillShowDates(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.BackfillShowDates(r.Context())
	if err != nil {
		writeServiceError(w, h.log, err, "backfill show dates")
		return
	}

	utils.ResponseSuccess(w, "Show dates backfilled", resp)
}
