package adaptor

import (
	"net/http"

	"cinebook/internal/dto/request"
	"cinebook/internal/usecase"
	"cinebook/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type TheatreHandler struct {
	service usecase.TheatreService
	log     *zap.Logger
}

func NewTheatreHandler(service usecase.TheatreService, log *zap.Logger) *TheatreHandler {
	return &TheatreHandler{
		service: service,
		log:     log.With(zap.String("handler", "theatre")),
	}
}

func (h *TheatreHandler) ListTheatres(w http.ResponseWriter, r *http.Request) {
	theatres, err := h.service.ListTheatres(r.Context(), pageFrom(r))
	if err != nil {
		writeServiceError(w, h.log, err, "list theatres")
		return
	}
	utils.ResponseSuccess(w, "Theatres retrieved successfully", theatres)
}

func (h *TheatreHandler) GetTheatre(w http.ResponseWriter, r *http.Request) {
	theatre, err := h.service.GetTheatre(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.log, err, "get theatre")
		return
	}
	utils.ResponseSuccess(w, "Theatre retrieved successfully", theatre)
}

func (h *TheatreHandler) CreateTheatre(w http.ResponseWriter, r *http.Request) {
	var req request.TheatreRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	theatre, err := h.service.CreateTheatre(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "create theatre")
		return
	}
	utils.ResponseCreated(w, "Theatre created successfully", theatre)
}

func (h *TheatreHandler) UpdateTheatre(w http.ResponseWriter, r *http.Request) {
	var req request.TheatreRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	theatre, err := h.service.UpdateTheatre(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "update theatre")
		return
	}
	utils.ResponseSuccess(w, "Theatre updated successfully", theatre)
}

func (h *TheatreHandler) DeleteTheatre(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteTheatre(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, h.log, err, "delete theatre")
		return
	}
	utils.ResponseSuccess(w, "Theatre deleted successfully", nil)
}
