package wire

import (
	"cinebook/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireShow(r chi.Router, showHandler *adaptor.ShowHandler, g guards) {
	// ==================== PUBLIC ROUTES ====================
	r.Get("/api/shows", showHandler.GetShowtimes)
	r.Get("/api/shows/{id}", showHandler.GetShow)
	r.Get("/api/shows/{id}/seats", showHandler.GetBookedSeats)

	// ==================== PROTECTED ROUTES ====================
	// Limiter runs after auth so buckets are per user.
	r.With(g.auth, g.limit).Post("/api/shows/{id}/seats", showHandler.ReserveSeats)

	// ==================== ADMIN ROUTES ====================
	r.Route("/api/admin/shows", func(r chi.Router) {
		r.Use(g.auth, g.admin)

		r.Get("/", showHandler.ListShows)
		r.Post("/", showHandler.CreateShow)
		r.Post("/backfill-dates", showHandler.BackfillShowDates)
		r.Put("/{id}", showHandler.UpdateShow)
		r.Delete("/{id}", showHandler.DeleteShow)
	})
}
