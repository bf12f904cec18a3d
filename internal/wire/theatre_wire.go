package wire

import (
	"cinebook/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireTheatre(r chi.Router, theatreHandler *adaptor.TheatreHandler, g guards) {
	// ==================== PUBLIC ROUTES ====================
	r.Get("/api/theatres", theatreHandler.ListTheatres)
	r.Get("/api/theatres/{id}", theatreHandler.GetTheatre)

	// ==================== ADMIN ROUTES ====================
	r.Route("/api/admin/theatres", func(r chi.Router) {
		r.Use(g.auth, g.admin)

		r.Post("/", theatreHandler.CreateTheatre)
		r.Put("/{id}", theatreHandler.UpdateTheatre)
		r.Delete("/{id}", theatreHandler.DeleteTheatre)
	})
}
