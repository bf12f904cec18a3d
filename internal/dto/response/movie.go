package response

import (
	"time"

	"cinebook/internal/data/entity"
	"cinebook/pkg/omdb"
)

type MovieResponse struct {
	ID          string         `json:"id"`
	ExternalID  string         `json:"external_id"`
	Title       *string        `json:"title,omitempty"`
	Languages   []string       `json:"languages"`
	Certificate *string        `json:"certificate,omitempty"`
	PriceRange  *string        `json:"price_range,omitempty"`
	ReleaseDate *string        `json:"release_date,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	Metadata    *omdb.Metadata `json:"metadata,omitempty"`
}

// MovieToResponse leaves Metadata empty; callers enrich it when available.
func MovieToResponse(movie *entity.Movie) MovieResponse {
	resp := MovieResponse{
		ID:          movie.ID.String(),
		ExternalID:  movie.ExternalID,
		Title:       movie.Title,
		Languages:   movie.Languages,
		Certificate: movie.Certificate,
		PriceRange:  movie.PriceRange,
		CreatedAt:   movie.CreatedAt,
	}
	if resp.Languages == nil {
		resp.Languages = []string{}
	}
	if movie.ReleaseDate != nil {
		d := movie.ReleaseDate.Format("2006-01-02")
		resp.ReleaseDate = &d
	}
	return resp
}
