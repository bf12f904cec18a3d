package entity

import (
	"time"
)

// Movie is the local part of a movie; descriptive metadata comes from OMDb.
type Movie struct {
	BaseNoDelete
	ExternalID  string     `db:"external_id"`
	Title       *string    `db:"title"`
	Languages   []string   `db:"languages"`
	Certificate *string    `db:"certificate"`
	PriceRange  *string    `db:"price_range"`
	ReleaseDate *time.Time `db:"release_date"`
}
