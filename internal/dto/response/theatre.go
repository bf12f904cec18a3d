package response

import (
	"time"

	"cinebook/internal/data/entity"
)

type TheatreResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Location  string          `json:"location"`
	Screens   []entity.Screen `json:"screens"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func TheatreToResponse(t *entity.Theatre) TheatreResponse {
	screens := t.Screens
	if screens == nil {
		screens = []entity.Screen{}
	}
	return TheatreResponse{
		ID:        t.ID.String(),
		Name:      t.Name,
		Location:  t.Location,
		Screens:   screens,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}
