package entity

import "cinebook/pkg/seatmap"

type Screen struct {
	ScreenNumber int `json:"screenNumber"`
	Capacity     int `json:"capacity"`
}

// Theatre keeps its screens embedded as JSONB.
type Theatre struct {
	BaseNoDelete
	Name     string   `db:"name"`
	Location string   `db:"location"`
	Screens  []Screen `db:"screens"`
}

// CapacityOf returns nil when the theatre has no such screen.
func (t *Theatre) CapacityOf(screenNumber int) *int {
	screens := make([]seatmap.Screen, len(t.Screens))
	for i, s := range t.Screens {
		screens[i] = seatmap.Screen{ScreenNumber: s.ScreenNumber, Capacity: s.Capacity}
	}
	return seatmap.CapacityFor(screens, screenNumber)
}
