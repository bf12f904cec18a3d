package request

type ScreenRequest struct {
	ScreenNumber int `json:"screenNumber" validate:"required,gte=1"`
	Capacity     int `json:"capacity" validate:"required,gte=1,lte=312"`
}

type TheatreRequest struct {
	Name     string          `json:"name" validate:"required,max=255"`
	Location string          `json:"location" validate:"required,max=255"`
	Screens  []ScreenRequest `json:"screens" validate:"required,min=1,unique=ScreenNumber,dive"`
}
