package request

type MovieRequest struct {
	ExternalID  string   `json:"external_id" validate:"required,externalid"`
	Title       *string  `json:"title,omitempty" validate:"omitempty,max=255"`
	Languages   []string `json:"languages,omitempty" validate:"omitempty,dive,required,max=50"`
	Certificate *string  `json:"certificate,omitempty" validate:"omitempty,max=10"`
	PriceRange  *string  `json:"price_range,omitempty" validate:"omitempty,pricerange"`
	ReleaseDate *string  `json:"release_date,omitempty" validate:"omitempty,showdate"`
}

type MovieUpdateRequest struct {
	ExternalID  *string   `json:"external_id,omitempty" validate:"omitempty,externalid"`
	Title       *string   `json:"title,omitempty" validate:"omitempty,max=255"`
	Languages   *[]string `json:"languages,omitempty" validate:"omitempty,dive,required,max=50"`
	Certificate *string   `json:"certificate,omitempty" validate:"omitempty,max=10"`
	PriceRange  *string   `json:"price_range,omitempty" validate:"omitempty,pricerange"`
	ReleaseDate *string   `json:"release_date,omitempty" validate:"omitempty,showdate"`
}
