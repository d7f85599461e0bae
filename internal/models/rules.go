package models

// VenueRules is the YAML venue configuration: pricing and the viewer-mode
// seat selection limit.
type VenueRules struct {
	DefaultPrice       float64         `json:"defaultPrice" yaml:"default_price"`
	MaxSelectableSeats int             `json:"maxSelectableSeats" yaml:"max_selectable_seats"` // 0 means unlimited
	Categories         []PriceCategory `json:"categories" yaml:"categories"`
}

// PriceCategory names a price tier and the color the renderer paints it with.
type PriceCategory struct {
	Name  string  `json:"name" yaml:"name"`
	Price float64 `json:"price" yaml:"price"`
	Color string  `json:"color,omitempty" yaml:"color,omitempty"`
}

// DefaultVenueRules returns rules matching the built-in chair defaults.
func DefaultVenueRules() *VenueRules {
	return &VenueRules{DefaultPrice: DefaultChairPrice}
}

// CategoryFor returns the category whose price matches exactly, if any.
func (r *VenueRules) CategoryFor(price float64) (PriceCategory, bool) {
	if r == nil {
		return PriceCategory{}, false
	}
	for _, c := range r.Categories {
		if c.Price == price {
			return c, true
		}
	}
	return PriceCategory{}, false
}
