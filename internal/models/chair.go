package models

// ReservationStatus is the booking state of a chair.
type ReservationStatus string

const (
	StatusFree     ReservationStatus = "free"
	StatusReserved ReservationStatus = "reserved"
	StatusSelected ReservationStatus = "selected-for-reservation"
	// StatusPreReserved is derived from an external id set and never stored.
	StatusPreReserved ReservationStatus = "pre-reserved"
)

// DefaultChairPrice is used when no venue rules override it.
const DefaultChairPrice = 25.00

// ChairPosition is a polar offset from the owning element's anchor.
type ChairPosition struct {
	Angle    float64 `json:"angle" msgpack:"angle"`
	Distance float64 `json:"distance" msgpack:"distance"`
}

// Chair is a seat record owned by an element through TableID.
type Chair struct {
	ID                string            `json:"id" msgpack:"id"`
	TableID           string            `json:"tableId" msgpack:"tableId"`
	Label             string            `json:"label" msgpack:"label"`
	Price             float64           `json:"price" msgpack:"price"`
	Position          ChairPosition     `json:"position" msgpack:"position"`
	IsSelected        bool              `json:"isSelected" msgpack:"isSelected"`
	ReservationStatus ReservationStatus `json:"reservationStatus" msgpack:"reservationStatus"`
	ReservedBy        string            `json:"reservedBy,omitempty" msgpack:"reservedBy,omitempty"`
}

// ChairPatch carries optional chair field updates.
type ChairPatch struct {
	Label             *string            `json:"label,omitempty"`
	Price             *float64           `json:"price,omitempty"`
	ReservationStatus *ReservationStatus `json:"reservationStatus,omitempty"`
	ReservedBy        *string            `json:"reservedBy,omitempty"`
}

// Apply returns c with the non-nil patch fields applied.
func (p ChairPatch) Apply(c Chair) Chair {
	if p.Label != nil {
		c.Label = *p.Label
	}
	if p.Price != nil && *p.Price >= 0 {
		c.Price = *p.Price
	}
	if p.ReservationStatus != nil && *p.ReservationStatus != StatusPreReserved {
		c.ReservationStatus = *p.ReservationStatus
	}
	if p.ReservedBy != nil {
		c.ReservedBy = *p.ReservedBy
	}
	return c
}

// SelectableKind distinguishes the two selection slots.
type SelectableKind string

const (
	SelectableElement SelectableKind = "element"
	SelectableChair   SelectableKind = "chair"
)

// Selectable is anything with an id and type eligible for single-item selection.
type Selectable struct {
	ID   string         `json:"id"`
	Kind SelectableKind `json:"kind"`
	Type string         `json:"type"`
}
