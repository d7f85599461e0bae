package models

import "time"

// LayoutFormatVersion is written to meta.version on export. The engine does
// not interpret it on import.
const LayoutFormatVersion = "1"

// LayoutMeta describes a persisted layout document.
type LayoutMeta struct {
	Version string    `json:"version" msgpack:"version"`
	Name    string    `json:"name,omitempty" msgpack:"name,omitempty"`
	SavedAt time.Time `json:"savedAt" msgpack:"savedAt"`
}

// LayoutDocument is the import/export form of a whole layout.
type LayoutDocument struct {
	Meta     LayoutMeta      `json:"meta" msgpack:"meta"`
	Elements []ElementRecord `json:"elements" msgpack:"elements"`
	Chairs   []Chair         `json:"chairs" msgpack:"chairs"`
}

// LayoutInfo represents metadata about a stored layout.
type LayoutInfo struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Version      string    `json:"version"`
	ElementCount int       `json:"elementCount"`
	ChairCount   int       `json:"chairCount"`
	Size         int64     `json:"size"`
	SavedAt      time.Time `json:"savedAt"`
}
