package parser

import (
	"errors"
	"io"
	"strings"

	"github.com/seat-planner/backend/internal/models"
)

var (
	// ErrUnsupportedFormat is returned for layout formats with no codec.
	ErrUnsupportedFormat = errors.New("unsupported layout format")
	// ErrUnsupportedVersion is returned for documents written by a newer format.
	ErrUnsupportedVersion = errors.New("unsupported layout version")
)

// Format names a layout serialization.
type Format string

const (
	FormatJSON    Format = "json"
	FormatMsgpack Format = "msgpack"
)

// ParseFormat normalizes a format name; "" means JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "msgpack", "mp", "binary":
		return FormatMsgpack, nil
	default:
		return "", ErrUnsupportedFormat
	}
}

// Codec reads and writes layout documents in one format.
type Codec interface {
	// Format returns the format handled by the codec.
	Format() Format
	// ContentType returns the MIME type of encoded documents.
	ContentType() string
	// Extension returns the file extension, including the dot.
	Extension() string
	// Sniff reports whether head looks like a document in this format.
	Sniff(head []byte) bool
	Encode(w io.Writer, doc *models.LayoutDocument) error
	Decode(r io.Reader) (*models.LayoutDocument, error)
}

// checkDocument validates a decoded document's version and element types.
func checkDocument(doc *models.LayoutDocument) error {
	if v := doc.Meta.Version; v != "" && v != models.LayoutFormatVersion {
		return ErrUnsupportedVersion
	}
	for i, rec := range doc.Elements {
		if _, err := rec.Element(); err != nil {
			return &ElementError{Index: i, ID: rec.ID, Err: err}
		}
	}
	return nil
}

// ElementError reports an invalid element record inside a document.
type ElementError struct {
	Index int
	ID    string
	Err   error
}

func (e *ElementError) Error() string {
	return "element " + e.ID + ": " + e.Err.Error()
}

func (e *ElementError) Unwrap() error { return e.Err }
