package parser

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/seat-planner/backend/internal/models"
)

// Registry holds the available layout codecs and provides auto-detection.
type Registry struct {
	codecs []Codec
}

// Global registry instance
var globalRegistry = NewRegistry()

func NewRegistry() *Registry {
	return &Registry{
		codecs: []Codec{
			NewJSONCodec(),
			NewMsgpackCodec(),
		},
	}
}

// GetGlobalRegistry returns the singleton registry.
func GetGlobalRegistry() *Registry {
	return globalRegistry
}

// Register adds a codec, replacing any codec for the same format.
func (r *Registry) Register(c Codec) {
	for i, existing := range r.codecs {
		if existing.Format() == c.Format() {
			r.codecs[i] = c
			return
		}
	}
	r.codecs = append(r.codecs, c)
}

// Codec returns the codec for format.
func (r *Registry) Codec(format Format) (Codec, error) {
	for _, c := range r.codecs {
		if c.Format() == format {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
}

// CodecByName parses name and returns its codec.
func (r *Registry) CodecByName(name string) (Codec, error) {
	f, err := ParseFormat(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, name)
	}
	return r.Codec(f)
}

// CodecForFile picks a codec by file extension.
func (r *Registry) CodecForFile(path string) (Codec, error) {
	ext := strings.ToLower(filepath.Ext(path))
	for _, c := range r.codecs {
		if c.Extension() == ext {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
}

// Detect peeks at the start of r to choose a codec. The returned reader
// replays the peeked bytes.
func (r *Registry) Detect(in io.Reader) (Codec, io.Reader, error) {
	br := bufio.NewReader(in)
	head, err := br.Peek(16)
	if err != nil && len(head) == 0 {
		return nil, br, fmt.Errorf("%w: empty input", ErrUnsupportedFormat)
	}
	for _, c := range r.codecs {
		if c.Sniff(head) {
			return c, br, nil
		}
	}
	return nil, br, ErrUnsupportedFormat
}

// EncodeLayout writes doc in format using the global registry.
func EncodeLayout(w io.Writer, doc *models.LayoutDocument, format Format) error {
	c, err := globalRegistry.Codec(format)
	if err != nil {
		return err
	}
	return c.Encode(w, doc)
}

// DecodeLayout reads a document in format; an empty format auto-detects.
func DecodeLayout(in io.Reader, format Format) (*models.LayoutDocument, error) {
	var (
		c   Codec
		err error
	)
	if format == "" {
		c, in, err = globalRegistry.Detect(in)
	} else {
		c, err = globalRegistry.Codec(format)
	}
	if err != nil {
		return nil, err
	}
	return c.Decode(in)
}
