package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/seat-planner/backend/internal/models"
	"github.com/vmihailenco/msgpack/v5"
)

// JSONCodec is the interchange format consumed by the renderer.
type JSONCodec struct {
	Indent bool
}

func NewJSONCodec() *JSONCodec { return &JSONCodec{Indent: true} }

func (c *JSONCodec) Format() Format      { return FormatJSON }
func (c *JSONCodec) ContentType() string { return "application/json" }
func (c *JSONCodec) Extension() string   { return ".json" }

func (c *JSONCodec) Sniff(head []byte) bool {
	head = bytes.TrimSpace(head)
	return len(head) > 0 && head[0] == '{'
}

func (c *JSONCodec) Encode(w io.Writer, doc *models.LayoutDocument) error {
	enc := json.NewEncoder(w)
	if c.Indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(doc)
}

func (c *JSONCodec) Decode(r io.Reader) (*models.LayoutDocument, error) {
	var doc models.LayoutDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode json layout: %w", err)
	}
	if err := checkDocument(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// MsgpackCodec is the compact binary format used for storage.
type MsgpackCodec struct{}

func NewMsgpackCodec() *MsgpackCodec { return &MsgpackCodec{} }

func (c *MsgpackCodec) Format() Format      { return FormatMsgpack }
func (c *MsgpackCodec) ContentType() string { return "application/msgpack" }
func (c *MsgpackCodec) Extension() string   { return ".msgpack" }

// Sniff matches a msgpack map header: fixmap, map16 or map32.
func (c *MsgpackCodec) Sniff(head []byte) bool {
	if len(head) == 0 {
		return false
	}
	b := head[0]
	return b&0xf0 == 0x80 || b == 0xde || b == 0xdf
}

func (c *MsgpackCodec) Encode(w io.Writer, doc *models.LayoutDocument) error {
	return msgpack.NewEncoder(w).Encode(doc)
}

func (c *MsgpackCodec) Decode(r io.Reader) (*models.LayoutDocument, error) {
	var doc models.LayoutDocument
	if err := msgpack.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode msgpack layout: %w", err)
	}
	if err := checkDocument(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}
