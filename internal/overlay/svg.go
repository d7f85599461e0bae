package overlay

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
)

var tagColors = map[Tag]string{
	TagTable:   "#2563eb",
	TagRow:     "#16a34a",
	TagLine:    "#9333ea",
	TagPolygon: "#ea580c",
}

// RenderSVG draws frame as dashed rotated rectangles on a width x height canvas.
func RenderSVG(frame Frame, width, height float64) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s">`,
		formatFloat(width), formatFloat(height), formatFloat(width), formatFloat(height)))
	b.WriteString("\n")
	for _, box := range frame.Boxes {
		color := tagColors[box.Tag]
		if color == "" {
			color = "#000000"
		}
		b.WriteString(fmt.Sprintf(
			`  <rect data-id="%s" class="selection-%s" x="%s" y="%s" width="%s" height="%s" transform="rotate(%s %s %s)" fill="none" stroke="%s" stroke-width="2" stroke-dasharray="6 4"/>`,
			escapeAttr(box.ID), box.Tag,
			formatFloat(box.X-box.Width/2), formatFloat(box.Y-box.Height/2),
			formatFloat(box.Width), formatFloat(box.Height),
			formatFloat(box.Rotation), formatFloat(box.X), formatFloat(box.Y),
			color))
		b.WriteString("\n")
	}
	b.WriteString(`</svg>`)
	return b.String()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

var attrEscaper = strings.NewReplacer(`&`, "&amp;", `"`, "&quot;", `<`, "&lt;", `>`, "&gt;")

func escapeAttr(s string) string { return attrEscaper.Replace(s) }

// SVGPainter keeps the most recent frame rendered as SVG.
type SVGPainter struct {
	Width, Height float64

	mu   sync.RWMutex
	last string
}

// NewSVGPainter creates a painter for a canvas of the given size.
func NewSVGPainter(width, height float64) *SVGPainter {
	return &SVGPainter{Width: width, Height: height, last: RenderSVG(Frame{}, width, height)}
}

func (p *SVGPainter) Paint(f Frame) error {
	svg := RenderSVG(f, p.Width, p.Height)
	p.mu.Lock()
	p.last = svg
	p.mu.Unlock()
	return nil
}

// Last returns the most recently painted SVG document.
func (p *SVGPainter) Last() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.last
}
