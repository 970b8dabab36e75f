package chart

import (
	"bufio"
	"fmt"
	"html"
	"io"
	"strconv"
	"strings"
)

// Surface is a 2D drawing target
type Surface interface {
	FillRect(x, y, w, h float64, color string)
	StrokeLine(x1, y1, x2, y2, width float64, color string)
	FillText(x, y float64, text, color, font string)
}

// Render replays the drawing's commands onto s in order
func (d Drawing) Render(s Surface) {
	for _, c := range d.Commands {
		switch c.Kind {
		case KindRect:
			s.FillRect(c.X, c.Y, c.Width, c.Height, c.Color)
		case KindLine:
			s.StrokeLine(c.X, c.Y, c.X2, c.Y2, c.LineWidth, c.Color)
		case KindText:
			s.FillText(c.X, c.Y, c.Text, c.Color, c.Font)
		}
	}
}

// SVG is a Surface that writes SVG elements. Call Close to finish the document.
// The first write error is kept and returned by Close.
type SVG struct {
	w   *bufio.Writer
	err error
}

// NewSVG starts an SVG document of the given size on w
func NewSVG(w io.Writer, size Size) *SVG {
	s := &SVG{w: bufio.NewWriter(w)}
	s.printf(`<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s" role="img" aria-label="Deployment statistics">`,
		num(size.Width), num(size.Height), num(size.Width), num(size.Height))
	return s
}

func (s *SVG) printf(format string, args ...interface{}) {
	if s.err != nil {
		return
	}
	_, s.err = fmt.Fprintf(s.w, format, args...)
}

// FillRect implements Surface
func (s *SVG) FillRect(x, y, w, h float64, color string) {
	s.printf(`<rect x="%s" y="%s" width="%s" height="%s" fill="%s"/>`,
		num(x), num(y), num(w), num(h), html.EscapeString(color))
}

// StrokeLine implements Surface
func (s *SVG) StrokeLine(x1, y1, x2, y2, width float64, color string) {
	s.printf(`<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s" stroke-width="%s"/>`,
		num(x1), num(y1), num(x2), num(y2), html.EscapeString(color), num(width))
}

// FillText implements Surface. Text is centered on x.
func (s *SVG) FillText(x, y float64, text, color, font string) {
	size, family := splitFont(font)
	s.printf(`<text x="%s" y="%s" fill="%s" font-size="%s" font-family="%s" text-anchor="middle">%s</text>`,
		num(x), num(y), html.EscapeString(color), size, html.EscapeString(family), html.EscapeString(text))
}

// Close ends the document and flushes it
func (s *SVG) Close() error {
	s.printf("</svg>")
	if s.err != nil {
		return fmt.Errorf("failed to write svg: %w", s.err)
	}
	if err := s.w.Flush(); err != nil {
		return fmt.Errorf("failed to flush svg: %w", err)
	}
	return nil
}

// WriteSVG renders d as a complete SVG document
func WriteSVG(w io.Writer, d Drawing) error {
	svg := NewSVG(w, d.Size)
	d.Render(svg)
	return svg.Close()
}

// splitFont turns a canvas font like "12px sans-serif" into size and family
func splitFont(font string) (string, string) {
	size, family, ok := strings.Cut(font, " ")
	if !ok {
		return "12px", "sans-serif"
	}
	return html.EscapeString(size), family
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
