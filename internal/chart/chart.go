// Package chart lays out the deployment status bar chart.
//
// Layout is a pure function from the three status counts to an ordered list
// of draw commands. Rasterization is delegated to a Surface; SVG is the
// Surface used by the dashboard.
package chart

import (
	"strconv"

	"deployhub/internal/deployment"
	"deployhub/internal/stats"
)

// Fixed chart geometry
const (
	Margin     = 30 // top and bottom margin of the plot region
	BarWidth   = 60
	BarSpacing = 40
	GridLines  = 5
	GridLeft   = 40 // x where grid lines start
	GridRight  = 20 // distance of grid line end from the right edge

	labelOffset = 10 // status label distance from the bottom edge
	valueOffset = 10 // count label distance above the top of its bar

	DefaultWidth  = 500
	DefaultHeight = 300

	// MinWidth fits three bars and their spacing
	MinWidth = BarWidth*3 + BarSpacing*2
	// MinHeight leaves a non-empty plot region between the margins
	MinHeight = Margin*2 + 1
)

// Colors
const (
	BackgroundColor = "#1f2937"
	GridColor       = "#374151"
	LabelColor      = "#D1D5DB"
	ValueColor      = "#FFFFFF"
	LabelFont       = "12px sans-serif"
	ValueFont       = "14px sans-serif"
)

// Size is the canvas size in pixels
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DefaultSize is the default chart canvas size
var DefaultSize = Size{Width: DefaultWidth, Height: DefaultHeight}

// Counts are the inputs of the chart
type Counts struct {
	Success    int
	InProgress int
	Failed     int
}

// CountsFrom extracts chart counts from aggregate stats
func CountsFrom(s stats.Stats) Counts {
	return Counts{Success: s.SuccessCount, InProgress: s.InProgressCount, Failed: s.FailedCount}
}

// Total is the sum of the three counts
func (c Counts) Total() int {
	return c.Success + c.InProgress + c.Failed
}

// Kind identifies a draw command
type Kind string

const (
	KindRect Kind = "rect"
	KindLine Kind = "line"
	KindText Kind = "text"
)

// Command is one draw instruction. Only the fields relevant to Kind are set:
// rect uses X, Y, Width, Height, Color; line uses X, Y, X2, Y2, Color,
// LineWidth; text uses X, Y, Text, Color, Font (always centered).
type Command struct {
	Kind      Kind    `json:"kind"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Width     float64 `json:"width,omitempty"`
	Height    float64 `json:"height,omitempty"`
	X2        float64 `json:"x2,omitempty"`
	Y2        float64 `json:"y2,omitempty"`
	LineWidth float64 `json:"lineWidth,omitempty"`
	Color     string  `json:"color"`
	Text      string  `json:"text,omitempty"`
	Font      string  `json:"font,omitempty"`
}

// Bar is the geometry of one status bar
type Bar struct {
	Status deployment.Status `json:"status"`
	Label  string            `json:"label"`
	Count  int               `json:"count"`
	Ratio  float64           `json:"ratio"`
	X      float64           `json:"x"`
	Y      float64           `json:"y"`
	Width  float64           `json:"width"`
	Height float64           `json:"height"`
	Color  string            `json:"color"`
}

// Drawing is the laid-out chart
type Drawing struct {
	Size     Size      `json:"size"`
	Bars     []Bar     `json:"bars"`
	Commands []Command `json:"commands"`
}

// Layout computes the chart for the given counts. A zero total produces
// zero-height bars.
func Layout(c Counts, size Size) Drawing {
	w, h := size.Width, size.Height
	plot := h - 2*Margin
	total := c.Total()

	d := Drawing{Size: size}

	d.Commands = append(d.Commands, Command{Kind: KindRect, X: 0, Y: 0, Width: w, Height: h, Color: BackgroundColor})

	for i := 0; i < GridLines; i++ {
		y := Margin + float64(i)*plot/float64(GridLines-1)
		d.Commands = append(d.Commands, Command{
			Kind: KindLine, X: GridLeft, Y: y, X2: w - GridRight, Y2: y,
			LineWidth: 1, Color: GridColor,
		})
	}

	startX := (w - float64(MinWidth)) / 2
	counts := []int{c.Success, c.InProgress, c.Failed}

	for i, status := range deployment.Statuses {
		ratio := 0.0
		if total > 0 {
			ratio = float64(counts[i]) / float64(total)
		}
		barHeight := plot * ratio
		bar := Bar{
			Status: status,
			Label:  barLabel(status),
			Count:  counts[i],
			Ratio:  ratio,
			X:      startX + float64(i)*(BarWidth+BarSpacing),
			Y:      h - Margin - barHeight,
			Width:  BarWidth,
			Height: barHeight,
			Color:  status.Color(),
		}
		d.Bars = append(d.Bars, bar)
		d.Commands = append(d.Commands, Command{
			Kind: KindRect, X: bar.X, Y: bar.Y, Width: bar.Width, Height: bar.Height, Color: bar.Color,
		})
	}

	for _, bar := range d.Bars {
		d.Commands = append(d.Commands, Command{
			Kind: KindText, X: bar.X + BarWidth/2, Y: h - labelOffset,
			Text: bar.Label, Color: LabelColor, Font: LabelFont,
		})
	}

	for _, bar := range d.Bars {
		d.Commands = append(d.Commands, Command{
			Kind: KindText, X: bar.X + BarWidth/2, Y: h - Margin - valueOffset - bar.Height,
			Text: strconv.Itoa(bar.Count), Color: ValueColor, Font: ValueFont,
		})
	}

	return d
}

// The chart labels in-progress bars "In Progress" and the others by status
// name, which differs from the badge labels ("Successful").
func barLabel(s deployment.Status) string {
	switch s {
	case deployment.StatusSuccess:
		return "Success"
	case deployment.StatusInProgress:
		return "In Progress"
	case deployment.StatusFailed:
		return "Failed"
	default:
		return s.Label()
	}
}
