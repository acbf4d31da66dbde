package report

import (
	"fmt"
	"io"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/verte-zerg/speechtasker/internal/model"
)

// Series is a named percentage series, one value per session.
type Series struct {
	Name   string
	Values []float64
}

type dashPattern struct {
	name   string
	period int
	on     int
}

const (
	defaultPlotHeight = 8
	minPlotWidth      = 10
	axisLabelTop      = "100%"
	axisLabelMid      = "50%"
	axisLabelBottom   = "0%"
	axisSeparator     = " | "
	colorReset        = "\x1b[0m"
)

var dashPatterns = []dashPattern{
	{name: "solid", period: 1, on: 1},
	{name: "dotted", period: 4, on: 1},
}

var seriesColors = []string{"\x1b[32m", "\x1b[36m"}

// SessionSeries returns the smoothed pass-rate and words-correct series for
// sessions, both in percent.
func SessionSeries(sessions []model.SessionAggregate, window int) []Series {
	pass := make([]float64, len(sessions))
	words := make([]float64, len(sessions))
	for i, s := range sessions {
		pass[i] = PassRate(s) * 100
		if s.WordsTotal > 0 {
			words[i] = float64(s.WordsCorrect) / float64(s.WordsTotal) * 100
		}
	}
	return []Series{
		{Name: "Pass rate", Values: MovingAverage(pass, window)},
		{Name: "Words correct", Values: MovingAverage(words, window)},
	}
}

// PlotWidthFor returns the plot area that fits a line of totalWidth cells.
func PlotWidthFor(totalWidth int) int {
	axisWidth := utf8.RuneCountInString(axisLabelTop) + utf8.RuneCountInString(axisSeparator)
	return max(minPlotWidth, totalWidth-axisWidth)
}

// PlotSeries draws series as braille curves on a fixed 0-100% axis.
func PlotSeries(w io.Writer, title string, series []Series, width, height int, color bool) error {
	plotted := make([]Series, 0, len(series))
	for _, s := range series {
		if len(s.Values) > 0 {
			plotted = append(plotted, s)
		}
	}
	if len(plotted) == 0 {
		return nil
	}
	if height <= 0 {
		height = defaultPlotHeight
	}
	width = max(width, minPlotWidth)

	cells := make([][][]uint8, len(plotted))
	for si, s := range plotted {
		cells[si] = makeCells(height, width)
		pattern := dashPatterns[si%len(dashPatterns)]
		prevX, prevY := -1, -1
		for x, v := range resample(s.Values, width) {
			px, py := x*2, percentToRow(v, height*4)
			if prevX >= 0 {
				drawLine(prevX, prevY, px, py, func(dx, dy int) {
					if pattern.plots(dx) {
						setDot(cells[si], dx, dy)
					}
				})
			} else if pattern.plots(px) {
				setDot(cells[si], px, py)
			}
			prevX, prevY = px, py
		}
	}

	if title != "" {
		if _, err := fmt.Fprintln(w, title); err != nil {
			return err
		}
	}
	labels := axisLabels(height)
	for y := 0; y < height; y++ {
		var row strings.Builder
		fmt.Fprintf(&row, "%*s%s", len(axisLabelTop), labels[y], axisSeparator)
		for x := 0; x < width; x++ {
			mask, owner := composeCell(cells, x, y)
			if color && owner >= 0 {
				row.WriteString(seriesColors[owner%len(seriesColors)])
				row.WriteRune(brailleRune(mask))
				row.WriteString(colorReset)
				continue
			}
			row.WriteRune(brailleRune(mask))
		}
		if _, err := fmt.Fprintln(w, row.String()); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, legend(plotted, color))
	return err
}

// RenderCurves plots the session trend with the terminal width available.
func RenderCurves(w io.Writer, sessions []model.SessionAggregate, window, totalWidth int, color bool) error {
	if len(sessions) < 2 {
		return nil
	}
	title := fmt.Sprintf("Trend over %d sessions (window %d)", len(sessions), max(window, 1))
	return PlotSeries(w, title, SessionSeries(sessions, window), PlotWidthFor(totalWidth), defaultPlotHeight, color)
}

func (p dashPattern) plots(x int) bool {
	if p.period <= 1 {
		return true
	}
	return x%p.period < p.on
}

func axisLabels(height int) []string {
	labels := make([]string, height)
	labels[0] = axisLabelTop
	if height > 2 {
		labels[height/2] = axisLabelMid
	}
	if height > 1 {
		labels[height-1] = axisLabelBottom
	}
	return labels
}

func makeCells(height, width int) [][]uint8 {
	cells := make([][]uint8, height)
	for y := range cells {
		cells[y] = make([]uint8, width)
	}
	return cells
}

// composeCell merges every series' dots at x, y. The first series with a dot
// owns the cell color.
func composeCell(series [][][]uint8, x, y int) (uint8, int) {
	var mask uint8
	owner := -1
	for i, cells := range series {
		if cells[y][x] == 0 {
			continue
		}
		if owner == -1 {
			owner = i
		}
		mask |= cells[y][x]
	}
	return mask, owner
}

// resample stretches or averages values onto width columns.
func resample(values []float64, width int) []float64 {
	out := make([]float64, width)
	switch {
	case len(values) == width:
		copy(out, values)
	case len(values) == 1 || width == 1:
		for i := range out {
			out[i] = values[0]
		}
	case len(values) > width:
		for i := range out {
			start := i * len(values) / width
			end := max((i+1)*len(values)/width, start+1)
			var sum float64
			for _, v := range values[start:end] {
				sum += v
			}
			out[i] = sum / float64(end-start)
		}
	default:
		for i := range out {
			pos := float64(i) * float64(len(values)-1) / float64(width-1)
			idx := int(pos)
			if idx >= len(values)-1 {
				out[i] = values[len(values)-1]
				continue
			}
			frac := pos - float64(idx)
			out[i] = values[idx]*(1-frac) + values[idx+1]*frac
		}
	}
	return out
}

func percentToRow(v float64, rows int) int {
	v = math.Max(0, math.Min(100, v))
	return int(math.Round((1 - v/100) * float64(rows-1)))
}

func legend(series []Series, color bool) string {
	parts := make([]string, 0, len(series))
	for i, s := range series {
		label := fmt.Sprintf("%c %s (%s)", brailleRune(0x01), s.Name, dashPatterns[i%len(dashPatterns)].name)
		if color {
			label = seriesColors[i%len(seriesColors)] + label + colorReset
		}
		parts = append(parts, label)
	}
	return "Legend: " + strings.Join(parts, "  ")
}

// drawLine walks a Bresenham line between two dot coordinates.
func drawLine(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func setDot(cells [][]uint8, x, y int) {
	cy, cx := y/4, x/2
	if y < 0 || x < 0 || cy >= len(cells) || cx >= len(cells[cy]) {
		return
	}
	cells[cy][cx] |= dotMask(x%2, y%4)
}

// dotMask maps a dot inside a 2x4 braille cell to its bit.
func dotMask(x, y int) uint8 {
	left := [4]uint8{0x01, 0x02, 0x04, 0x40}
	right := [4]uint8{0x08, 0x10, 0x20, 0x80}
	if x == 0 {
		return left[y]
	}
	return right[y]
}

func brailleRune(mask uint8) rune {
	return rune(0x2800 + int(mask))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
