// Package heatmap renders per-day note activity as GitHub-style SVG
// calendar grids and writes a small static site embedding them.
package heatmap

import (
	"fmt"
	"strings"
	"time"

	"github.com/readsync/weread2notion/internal/wereader"
)

// DefaultPalette is a blue monochrome scale from no activity to high
// activity.
var DefaultPalette = [5]string{"#ebedf0", "#c6dbef", "#6baed6", "#3182bd", "#08519c"}

const (
	cellSize   = 10
	cellGap    = 2
	weekWidth  = cellSize + cellGap
	textHeight = 15
)

// Renderer draws a one-year activity grid. Weeks are columns, weekdays
// are rows starting at WeekStart.
type Renderer struct {
	Palette   [5]string
	WeekStart time.Weekday
}

// NewRenderer creates a renderer with the default palette and a Monday
// week start.
func NewRenderer() *Renderer {
	return &Renderer{
		Palette:   DefaultPalette,
		WeekStart: time.Monday,
	}
}

// RenderSVG renders the activity grid for one calendar year. Counts
// outside the year are ignored; cells carry data-date and data-count
// attributes for tooltips.
func (r *Renderer) RenderSVG(counts wereader.DailyCounts, year int) string {
	firstDay := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	lastDay := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)

	start := firstDay.AddDate(0, 0, -r.row(firstDay))
	end := lastDay
	for r.row(end) != 6 {
		end = end.AddDate(0, 0, 1)
	}

	maxCount := 0
	for day, count := range counts {
		if day.Year() == year && count > maxCount {
			maxCount = count
		}
	}

	var rects strings.Builder
	monthLabelX := map[time.Month]int{}

	week := 0
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		row := r.row(day)
		x := week * weekWidth
		y := row*weekWidth + textHeight

		count := 0
		if day.Year() == year {
			count = counts[time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)]
		}

		if day.Year() == year && day.Day() == 1 {
			monthLabelX[day.Month()] = x
		}

		fmt.Fprintf(&rects,
			`<rect class="day-cell" width="%d" height="%d" x="%d" y="%d" rx="2" ry="2" fill="%s" data-date="%s" data-count="%d" data-date-readable="%s"></rect>`,
			cellSize, cellSize, x, y,
			r.colorFor(count, maxCount),
			day.Format("2006-01-02"), count, day.Format("January 02"))

		if row == 6 {
			week++
		}
	}

	var labels strings.Builder
	for month := time.January; month <= time.December; month++ {
		x, ok := monthLabelX[month]
		if !ok {
			continue
		}
		fmt.Fprintf(&labels,
			`<text x="%d" y="%d" font-family="sans-serif" font-size="10" fill="#767676">%s</text>`,
			x, textHeight-5, month.String()[:3])
	}

	width := (week+1)*weekWidth + 10
	height := 7*weekWidth + textHeight + 10

	return fmt.Sprintf(
		`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" role="img" aria-label="Reading activity heatmap">`+
			`<style>text { dominant-baseline: auto; }</style>`+
			`<g transform="translate(14, 0)">%s%s</g>`+
			`</svg>`,
		width, height, labels.String(), rects.String())
}

// row maps a date to its grid row, 0 at WeekStart through 6 at the end
// of the week.
func (r *Renderer) row(day time.Time) int {
	return (int(day.Weekday()) - int(r.WeekStart) + 7) % 7
}

func (r *Renderer) colorFor(count, maxCount int) string {
	if maxCount <= 0 || count <= 0 {
		return r.Palette[0]
	}
	ratio := float64(count) / float64(maxCount)
	switch {
	case ratio > 0.75:
		return r.Palette[4]
	case ratio > 0.5:
		return r.Palette[3]
	case ratio > 0.25:
		return r.Palette[2]
	}
	return r.Palette[1]
}
