package heatmap

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/readsync/weread2notion/internal/wereader"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func TestColorFor(t *testing.T) {
	r := NewRenderer()

	tests := []struct {
		count    int
		max      int
		expected string
	}{
		{0, 10, DefaultPalette[0]},
		{5, 0, DefaultPalette[0]},
		{1, 10, DefaultPalette[1]},
		{3, 10, DefaultPalette[2]},
		{6, 10, DefaultPalette[3]},
		{8, 10, DefaultPalette[4]},
		{10, 10, DefaultPalette[4]},
	}
	for _, tt := range tests {
		if got := r.colorFor(tt.count, tt.max); got != tt.expected {
			t.Errorf("colorFor(%d, %d) = %s, expected %s", tt.count, tt.max, got, tt.expected)
		}
	}
}

func TestRow_MondayStart(t *testing.T) {
	r := NewRenderer()

	// 2024-01-01 is a Monday.
	if got := r.row(day(2024, time.January, 1)); got != 0 {
		t.Errorf("Monday row = %d, expected 0", got)
	}
	// 2024-01-07 is a Sunday.
	if got := r.row(day(2024, time.January, 7)); got != 6 {
		t.Errorf("Sunday row = %d, expected 6", got)
	}
}

func TestRow_SundayStart(t *testing.T) {
	r := NewRenderer()
	r.WeekStart = time.Sunday

	if got := r.row(day(2024, time.January, 7)); got != 0 {
		t.Errorf("Sunday row = %d, expected 0", got)
	}
	if got := r.row(day(2024, time.January, 6)); got != 6 {
		t.Errorf("Saturday row = %d, expected 6", got)
	}
}

func TestRenderSVG_CellAttributes(t *testing.T) {
	counts := wereader.DailyCounts{
		day(2023, time.October, 1): 3,
		day(2023, time.October, 2): 1,
	}

	svg := NewRenderer().RenderSVG(counts, 2023)

	if !strings.HasPrefix(svg, `<svg xmlns="http://www.w3.org/2000/svg"`) {
		t.Fatalf("missing svg root element: %s", svg[:60])
	}
	if !strings.Contains(svg, `data-date="2023-10-01" data-count="3"`) {
		t.Error("expected cell for 2023-10-01 with count 3")
	}
	if !strings.Contains(svg, `data-date="2023-10-02" data-count="1"`) {
		t.Error("expected cell for 2023-10-02 with count 1")
	}
	// Max count colors the busiest day with the darkest palette entry.
	if !strings.Contains(svg, fmt.Sprintf(`fill="%s" data-date="2023-10-01"`, DefaultPalette[4])) {
		t.Error("expected darkest color on the max-count day")
	}
}

func TestRenderSVG_FullYearGrid(t *testing.T) {
	svg := NewRenderer().RenderSVG(wereader.DailyCounts{}, 2023)

	// 2023-01-01 is a Sunday, so the grid starts the Monday before,
	// 2022-12-26, and every day of the year gets a cell.
	if !strings.Contains(svg, `data-date="2022-12-26"`) {
		t.Error("expected grid aligned back to the Monday before Jan 1")
	}
	if !strings.Contains(svg, `data-date="2023-12-31"`) {
		t.Error("expected grid to cover Dec 31")
	}

	cells := strings.Count(svg, `class="day-cell"`)
	// 2022-12-26 through 2023-12-31 inclusive.
	if cells != 371 {
		t.Errorf("expected 371 cells, got %d", cells)
	}
}

func TestRenderSVG_MonthLabels(t *testing.T) {
	svg := NewRenderer().RenderSVG(wereader.DailyCounts{}, 2023)

	for _, label := range []string{">Jan<", ">Jun<", ">Dec<"} {
		if !strings.Contains(svg, label) {
			t.Errorf("expected month label %s", label)
		}
	}
}

func TestRenderSVG_IgnoresOtherYears(t *testing.T) {
	counts := wereader.DailyCounts{
		day(2022, time.May, 5): 9,
	}

	svg := NewRenderer().RenderSVG(counts, 2023)

	if strings.Contains(svg, `data-count="9"`) {
		t.Error("counts from other years must not color the grid")
	}
	if strings.Contains(svg, DefaultPalette[4]) {
		t.Error("expected an all-empty palette for a year with no activity")
	}
}
