package heatmap

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/readsync/weread2notion/internal/wereader"
)

// Writer renders one SVG per year present in the counts and an
// index.html shell with a year selector, tooltips, and a legend.
type Writer struct {
	Renderer *Renderer
}

func NewWriter() *Writer {
	return &Writer{Renderer: NewRenderer()}
}

type yearSection struct {
	Year    int
	SVG     string
	Display string
}

type indexData struct {
	Years   []yearSection
	Palette [5]string
}

// WriteSite writes heatmap.svg (latest year), one heatmap-<year>.svg per
// year, and index.html into outDir. With no dated activity the current
// year is rendered empty.
func (w *Writer) WriteSite(counts wereader.DailyCounts, outDir string) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	years := w.Years(counts)

	data := indexData{Palette: w.Renderer.Palette}
	for i, year := range years {
		svg := w.Renderer.RenderSVG(counts, year)

		name := fmt.Sprintf("heatmap-%d.svg", year)
		if err := os.WriteFile(filepath.Join(outDir, name), []byte(svg), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		if i == 0 {
			if err := os.WriteFile(filepath.Join(outDir, "heatmap.svg"), []byte(svg), 0o644); err != nil {
				return fmt.Errorf("write heatmap.svg: %w", err)
			}
		}

		display := "none"
		if i == 0 {
			display = "block"
		}
		data.Years = append(data.Years, yearSection{Year: year, SVG: svg, Display: display})
	}

	var html strings.Builder
	if err := indexTemplate.Execute(&html, data); err != nil {
		return fmt.Errorf("render index page: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outDir, "index.html"), []byte(html.String()), 0o644); err != nil {
		return fmt.Errorf("write index.html: %w", err)
	}
	return nil
}

// Years lists the years present in the counts, newest first; the
// current year when the data is empty.
func (w *Writer) Years(counts wereader.DailyCounts) []int {
	seen := map[int]bool{}
	for day := range counts {
		seen[day.Year()] = true
	}

	var years []int
	for year := range seen {
		years = append(years, year)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))

	if len(years) == 0 {
		years = []int{time.Now().Year()}
	}
	return years
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1.0" />
  <title>WeChat Read Heatmap</title>
  <style>
    body {
      font-family: -apple-system,BlinkMacSystemFont,"Segoe UI",Helvetica,Arial,sans-serif;
      display: flex;
      align-items: center;
      justify-content: center;
      min-height: 100vh;
      margin: 0;
      background-color: transparent;
    }
    .card {
      background: #ffffff;
      padding: 16px;
      border: 1px solid #d0d7de;
      border-radius: 6px;
      box-shadow: 0 1px 3px rgba(0,0,0,0.05);
      max-width: 100%;
      overflow-x: auto;
      position: relative;
    }
    .header {
      display: flex;
      justify-content: space-between;
      align-items: center;
      margin-bottom: 8px;
    }
    h1 {
      margin: 0;
      font-size: 14px;
      font-weight: 600;
      color: #24292f;
    }
    select {
      font-size: 12px;
      padding: 2px 6px;
      border-radius: 4px;
      border: 1px solid #d0d7de;
      background-color: #f6f8fa;
      color: #24292f;
      outline: none;
    }
    .legend {
      display: flex;
      gap: 4px;
      align-items: center;
      margin-top: 8px;
      font-size: 12px;
      color: #57606a;
      justify-content: flex-end;
    }
    .legend span.box {
      width: 10px;
      height: 10px;
      border-radius: 2px;
      display: inline-block;
    }
    #tooltip {
      position: absolute;
      display: none;
      background: #ffffff;
      color: #24292f;
      padding: 8px 12px;
      border-radius: 4px;
      font-size: 12px;
      box-shadow: 0 2px 8px rgba(0,0,0,0.15);
      border: 1px solid rgba(0,0,0,0.1);
      pointer-events: none;
      z-index: 100;
      white-space: nowrap;
    }
    rect.day-cell {
        transition: stroke 0.1s;
    }
    rect.day-cell:hover {
        stroke: #555;
        stroke-width: 1px;
    }
    @media (prefers-color-scheme: dark) {
      .card { background: #0d1117; border-color: #30363d; }
      h1 { color: #c9d1d9; }
      .legend { color: #8b949e; }
      select { background-color: #21262d; border-color: #363b42; color: #c9d1d9; }
      #tooltip { background: #21262d; color: #c9d1d9; border-color: #30363d; }
    }
  </style>
  <script>
    function changeYear(select) {
      const year = select.value;
      document.querySelectorAll('.heatmap-wrapper').forEach(el => el.style.display = 'none');
      document.getElementById('year-' + year).style.display = 'block';
    }

    document.addEventListener('DOMContentLoaded', () => {
      const tooltip = document.getElementById('tooltip');
      const cells = document.querySelectorAll('.day-cell');

      cells.forEach(cell => {
        cell.addEventListener('mouseenter', (e) => {
          const dateStr = cell.getAttribute('data-date-readable');
          const count = cell.getAttribute('data-count');
          const unit = count == 1 ? 'note' : 'notes';

          tooltip.innerHTML = '<strong>' + dateStr + '</strong><br>' + count + ' ' + unit;
          tooltip.style.display = 'block';

          const rect = cell.getBoundingClientRect();
          const tooltipRect = tooltip.getBoundingClientRect();

          let top = rect.top + window.scrollY - tooltipRect.height - 8;
          let left = rect.left + window.scrollX + (rect.width / 2) - (tooltipRect.width / 2);

          tooltip.style.top = top + 'px';
          tooltip.style.left = left + 'px';
        });

        cell.addEventListener('mouseleave', () => {
          tooltip.style.display = 'none';
        });
      });
    });
  </script>
</head>
<body>
  <div id="tooltip"></div>
  <div class="card">
    <div class="header">
      <h1>Reading Contributions</h1>
      <select onchange="changeYear(this)">
        {{range .Years}}<option value="{{.Year}}">{{.Year}}</option>{{end}}
      </select>
    </div>
    {{range .Years}}<div id="year-{{.Year}}" class="heatmap-wrapper" style="display: {{.Display}};">{{.SVG}}</div>
    {{end}}
    <div class="legend">
      <span>Less</span>
      {{range .Palette}}<span class="box" style="background:{{.}}"></span>{{end}}
      <span>More</span>
    </div>
  </div>
</body>
</html>
`))
