package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type HeatmapController struct {
	parser   NotesParser
	renderer HeatmapRenderer
}

func NewHeatmapController(parser NotesParser, renderer HeatmapRenderer) *HeatmapController {
	return &HeatmapController{
		parser:   parser,
		renderer: renderer,
	}
}

// Year renders the activity heatmap for one calendar year as SVG.
func (hc *HeatmapController) Year(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil || year < 1970 || year > 9999 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid year"})
		return
	}

	_, counts, _, err := hc.parser.ParseNotes()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	svg := hc.renderer.RenderSVG(counts, year)
	c.Header("Cache-Control", "max-age=300")
	c.Data(http.StatusOK, "image/svg+xml", []byte(svg))
}
