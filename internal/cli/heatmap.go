package cli

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/readsync/weread2notion/internal/config"
	"github.com/readsync/weread2notion/internal/heatmap"
	"github.com/readsync/weread2notion/internal/services"
)

// HeatmapCommand renders the reading activity heatmap site from TXT
// exports.
type HeatmapCommand struct {
	NotesDir  string
	OutputDir string
	Year      int
}

// NewHeatmapCommand creates a new HeatmapCommand.
func NewHeatmapCommand() *HeatmapCommand {
	return &HeatmapCommand{}
}

// ParseFlags parses command line flags.
func (cmd *HeatmapCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("heatmap", flag.ExitOnError)

	fs.StringVar(&cmd.NotesDir, "dir", "", "Directory containing TXT exports (default: NOTES_DIR)")
	fs.StringVar(&cmd.OutputDir, "out", "", "Output directory for the heatmap site (default: HEATMAP_OUTPUT_DIR)")
	fs.IntVar(&cmd.Year, "year", 0, "Render a single year's SVG only (default: all years + index.html)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s heatmap [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Render per-day note activity as SVG calendar grids.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s heatmap\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s heatmap -out ./public -year 2023\n", os.Args[0])
	}

	return fs.Parse(args)
}

// Run executes the heatmap command.
func (cmd *HeatmapCommand) Run() error {
	cfg := config.NewConfig()
	if cmd.NotesDir == "" {
		cmd.NotesDir = cfg.Notes.Dir
	}
	if cmd.OutputDir == "" {
		cmd.OutputDir = cfg.Heatmap.OutputDir
	}

	svc := services.NewSyncService(nil, nil, nil, nil, nil, nil, cmd.NotesDir)

	notes, daily, files, err := svc.ParseNotes()
	if err != nil {
		return err
	}
	fmt.Printf("Parsed %d notes across %d files\n", len(notes), len(files))

	if cmd.Year != 0 {
		svg := heatmap.NewRenderer().RenderSVG(daily, cmd.Year)
		if err := os.MkdirAll(cmd.OutputDir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
		target := filepath.Join(cmd.OutputDir, fmt.Sprintf("heatmap-%d.svg", cmd.Year))
		if err := os.WriteFile(target, []byte(svg), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", target, err)
		}
		fmt.Printf("Generated %s\n", target)
		return nil
	}

	if err := heatmap.NewWriter().WriteSite(daily, cmd.OutputDir); err != nil {
		return err
	}
	fmt.Printf("Generated heatmap site in %s\n", cmd.OutputDir)
	return nil
}
