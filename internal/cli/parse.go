// Package cli implements the command line commands: offline parsing,
// one-shot syncs, and heatmap generation.
package cli

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/readsync/weread2notion/internal/config"
	"github.com/readsync/weread2notion/internal/services"
	"github.com/readsync/weread2notion/internal/wereader"
)

// ParseCommand parses TXT exports and prints a summary without touching
// Notion.
type ParseCommand struct {
	NotesDir string
	Verbose  bool
	JSON     bool
}

// NewParseCommand creates a new ParseCommand.
func NewParseCommand() *ParseCommand {
	return &ParseCommand{}
}

// ParseFlags parses command line flags.
func (cmd *ParseCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("parse", flag.ExitOnError)

	fs.StringVar(&cmd.NotesDir, "dir", config.DefaultNotesDir, "Directory containing WeChat Read TXT exports")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Print every parsed record")
	fs.BoolVar(&cmd.JSON, "json", false, "Print parsed records as JSON")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s parse [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Parse WeChat Read TXT exports and print a summary.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s parse\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s parse -dir ~/exports -verbose\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s parse -json > notes.json\n", os.Args[0])
	}

	return fs.Parse(args)
}

// Run executes the parse command.
func (cmd *ParseCommand) Run() error {
	svc := services.NewSyncService(nil, nil, nil, nil, nil, nil, cmd.NotesDir)

	notes, daily, files, err := svc.ParseNotes()
	if err != nil {
		return err
	}

	if cmd.JSON {
		return json.NewEncoder(os.Stdout).Encode(notes)
	}

	fmt.Printf("Parsed %d notes across %d files\n", len(notes), len(files))

	perBook := map[string]int{}
	perType := map[wereader.ItemType]int{}
	dated := 0
	for i := range notes {
		perBook[notes[i].BookTitle]++
		perType[notes[i].Type]++
		if !notes[i].CreatedDate.IsZero() {
			dated++
		}
	}

	fmt.Printf("Books: %d\n", len(perBook))
	for title, count := range perBook {
		fmt.Printf("  %s: %d notes\n", title, count)
	}
	fmt.Printf("Types: %d highlights, %d thoughts, %d mixed\n",
		perType[wereader.ItemTypeHighlight], perType[wereader.ItemTypeThought], perType[wereader.ItemTypeMixed])
	fmt.Printf("Dated notes: %d across %d active days\n", dated, len(daily))

	if cmd.Verbose {
		fmt.Println()
		for i := range notes {
			note := &notes[i]
			date := "-"
			if !note.CreatedDate.IsZero() {
				date = note.CreatedDate.Format(time.DateOnly)
			}
			fmt.Printf("[%s] %s | %s | %s\n", note.Type, note.BookTitle, date, note.Fingerprint()[:12])
			if note.HighlightText != "" {
				fmt.Printf("  highlight: %s\n", note.HighlightText)
			}
			if note.NoteText != "" {
				fmt.Printf("  note: %s\n", note.NoteText)
			}
		}
	}

	return nil
}
