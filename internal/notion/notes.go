package notion

import (
	"context"
	"strings"

	"github.com/readsync/weread2notion/internal/wereader"
)

// appendBatchSize caps how many blocks go into one append call.
const appendBatchSize = 50

// summaryMaxRunes caps the note title used for page names and toggles.
const summaryMaxRunes = 180

// NotesRepo upserts note pages into the notes database. Notes are keyed
// by their content fingerprint, which makes repeated syncs over
// overlapping export files idempotent.
type NotesRepo struct {
	client     *Client
	databaseID string
}

func NewNotesRepo(client *Client, databaseID string) *NotesRepo {
	return &NotesRepo{client: client, databaseID: databaseID}
}

// Upsert creates the page for a note unless one with the same
// fingerprint already exists. Returns the page ID and whether a page
// was created.
func (r *NotesRepo) Upsert(ctx context.Context, note *wereader.Note, bookPageID string) (string, bool, error) {
	filter := map[string]any{
		"property":  "Fingerprint",
		"rich_text": map[string]any{"equals": note.Fingerprint()},
	}
	query, err := r.client.QueryDatabase(ctx, r.databaseID, filter, "")
	if err != nil {
		return "", false, err
	}
	if len(query.Results) > 0 {
		return query.Results[0].ID, false, nil
	}

	pageID, err := r.client.CreatePage(ctx, CreatePageParams{
		DatabaseID: r.databaseID,
		Properties: r.noteProperties(note, bookPageID),
		Children:   noteBodyBlocks(note),
	})
	if err != nil {
		return "", false, err
	}
	return pageID, true, nil
}

func (r *NotesRepo) noteProperties(note *wereader.Note, bookPageID string) map[string]any {
	props := map[string]any{
		"Name":        titleText(noteSummary(note)),
		"Fingerprint": richText(note.Fingerprint()),
		"Type":        selectProp(string(note.Type)),
		"Source":      selectProp(note.Source),
	}
	if note.SectionTitle != "" {
		props["Section"] = richText(note.SectionTitle)
	}
	if !note.CreatedDate.IsZero() {
		props["Date"] = dateProp(note.CreatedDate)
	}
	if bookPageID != "" {
		props["Book"] = relationProp(bookPageID)
	}
	return props
}

// EmbedInBookPage replaces a book page's body with its notes: a title
// heading, a heading per section, and one collapsible toggle per note.
func (r *NotesRepo) EmbedInBookPage(ctx context.Context, bookPageID, bookTitle string, notes []wereader.Note) error {
	if len(notes) == 0 {
		return nil
	}

	if err := r.clearChildren(ctx, bookPageID); err != nil {
		return err
	}

	children := bookChildren(bookTitle, notes)
	for start := 0; start < len(children); start += appendBatchSize {
		end := start + appendBatchSize
		if end > len(children) {
			end = len(children)
		}
		if err := r.client.AppendBlockChildren(ctx, bookPageID, children[start:end]); err != nil {
			return err
		}
	}
	return nil
}

// clearChildren deletes every existing child block, paging through the
// listing until exhausted.
func (r *NotesRepo) clearChildren(ctx context.Context, pageID string) error {
	cursor := ""
	for {
		listing, err := r.client.ListBlockChildren(ctx, pageID, cursor)
		if err != nil {
			return err
		}
		for _, block := range listing.Results {
			if err := r.client.DeleteBlock(ctx, block.ID); err != nil {
				return err
			}
		}
		if !listing.HasMore || listing.NextCursor == nil {
			return nil
		}
		cursor = *listing.NextCursor
	}
}

func bookChildren(bookTitle string, notes []wereader.Note) []map[string]any {
	children := []map[string]any{headingBlock(2, bookTitle)}

	for _, group := range groupBySection(notes) {
		if group.section != "" {
			children = append(children, headingBlock(3, group.section))
		}
		for i := range group.notes {
			children = append(children, noteToggle(&group.notes[i]))
		}
	}
	return children
}

type sectionGroup struct {
	section string
	notes   []wereader.Note
}

// groupBySection buckets notes by section title, preserving the order
// sections were first encountered in.
func groupBySection(notes []wereader.Note) []sectionGroup {
	index := map[string]int{}
	var groups []sectionGroup

	for _, note := range notes {
		i, ok := index[note.SectionTitle]
		if !ok {
			i = len(groups)
			index[note.SectionTitle] = i
			groups = append(groups, sectionGroup{section: note.SectionTitle})
		}
		groups[i].notes = append(groups[i].notes, note)
	}
	return groups
}

func noteToggle(note *wereader.Note) map[string]any {
	return toggleBlock(noteSummary(note), noteBodyBlocks(note))
}

func noteBodyBlocks(note *wereader.Note) []map[string]any {
	var blocks []map[string]any
	if note.HighlightText != "" {
		blocks = append(blocks, quoteBlock(note.HighlightText))
	}
	if note.NoteText != "" {
		blocks = append(blocks, paragraphBlock(note.NoteText))
	}

	var metaParts []string
	if !note.CreatedDate.IsZero() {
		metaParts = append(metaParts, "Date: "+note.CreatedDate.Format("2006-01-02"))
	}
	if note.SectionTitle != "" {
		metaParts = append(metaParts, "Section: "+note.SectionTitle)
	}
	if note.Type != "" {
		metaParts = append(metaParts, "Type: "+string(note.Type))
	}
	if len(metaParts) > 0 {
		blocks = append(blocks, paragraphBlock(strings.Join(metaParts, " | ")))
	}
	return blocks
}

// noteSummary derives a short title: the first line of the highlight,
// note, section or book title, capped at 180 runes.
func noteSummary(note *wereader.Note) string {
	text := note.HighlightText
	if text == "" {
		text = note.NoteText
	}
	if text == "" {
		text = note.SectionTitle
	}
	if text == "" {
		text = note.BookTitle
	}

	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	runes := []rune(text)
	if len(runes) > summaryMaxRunes {
		return string(runes[:summaryMaxRunes])
	}
	return text
}
