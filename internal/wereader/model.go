package wereader

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// SourceName identifies the export format notes are parsed from.
const SourceName = "WeChat Read"

// ItemType classifies a parsed note.
type ItemType string

const (
	// ItemTypeHighlight is a quoted passage with no user commentary.
	ItemTypeHighlight ItemType = "highlight"
	// ItemTypeThought is user commentary with no quoted passage.
	ItemTypeThought ItemType = "thought"
	// ItemTypeMixed is user commentary attached to a quoted passage.
	ItemTypeMixed ItemType = "mixed"
)

// Note is a single highlight, thought, or mixed record extracted from a
// weread TXT export. Notes are immutable once returned by the parser.
type Note struct {
	BookTitle     string
	Author        string
	SectionTitle  string
	Type          ItemType
	HighlightText string
	NoteText      string

	// CreatedDate is the zero time when the block header carried no
	// parseable date token.
	CreatedDate time.Time

	Source string

	fingerprint string
}

// Fingerprint returns the stable content identity of the note, computing
// and memoizing it on first use.
func (n *Note) Fingerprint() string {
	if n.fingerprint == "" {
		n.fingerprint = ComputeFingerprint(n.BookTitle, n.CreatedDate, n.SectionTitle, n.HighlightText, n.NoteText)
	}
	return n.fingerprint
}

// ComputeFingerprint derives a SHA-256 hex digest identifying a note by
// content. When a created date is known the key is
// book|date|highlight|note; otherwise the section title substitutes for
// the date so that undated highlights in different sections of the same
// book do not collide. Absent optional fields hash as empty strings.
//
// The key construction must stay byte-for-byte stable: fingerprints are
// the idempotency key for previously synced records.
func ComputeFingerprint(bookTitle string, createdDate time.Time, sectionTitle, highlightText, noteText string) string {
	var key string
	if !createdDate.IsZero() {
		key = bookTitle + "|" + createdDate.Format("2006-01-02") + "|" + highlightText + "|" + noteText
	} else {
		key = bookTitle + "|" + sectionTitle + "|" + highlightText + "|" + noteText
	}
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// DailyCounts maps a calendar date (midnight UTC) to the number of notes
// created on that date.
type DailyCounts map[time.Time]int

// Add increments the bucket for the given day. Days with a zero time are
// ignored: they come from blocks without a parseable date.
func (d DailyCounts) Add(day time.Time) {
	if day.IsZero() {
		return
	}
	d[day] = d[day] + 1
}

// Merge sums the counts of other into d.
func (d DailyCounts) Merge(other DailyCounts) {
	for day, count := range other {
		d[day] += count
	}
}
