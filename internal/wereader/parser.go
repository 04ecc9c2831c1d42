// Package wereader parses the plain-text note exports produced by the
// WeChat Read app into normalized note records.
//
// An export file starts with the book title and author, followed by a
// fixed-size metadata header. The remainder is a sequence of sections:
// a standalone section title, then blocks delimited by a leading marker
// glyph, terminated by two consecutive blank lines. The parser is
// deliberately tolerant: malformed dates, undecodable bytes and
// structural anomalies degrade to partial records instead of errors.
package wereader

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"
)

const (
	// blockMarker starts a new annotation block; the rest of the line is
	// the block header.
	blockMarker = "◆"
	// thoughtMarker inside a block header means the block carries user
	// commentary rather than a plain highlight.
	thoughtMarker = "发表想法"
	// originalPrefix starts the quoted original passage inside a
	// thought block.
	originalPrefix = "原文："

	// contentStartLine is the line index where section content begins in
	// a full-size export. Files shorter than this fall back to scanning
	// right after the title line.
	contentStartLine = 5
)

var dateTokenRe = regexp.MustCompile(`(\d{4}/\d{1,2}/\d{1,2})`)

// parseState enumerates the states of the file-level parser.
type parseState int

const (
	// stateHeader consumes the book title and author lines.
	stateHeader parseState = iota
	// stateSectionScan looks for the next section title.
	stateSectionScan
	// stateSectionBody accumulates lines until the two-blank terminator.
	stateSectionBody
)

// ParseFile reads and parses a single export file. Malformed content
// never fails the file; only the read itself can error.
func ParseFile(path string) ([]Note, DailyCounts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read export file: %w", err)
	}
	notes, daily := Parse(string(data))
	return notes, daily, nil
}

// ParseFiles parses every file in order and concatenates the results.
// Files are independent: records keep per-file encounter order and daily
// counts are summed per date.
func ParseFiles(paths []string) ([]Note, DailyCounts, error) {
	var all []Note
	daily := DailyCounts{}

	for _, path := range paths {
		notes, fileDaily, err := ParseFile(path)
		if err != nil {
			return nil, nil, err
		}
		all = append(all, notes...)
		daily.Merge(fileDaily)
	}
	return all, daily, nil
}

// Parse parses raw export content. Invalid UTF-8 bytes are dropped
// before line splitting.
func Parse(content string) ([]Note, DailyCounts) {
	p := &fileParser{
		lines: splitLines(strings.ToValidUTF8(content, "")),
		daily: DailyCounts{},
	}
	p.run()
	return p.notes, p.daily
}

// fileParser is the explicit state machine over the cleaned line list.
type fileParser struct {
	lines []string
	pos   int
	state parseState

	bookTitle      string
	author         string
	currentSection string

	notes []Note
	daily DailyCounts
}

func (p *fileParser) run() {
	for p.pos <= len(p.lines) {
		switch p.state {
		case stateHeader:
			if !p.readHeader() {
				return
			}
		case stateSectionScan:
			if !p.scanSectionTitle() {
				return
			}
		case stateSectionBody:
			p.readSectionBody()
		}
	}
}

// readHeader consumes the title and author lines and positions the
// cursor at the start of section content. Returns false when the file
// has no title at all (empty output).
func (p *fileParser) readHeader() bool {
	title, titleIdx := p.nextNonEmpty(0)
	if title == "" {
		return false
	}
	p.bookTitle = title
	p.author, _ = p.nextNonEmpty(titleIdx + 1)

	// Full exports carry a fixed-format metadata header; content starts
	// at a fixed line index. Shorter files resume right after the title.
	if len(p.lines) > contentStartLine {
		p.pos = contentStartLine
	} else {
		p.pos = titleIdx + 1
	}
	p.state = stateSectionScan
	return true
}

// scanSectionTitle advances to the next non-empty line and takes it
// verbatim as the current section title. A block-marker line right
// after a section terminator belongs to the running section: it is left
// in place and body accumulation resumes under the current title.
// Returns false at end of input.
func (p *fileParser) scanSectionTitle() bool {
	for p.pos < len(p.lines) {
		line := p.lines[p.pos]
		if line == "" {
			p.pos++
			continue
		}
		if !strings.HasPrefix(line, blockMarker) {
			p.currentSection = line
			p.pos++
		}
		p.state = stateSectionBody
		return true
	}
	return false
}

// readSectionBody accumulates lines until two consecutive blanks or end
// of file, then extracts the section's blocks. A partial section at EOF
// is still processed.
func (p *fileParser) readSectionBody() {
	var sectionLines []string
	emptyRun := 0

	for p.pos < len(p.lines) {
		line := p.lines[p.pos]
		if line == "" {
			emptyRun++
			if emptyRun >= 2 {
				p.pos++
				break
			}
		} else {
			emptyRun = 0
		}
		sectionLines = append(sectionLines, line)
		p.pos++
	}

	p.extractBlocks(sectionLines)
	p.state = stateSectionScan
}

// extractBlocks splits section content at block-marker lines and
// classifies each block.
func (p *fileParser) extractBlocks(sectionLines []string) {
	i := 0
	for i < len(sectionLines) {
		line := sectionLines[i]
		if line == "" || !strings.HasPrefix(line, blockMarker) {
			i++
			continue
		}

		block := []string{strings.TrimLeft(line, blockMarker+" ")}
		i++
		for i < len(sectionLines) && !strings.HasPrefix(sectionLines[i], blockMarker) {
			block = append(block, sectionLines[i])
			i++
		}

		note := parseBlock(p.bookTitle, p.author, p.currentSection, block)
		p.notes = append(p.notes, note)
		p.daily.Add(note.CreatedDate)
	}
}

// nextNonEmpty returns the first non-empty line at or after start and
// its index, or "" and len(lines) when none remains.
func (p *fileParser) nextNonEmpty(start int) (string, int) {
	for i := start; i < len(p.lines); i++ {
		if p.lines[i] != "" {
			return p.lines[i], i
		}
	}
	return "", len(p.lines)
}

// parseBlock classifies one block into a note record. The first line is
// the block header; it may carry a date token and the thought marker.
func parseBlock(bookTitle, author, sectionTitle string, blockLines []string) Note {
	header := ""
	if len(blockLines) > 0 {
		header = blockLines[0]
	}
	created := extractDate(header)
	hasThought := strings.Contains(header, thoughtMarker)

	var highlightText, noteText string

	if hasThought {
		// The first non-empty body line is the thought itself; a later
		// line starting with the original-text prefix opens the quoted
		// passage, which runs to the end of the block.
		bodyIdx, origIdx := -1, -1
		for idx := 1; idx < len(blockLines); idx++ {
			line := blockLines[idx]
			if line == "" {
				continue
			}
			if bodyIdx == -1 {
				bodyIdx = idx
				continue
			}
			if strings.HasPrefix(line, originalPrefix) {
				origIdx = idx
				break
			}
		}
		if bodyIdx != -1 {
			noteText = blockLines[bodyIdx]
		}
		if origIdx != -1 {
			var origLines []string
			first := strings.TrimSpace(strings.TrimPrefix(blockLines[origIdx], originalPrefix))
			if first != "" {
				origLines = append(origLines, first)
			}
			for _, extra := range blockLines[origIdx+1:] {
				if extra != "" {
					origLines = append(origLines, extra)
				}
			}
			highlightText = strings.Join(origLines, "\n")
		}
	} else {
		// Pure highlight: every non-empty line of the block, header
		// included, is part of the quoted passage.
		var hlLines []string
		for _, line := range blockLines {
			if line != "" {
				hlLines = append(hlLines, line)
			}
		}
		highlightText = strings.Join(hlLines, "\n")
	}

	itemType := classify(highlightText, noteText)

	note := Note{
		BookTitle:     bookTitle,
		Author:        author,
		SectionTitle:  sectionTitle,
		Type:          itemType,
		HighlightText: highlightText,
		NoteText:      noteText,
		CreatedDate:   created,
		Source:        SourceName,
	}
	note.Fingerprint()
	return note
}

// classify derives the item type from which text fields are populated.
func classify(highlightText, noteText string) ItemType {
	switch {
	case highlightText != "" && noteText != "":
		return ItemTypeMixed
	case noteText != "":
		return ItemTypeThought
	default:
		return ItemTypeHighlight
	}
}

// extractDate finds a YYYY/M/D token in the header and parses it
// strictly. Malformed dates yield the zero time, never an error.
func extractDate(text string) time.Time {
	match := dateTokenRe.FindString(text)
	if match == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006/1/2", strings.TrimSpace(match))
	if err != nil {
		return time.Time{}
	}
	return t
}

// splitLines splits content into whitespace-trimmed lines. A trailing
// newline does not produce a phantom empty line.
func splitLines(content string) []string {
	raw := strings.Split(content, "\n")
	if len(raw) > 0 && raw[len(raw)-1] == "" {
		raw = raw[:len(raw)-1]
	}
	lines := make([]string, len(raw))
	for i, l := range raw {
		lines[i] = strings.Trim(l, "\n\r ")
	}
	return lines
}
