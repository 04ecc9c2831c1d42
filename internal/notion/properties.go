package notion

import "time"

// Property and block payload builders shared by the repositories. Shapes
// follow the Notion API property value objects.

func titleText(content string) map[string]any {
	return map[string]any{
		"title": []map[string]any{
			{"type": "text", "text": map[string]any{"content": content}},
		},
	}
}

func richText(content string) map[string]any {
	return map[string]any{
		"rich_text": []map[string]any{
			{"type": "text", "text": map[string]any{"content": content}},
		},
	}
}

func selectProp(name string) map[string]any {
	return map[string]any{"select": map[string]any{"name": name}}
}

func dateProp(day time.Time) map[string]any {
	return map[string]any{"date": map[string]any{"start": day.Format("2006-01-02")}}
}

func numberProp(value int) map[string]any {
	return map[string]any{"number": value}
}

func urlProp(url string) map[string]any {
	return map[string]any{"url": url}
}

func relationProp(pageIDs ...string) map[string]any {
	refs := make([]map[string]any, 0, len(pageIDs))
	for _, id := range pageIDs {
		refs = append(refs, map[string]any{"id": id})
	}
	return map[string]any{"relation": refs}
}

func emojiIcon(emoji string) map[string]any {
	return map[string]any{"type": "emoji", "emoji": emoji}
}

func externalCover(url string) map[string]any {
	return map[string]any{"type": "external", "external": map[string]any{"url": url}}
}

func textSpans(content string) []map[string]any {
	return []map[string]any{
		{"type": "text", "text": map[string]any{"content": content}},
	}
}

func paragraphBlock(content string) map[string]any {
	return map[string]any{
		"object":    "block",
		"type":      "paragraph",
		"paragraph": map[string]any{"rich_text": textSpans(content)},
	}
}

func quoteBlock(content string) map[string]any {
	return map[string]any{
		"object": "block",
		"type":   "quote",
		"quote":  map[string]any{"rich_text": textSpans(content)},
	}
}

func headingBlock(level int, content string) map[string]any {
	key := "heading_2"
	if level == 3 {
		key = "heading_3"
	}
	return map[string]any{
		"object": "block",
		"type":   key,
		key:      map[string]any{"rich_text": textSpans(content)},
	}
}

func toggleBlock(summary string, children []map[string]any) map[string]any {
	return map[string]any{
		"object": "block",
		"type":   "toggle",
		"toggle": map[string]any{
			"rich_text": textSpans(summary),
			"children":  children,
		},
	}
}
