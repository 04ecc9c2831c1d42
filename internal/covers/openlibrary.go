package covers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// OpenLibraryProvider derives cover URLs from the OpenLibrary search
// API, preferring ISBN-keyed covers, then edition OLIDs, then raw cover
// IDs.
type OpenLibraryProvider struct {
	httpClient    *http.Client
	baseURL       string
	coversBaseURL string
	limiter       *rateLimiter
}

func NewOpenLibraryProvider() *OpenLibraryProvider {
	return &OpenLibraryProvider{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL:       "https://openlibrary.org",
		coversBaseURL: "https://covers.openlibrary.org",
		limiter:       newRateLimiter(time.Second),
	}
}

func (p *OpenLibraryProvider) Name() string { return "openlibrary" }

type openLibrarySearchResult struct {
	Docs []openLibraryDoc `json:"docs"`
}

type openLibraryDoc struct {
	ISBN       []string `json:"isbn"`
	EditionKey []string `json:"edition_key"`
	CoverID    int      `json:"cover_i"`
}

func (p *OpenLibraryProvider) CoverURL(ctx context.Context, title, author string) (string, error) {
	p.limiter.wait()

	query := url.Values{"title": {title}}
	if author != "" {
		query.Set("author", author)
	}

	searchURL := p.baseURL + "/search.json?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("search books: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var result openLibrarySearchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode search response: %w", err)
	}
	if len(result.Docs) == 0 {
		return "", nil
	}

	doc := result.Docs[0]
	switch {
	case len(doc.ISBN) > 0:
		return fmt.Sprintf("%s/b/isbn/%s-L.jpg", p.coversBaseURL, doc.ISBN[0]), nil
	case len(doc.EditionKey) > 0:
		return fmt.Sprintf("%s/b/olid/%s-L.jpg", p.coversBaseURL, doc.EditionKey[0]), nil
	case doc.CoverID != 0:
		return fmt.Sprintf("%s/b/id/%d-L.jpg", p.coversBaseURL, doc.CoverID), nil
	}
	return "", nil
}
