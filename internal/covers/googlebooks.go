package covers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// GoogleBooksProvider queries the Google Books volumes API, refining by
// author first and falling back to a bare title search.
type GoogleBooksProvider struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rateLimiter
}

func NewGoogleBooksProvider() *GoogleBooksProvider {
	return &GoogleBooksProvider{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: "https://www.googleapis.com/books/v1",
		limiter: newRateLimiter(time.Second),
	}
}

func (p *GoogleBooksProvider) Name() string { return "googlebooks" }

// imageSizes in preference order, largest first.
var imageSizes = []string{"extraLarge", "large", "medium", "thumbnail", "smallThumbnail"}

type googleVolumesResult struct {
	Items []struct {
		VolumeInfo struct {
			ImageLinks map[string]string `json:"imageLinks"`
		} `json:"volumeInfo"`
	} `json:"items"`
}

func (p *GoogleBooksProvider) CoverURL(ctx context.Context, title, author string) (string, error) {
	var queries []string
	if author != "" {
		queries = append(queries, title+" inauthor:"+author)
	}
	queries = append(queries, title)

	var lastErr error
	for _, q := range queries {
		coverURL, err := p.search(ctx, q)
		if err != nil {
			lastErr = err
			continue
		}
		if coverURL != "" {
			return coverURL, nil
		}
	}
	return "", lastErr
}

func (p *GoogleBooksProvider) search(ctx context.Context, query string) (string, error) {
	p.limiter.wait()

	params := url.Values{"q": {query}, "maxResults": {"1"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/volumes?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("search volumes: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var result googleVolumesResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode volumes response: %w", err)
	}
	if len(result.Items) == 0 {
		return "", nil
	}

	links := result.Items[0].VolumeInfo.ImageLinks
	for _, size := range imageSizes {
		if coverURL, ok := links[size]; ok && coverURL != "" {
			// Google Books serves http links by default.
			if strings.HasPrefix(coverURL, "http://") {
				coverURL = "https://" + strings.TrimPrefix(coverURL, "http://")
			}
			return coverURL, nil
		}
	}
	return "", nil
}
