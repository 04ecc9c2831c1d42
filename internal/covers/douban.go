package covers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/118.0 Safari/537.36"

// DoubanProvider scrapes the Douban book search for a subject page and
// extracts its cover image. Douban has the best coverage for Chinese
// titles but no public API, so this works off the HTML.
type DoubanProvider struct {
	httpClient    *http.Client
	searchBaseURL string
	detailBaseURL string
	limiter       *rateLimiter
}

func NewDoubanProvider() *DoubanProvider {
	return &DoubanProvider{
		httpClient: &http.Client{
			Timeout: 12 * time.Second,
		},
		searchBaseURL: "https://search.douban.com",
		detailBaseURL: "https://book.douban.com",
		limiter:       newRateLimiter(time.Second),
	}
}

func (p *DoubanProvider) Name() string { return "douban" }

var (
	subjectLinkRe = regexp.MustCompile(`href="([^"]*/subject/\d+[^"]*)"`)
	ogImageRe     = regexp.MustCompile(`<meta[^>]+property="og:image"[^>]+content="([^"]+)"`)
	ogImageAltRe  = regexp.MustCompile(`<meta[^>]+content="([^"]+)"[^>]+property="og:image"`)
	mainpicRe     = regexp.MustCompile(`<img[^>]+id="mainpic"[^>]+src="([^"]+)"`)
)

func (p *DoubanProvider) CoverURL(ctx context.Context, title, author string) (string, error) {
	searchQuery := title
	if author != "" {
		searchQuery = title + " " + author
	}

	searchURL := p.searchBaseURL + "/book/subject_search?search_text=" + url.QueryEscape(searchQuery)
	searchHTML, err := p.fetch(ctx, searchURL)
	if err != nil {
		return "", err
	}

	match := subjectLinkRe.FindStringSubmatch(searchHTML)
	if match == nil {
		return "", nil
	}
	detailURL := p.normalizeDetailURL(match[1])

	detailHTML, err := p.fetch(ctx, detailURL)
	if err != nil {
		return "", err
	}

	for _, re := range []*regexp.Regexp{ogImageRe, ogImageAltRe, mainpicRe} {
		if m := re.FindStringSubmatch(detailHTML); m != nil {
			return m[1], nil
		}
	}
	return "", nil
}

func (p *DoubanProvider) fetch(ctx context.Context, target string) (string, error) {
	p.limiter.wait()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read page: %w", err)
	}
	return string(data), nil
}

func (p *DoubanProvider) normalizeDetailURL(href string) string {
	switch {
	case strings.HasPrefix(href, "//"):
		return "https:" + href
	case strings.HasPrefix(href, "/"):
		return p.detailBaseURL + href
	case !strings.HasPrefix(href, "http"):
		return p.detailBaseURL + "/" + href
	}
	return href
}
