// Package covers resolves book cover image URLs from public web
// services. Lookups are cached by title and author so repeated syncs
// do not hammer the providers; misses are cached too.
package covers

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"
)

// Cache stores resolved cover URLs keyed by "title|author". An empty
// cached value is a remembered miss.
type Cache interface {
	Get(key string) (string, bool)
	Put(key, url string) error
}

// Provider resolves a cover URL from one upstream service. An empty
// URL with a nil error means the service had no match.
type Provider interface {
	Name() string
	CoverURL(ctx context.Context, title, author string) (string, error)
}

// Fetcher tries providers in a script-aware order: Chinese titles hit
// Douban first, everything else starts at OpenLibrary.
type Fetcher struct {
	cache            Cache
	chineseProviders []Provider
	latinProviders   []Provider
}

// NewFetcher creates a fetcher with the default provider chain.
func NewFetcher(cache Cache) *Fetcher {
	douban := NewDoubanProvider()
	google := NewGoogleBooksProvider()
	openLibrary := NewOpenLibraryProvider()

	return &Fetcher{
		cache:            cache,
		chineseProviders: []Provider{douban, google, openLibrary},
		latinProviders:   []Provider{openLibrary, google, douban},
	}
}

// FetchURL resolves a cover URL for a book, consulting the cache first.
// Provider failures degrade to the next provider; a full miss returns
// an empty URL with no error and is cached as such.
func (f *Fetcher) FetchURL(ctx context.Context, title, author string) (string, error) {
	cleaned := CleanTitle(title)
	key := cacheKey(cleaned, author)

	if url, ok := f.cache.Get(key); ok {
		return url, nil
	}

	providers := f.latinProviders
	if hasChinese(cleaned) || hasChinese(author) {
		providers = f.chineseProviders
	}

	var coverURL string
	for _, provider := range providers {
		url, err := provider.CoverURL(ctx, cleaned, author)
		if err != nil {
			log.Printf("Cover lookup: %s failed for %q: %v", provider.Name(), cleaned, err)
			continue
		}
		if url != "" {
			coverURL = url
			break
		}
	}

	if err := f.cache.Put(key, coverURL); err != nil {
		log.Printf("Cover lookup: cache write failed for %q: %v", key, err)
	}
	return coverURL, nil
}

func cacheKey(title, author string) string {
	return title + "|" + author
}

// CleanTitle strips book title marks and quotation marks that hurt
// search relevance, and collapses runs of whitespace.
func CleanTitle(title string) string {
	replacer := strings.NewReplacer(
		"《", "",
		"》", "",
		"“", "",
		"”", "",
		`"`, "",
	)
	cleaned := replacer.Replace(title)
	return strings.Join(strings.Fields(cleaned), " ")
}

// hasChinese reports whether text contains CJK unified ideographs.
func hasChinese(text string) bool {
	for _, r := range text {
		if r >= 0x4e00 && r <= 0x9fff {
			return true
		}
	}
	return false
}

// rateLimiter enforces a minimum interval between provider calls.
type rateLimiter struct {
	mu       sync.Mutex
	lastCall time.Time
	interval time.Duration
}

func newRateLimiter(interval time.Duration) *rateLimiter {
	return &rateLimiter{interval: interval}
}

func (r *rateLimiter) wait() {
	r.mu.Lock()
	defer r.mu.Unlock()

	since := time.Since(r.lastCall)
	if since < r.interval {
		time.Sleep(r.interval - since)
	}
	r.lastCall = time.Now()
}
