// Package notion implements the subset of the Notion REST API this tool
// writes through: database queries, page upserts and block manipulation,
// plus the book/note/daily repositories built on top of them.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	apiBaseURL = "https://api.notion.com/v1"
	apiVersion = "2022-06-28"

	defaultTimeout     = 30 * time.Second
	defaultPageSize    = 100
	maxRetries         = 3
	initialRetryDelay  = 1 * time.Second
	maxRetryDelay      = 30 * time.Second
	retryBackoffFactor = 2
)

// Client interfaces with the Notion REST API
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewClient creates a new Notion API client
func NewClient(token string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		baseURL: apiBaseURL,
		token:   token,
	}
}

// Page is a page reference returned by query and create operations
type Page struct {
	ID string `json:"id"`
}

// Block is a block reference returned by child listings
type Block struct {
	ID string `json:"id"`
}

// QueryResponse is one page of database query results
type QueryResponse struct {
	Results    []Page  `json:"results"`
	HasMore    bool    `json:"has_more"`
	NextCursor *string `json:"next_cursor"`
}

// BlockChildrenResponse is one page of block children
type BlockChildrenResponse struct {
	Results    []Block `json:"results"`
	HasMore    bool    `json:"has_more"`
	NextCursor *string `json:"next_cursor"`
}

// QueryDatabase runs a filtered query against a database, returning a
// single page of results.
func (c *Client) QueryDatabase(ctx context.Context, databaseID string, filter map[string]any, startCursor string) (*QueryResponse, error) {
	payload := map[string]any{"page_size": defaultPageSize}
	if filter != nil {
		payload["filter"] = filter
	}
	if startCursor != "" {
		payload["start_cursor"] = startCursor
	}

	var resp QueryResponse
	if err := c.request(ctx, http.MethodPost, "databases/"+databaseID+"/query", payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreatePageParams describes a page creation request.
type CreatePageParams struct {
	DatabaseID string
	Properties map[string]any
	Children   []map[string]any
	Cover      map[string]any
	Icon       map[string]any
}

// CreatePage creates a page in a database and returns its ID.
func (c *Client) CreatePage(ctx context.Context, params CreatePageParams) (string, error) {
	payload := map[string]any{
		"parent":     map[string]any{"database_id": params.DatabaseID},
		"properties": params.Properties,
	}
	if len(params.Children) > 0 {
		payload["children"] = params.Children
	}
	if params.Cover != nil {
		payload["cover"] = params.Cover
	}
	if params.Icon != nil {
		payload["icon"] = params.Icon
	}

	var page Page
	if err := c.request(ctx, http.MethodPost, "pages", payload, &page); err != nil {
		return "", err
	}
	return page.ID, nil
}

// UpdatePage patches page properties and, optionally, its cover.
func (c *Client) UpdatePage(ctx context.Context, pageID string, properties map[string]any, cover map[string]any) error {
	payload := map[string]any{}
	if properties != nil {
		payload["properties"] = properties
	}
	if cover != nil {
		payload["cover"] = cover
	}
	return c.request(ctx, http.MethodPatch, "pages/"+pageID, payload, nil)
}

// ListBlockChildren returns one page of a block's children.
func (c *Client) ListBlockChildren(ctx context.Context, blockID, startCursor string) (*BlockChildrenResponse, error) {
	path := "blocks/" + blockID + "/children?page_size=" + strconv.Itoa(defaultPageSize)
	if startCursor != "" {
		path += "&start_cursor=" + startCursor
	}

	var resp BlockChildrenResponse
	if err := c.request(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AppendBlockChildren appends child blocks to a page or block.
func (c *Client) AppendBlockChildren(ctx context.Context, blockID string, children []map[string]any) error {
	payload := map[string]any{"children": children}
	return c.request(ctx, http.MethodPatch, "blocks/"+blockID+"/children", payload, nil)
}

// DeleteBlock archives a block.
func (c *Client) DeleteBlock(ctx context.Context, blockID string) error {
	return c.request(ctx, http.MethodDelete, "blocks/"+blockID, nil, nil)
}

// request performs one API call with retries. Rate limits honor the
// server-provided Retry-After; server errors back off exponentially.
func (c *Client) request(ctx context.Context, method, path string, payload any, out any) error {
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			delay := retryDelay(attempt, lastErr)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		lastErr = c.do(ctx, method, path, payload, out)
		if lastErr == nil {
			return nil
		}
		if !isRetryableError(lastErr) {
			return lastErr
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (c *Client) do(ctx context.Context, method, path string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	url := c.baseURL + "/" + strings.TrimPrefix(path, "/")
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", apiVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrInvalidToken
	case resp.StatusCode == http.StatusTooManyRequests:
		return &RateLimitError{RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
	case resp.StatusCode >= 500:
		return &ServerError{StatusCode: resp.StatusCode}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("notion API error %d: %s", resp.StatusCode, string(data))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func retryDelay(attempt int, err error) time.Duration {
	var rateLimited *RateLimitError
	if errors.As(err, &rateLimited) && rateLimited.RetryAfter > 0 {
		return rateLimited.RetryAfter
	}

	delay := initialRetryDelay
	for i := 1; i < attempt; i++ {
		delay *= time.Duration(retryBackoffFactor)
	}
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}
	return delay
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func isRetryableError(err error) bool {
	var rateLimited *RateLimitError
	if errors.As(err, &rateLimited) {
		return true
	}
	var serverErr *ServerError
	return errors.As(err, &serverErr)
}
