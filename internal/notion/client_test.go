package notion

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(server *httptest.Server) *Client {
	client := NewClient("secret-token")
	client.baseURL = server.URL
	return client
}

func TestClient_SetsAuthAndVersionHeaders(t *testing.T) {
	var gotAuth, gotVersion string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotVersion = r.Header.Get("Notion-Version")
		_ = json.NewEncoder(w).Encode(QueryResponse{})
	}))
	defer server.Close()

	client := newTestClient(server)
	if _, err := client.QueryDatabase(context.Background(), "db", nil, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer secret-token" {
		t.Errorf("unexpected auth header: %q", gotAuth)
	}
	if gotVersion != apiVersion {
		t.Errorf("unexpected version header: %q", gotVersion)
	}
}

func TestClient_InvalidTokenNotRetried(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestClient(server)
	_, err := client.QueryDatabase(context.Background(), "db", nil, "")
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if requests != 1 {
		t.Errorf("expected 1 request, got %d", requests)
	}
}

func TestClient_RetriesRateLimit(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_ = json.NewEncoder(w).Encode(QueryResponse{Results: []Page{{ID: "page-1"}}})
	}))
	defer server.Close()

	client := newTestClient(server)
	resp, err := client.QueryDatabase(context.Background(), "db", nil, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if requests != 2 {
		t.Errorf("expected 2 requests, got %d", requests)
	}
	if len(resp.Results) != 1 || resp.Results[0].ID != "page-1" {
		t.Errorf("unexpected results: %+v", resp.Results)
	}
}

func TestClient_RetriesServerError(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(Page{ID: "created"})
	}))
	defer server.Close()

	client := newTestClient(server)
	id, err := client.CreatePage(context.Background(), CreatePageParams{DatabaseID: "db", Properties: map[string]any{}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "created" {
		t.Errorf("unexpected page id: %q", id)
	}
	if requests != 3 {
		t.Errorf("expected 3 requests, got %d", requests)
	}
}

func TestClient_GivesUpAfterMaxRetries(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server)
	_, err := client.QueryDatabase(context.Background(), "db", nil, "")
	if err == nil {
		t.Fatal("expected error")
	}
	var serverErr *ServerError
	if !errors.As(err, &serverErr) {
		t.Errorf("expected wrapped ServerError, got %v", err)
	}
	if requests != maxRetries {
		t.Errorf("expected %d requests, got %d", maxRetries, requests)
	}
}

func TestClient_ClientErrorNotRetried(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"validation failed"}`))
	}))
	defer server.Close()

	client := newTestClient(server)
	_, err := client.QueryDatabase(context.Background(), "db", nil, "")
	if err == nil {
		t.Fatal("expected error")
	}
	if requests != 1 {
		t.Errorf("expected 1 request, got %d", requests)
	}
}

func TestClient_QueryPayload(t *testing.T) {
	var payload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/databases/db-id/query" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&payload)
		_ = json.NewEncoder(w).Encode(QueryResponse{})
	}))
	defer server.Close()

	client := newTestClient(server)
	filter := map[string]any{"property": "Name", "title": map[string]any{"equals": "Book"}}
	if _, err := client.QueryDatabase(context.Background(), "db-id", filter, "cursor-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if payload["page_size"].(float64) != defaultPageSize {
		t.Errorf("unexpected page_size: %v", payload["page_size"])
	}
	if payload["start_cursor"] != "cursor-1" {
		t.Errorf("unexpected start_cursor: %v", payload["start_cursor"])
	}
	if _, ok := payload["filter"]; !ok {
		t.Error("filter missing from payload")
	}
}

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		header   string
		expected time.Duration
	}{
		{"2", 2 * time.Second},
		{"0", 0},
		{"", 0},
		{"garbage", 0},
		{"-5", 0},
	}
	for _, tt := range tests {
		if got := parseRetryAfter(tt.header); got != tt.expected {
			t.Errorf("parseRetryAfter(%q) = %v, expected %v", tt.header, got, tt.expected)
		}
	}
}
