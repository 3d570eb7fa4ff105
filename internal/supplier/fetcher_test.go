package supplier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetchAllPagesUntilEmptyToken(t *testing.T) {
	var requests []map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok || username != "feed-user" || password != "feed-pass" {
			t.Errorf("missing or wrong basic auth: %q/%q", username, password)
		}

		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		requests = append(requests, body)

		switch len(requests) {
		case 1:
			_ = json.NewEncoder(w).Encode(feedPage{
				Products: []RawRecord{{"SKU": "A"}, {"SKU": "B"}},
				NextPage: "token-2",
			})
		case 2:
			_ = json.NewEncoder(w).Encode(feedPage{
				Products: []RawRecord{{"SKU": "C"}},
			})
		default:
			t.Error("unexpected extra page request")
		}
	}))
	defer server.Close()

	fetcher, err := NewFetcher(FetcherConfig{
		BaseURL:     server.URL,
		Username:    "feed-user",
		Password:    "feed-pass",
		CategoryIDs: []int{100, 200},
		Filter:      "Finished",
	}, nil)
	if err != nil {
		t.Fatalf("NewFetcher: %v", err)
	}

	records, err := fetcher.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}

	if len(requests) != 2 {
		t.Fatalf("expected 2 page requests, got %d", len(requests))
	}
	first := requests[0]
	if first["Include"] != "All" {
		t.Fatalf("first request must carry the full filter, got %+v", first)
	}
	if _, ok := first["NextPage"]; ok {
		t.Fatal("first request must not carry a continuation token")
	}
	second := requests[1]
	if second["NextPage"] != "token-2" {
		t.Fatalf("second request must carry only the token, got %+v", second)
	}
	if _, ok := second["CategoryIds"]; ok {
		t.Fatal("continuation request must not repeat the category filter")
	}
}

func TestFetchAllPropagatesHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broken", http.StatusBadGateway)
	}))
	defer server.Close()

	fetcher, err := NewFetcher(FetcherConfig{BaseURL: server.URL}, nil)
	if err != nil {
		t.Fatalf("NewFetcher: %v", err)
	}

	if _, err := fetcher.FetchAll(context.Background()); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}

func TestNewFetcherRequiresBaseURL(t *testing.T) {
	if _, err := NewFetcher(FetcherConfig{}, nil); err == nil {
		t.Fatal("expected error for missing base url")
	}
}
