package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, endpoint string, retryMax int) *Client {
	t.Helper()
	client, err := NewClient(ClientConfig{
		Endpoint:       endpoint,
		AccessToken:    "shptoken",
		RequestsPerSec: 1000,
		Burst:          1000,
		RetryMax:       retryMax,
		RetryBaseDelay: time.Millisecond,
	}, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestExecuteReturnsDataOnSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Access-Token"); got != "shptoken" {
			t.Errorf("expected access token header, got %q", got)
		}
		var req struct {
			Query     string         `json:"query"`
			Variables map[string]any `json:"variables"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Query == "" {
			t.Error("expected query in request body")
		}
		_, _ = w.Write([]byte(`{"data":{"shop":{"name":"aurelia"}}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 0)
	resp, err := client.Execute(context.Background(), `query { shop { name } }`, map[string]any{"x": 1})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !resp.Success {
		t.Fatalf("expected success, got errors %v", resp.Errors)
	}
	var data struct {
		Shop struct {
			Name string `json:"name"`
		} `json:"shop"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data.Shop.Name != "aurelia" {
		t.Fatalf("unexpected data %+v", data)
	}
}

func TestExecuteGraphQLErrorsDoNotFail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errors":[{"message":"field missing"},{"message":"bad id"}]}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 0)
	resp, err := client.Execute(context.Background(), `mutation {}`, nil)
	if err != nil {
		t.Fatalf("graphql errors must not surface as transport errors: %v", err)
	}
	if resp.Success {
		t.Fatal("expected success false")
	}
	if len(resp.Errors) != 2 {
		t.Fatalf("expected 2 error messages, got %v", resp.Errors)
	}
	if resp.Err("testOp") == nil {
		t.Fatal("expected condensed error from Err")
	}
}

func TestExecuteRetriesThrottling(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		switch calls {
		case 1:
			w.WriteHeader(http.StatusTooManyRequests)
		case 2:
			_, _ = w.Write([]byte(`{"errors":[{"message":"slow down","extensions":{"code":"THROTTLED"}}]}`))
		default:
			_, _ = w.Write([]byte(`{"data":{"ok":true}}`))
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 4)
	resp, err := client.Execute(context.Background(), `query {}`, nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !resp.Success {
		t.Fatalf("expected success after retries, got %v", resp.Errors)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestExecuteGivesUpAfterRetryBudget(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 2)
	_, err := client.Execute(context.Background(), `query {}`, nil)
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected transport error after exhausting retries, got %v", err)
	}
}

func TestExecuteNonSuccessStatusIsTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 0)
	_, err := client.Execute(context.Background(), `query {}`, nil)
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
}
