package supplier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// RawRecord is one untyped product record as delivered by the supplier
// feed. Field access goes through the transformer's coercion helpers.
type RawRecord map[string]any

// FetcherConfig carries the supplier feed endpoint settings.
type FetcherConfig struct {
	BaseURL     string
	Username    string
	Password    string
	CategoryIDs []int
	Filter      string
	Timeout     time.Duration
}

// Fetcher pages through the supplier's product feed. The first request
// carries the category filter; every following request carries only the
// opaque continuation token from the previous response. Any HTTP or
// decode error aborts the whole fetch.
type Fetcher struct {
	httpClient  *http.Client
	baseURL     string
	username    string
	password    string
	categoryIDs []int
	filter      string
	logger      *zap.Logger
}

// NewFetcher constructs a Fetcher from the configuration.
func NewFetcher(cfg FetcherConfig, logger *zap.Logger) (*Fetcher, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("supplier: base url is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &Fetcher{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     cfg.BaseURL,
		username:    cfg.Username,
		password:    cfg.Password,
		categoryIDs: cfg.CategoryIDs,
		filter:      cfg.Filter,
		logger:      logger.Named("supplier"),
	}, nil
}

type feedPage struct {
	Products []RawRecord `json:"Products"`
	NextPage string      `json:"NextPage"`
}

// FetchAll accumulates every record across all pages before returning.
func (f *Fetcher) FetchAll(ctx context.Context) ([]RawRecord, error) {
	var (
		records []RawRecord
		token   string
		pages   int
	)

	for {
		page, err := f.fetchPage(ctx, token)
		if err != nil {
			return nil, err
		}
		pages++
		records = append(records, page.Products...)

		if page.NextPage == "" {
			break
		}
		token = page.NextPage
	}

	f.logger.Info("feed fetched",
		zap.Int("pages", pages),
		zap.Int("records", len(records)))
	return records, nil
}

func (f *Fetcher) fetchPage(ctx context.Context, token string) (feedPage, error) {
	var body map[string]any
	if token == "" {
		body = map[string]any{
			"Include":     "All",
			"Filter":      []string{f.filter},
			"CategoryIds": f.categoryIDs,
		}
	} else {
		body = map[string]any{"NextPage": token}
	}

	encoded, err := json.Marshal(body)
	if err != nil {
		return feedPage{}, fmt.Errorf("supplier: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.baseURL, bytes.NewReader(encoded))
	if err != nil {
		return feedPage{}, fmt.Errorf("supplier: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(f.username, f.password)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return feedPage{}, fmt.Errorf("supplier: fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return feedPage{}, fmt.Errorf("supplier: feed returned status %d", resp.StatusCode)
	}

	var page feedPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return feedPage{}, fmt.Errorf("supplier: decode page: %w", err)
	}
	return page, nil
}
