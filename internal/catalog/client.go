package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const accessTokenHeader = "X-Access-Token"

// ErrTransport is wrapped by errors reported for failed HTTP exchanges
// with the catalog endpoint, as opposed to GraphQL-level errors which
// surface through Response.Success.
var ErrTransport = errors.New("catalog: transport failure")

// Response is the uniform envelope returned by Execute. A false Success
// carries the GraphQL error messages; callers branch on the flag.
type Response struct {
	Success bool
	Data    json.RawMessage
	Errors  []string
}

// Err condenses the error messages into a single error, or nil when the
// response succeeded.
func (r Response) Err(operation string) error {
	if r.Success {
		return nil
	}
	return fmt.Errorf("catalog: %s: %s", operation, strings.Join(r.Errors, "; "))
}

// ClientConfig carries the settings needed to reach the catalog API.
type ClientConfig struct {
	Endpoint       string
	AccessToken    string
	Timeout        time.Duration
	RequestsPerSec float64
	Burst          int
	RetryMax       int
	RetryBaseDelay time.Duration

	FilePollAttempts int
	FilePollBase     time.Duration
}

// Client issues GraphQL operations against the remote commerce catalog.
// Calls are rate limited and throttled responses are retried with
// bounded exponential backoff before failing.
type Client struct {
	httpClient *http.Client
	endpoint   string
	token      string
	limiter    *rate.Limiter
	retryMax   int
	retryBase  time.Duration
	logger     *zap.Logger

	filePollAttempts int
	filePollBase     time.Duration
}

// NewClient constructs a Client from the configuration.
func NewClient(cfg ClientConfig, logger *zap.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, errors.New("catalog: endpoint is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = 2
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	retryBase := cfg.RetryBaseDelay
	if retryBase <= 0 {
		retryBase = 500 * time.Millisecond
	}
	pollAttempts := cfg.FilePollAttempts
	if pollAttempts <= 0 {
		pollAttempts = 6
	}
	pollBase := cfg.FilePollBase
	if pollBase <= 0 {
		pollBase = time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   cfg.Endpoint,
		token:      cfg.AccessToken,
		limiter:    rate.NewLimiter(rate.Limit(rps), burst),
		retryMax:   cfg.RetryMax,
		retryBase:  retryBase,
		logger:     logger.Named("catalog"),

		filePollAttempts: pollAttempts,
		filePollBase:     pollBase,
	}, nil
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlError struct {
	Message    string `json:"message"`
	Extensions struct {
		Code string `json:"code"`
	} `json:"extensions"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors"`
}

// Execute posts the operation and returns the normalized envelope.
// Transport failures return an error; GraphQL-level errors return a
// Response with Success false and never an error.
func (c *Client) Execute(ctx context.Context, query string, variables map[string]any) (Response, error) {
	body, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return Response{}, fmt.Errorf("catalog: encode request: %w", err)
	}

	attempts := c.retryMax + 1
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := c.retryBase << (attempt - 1)
			c.logger.Warn("throttled, backing off",
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay))
			select {
			case <-ctx.Done():
				return Response{}, ctx.Err()
			case <-time.After(delay):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return Response{}, err
		}

		resp, throttled, err := c.post(ctx, body)
		if err != nil {
			return Response{}, err
		}
		if throttled {
			lastErr = fmt.Errorf("%w: throttled by remote", ErrTransport)
			continue
		}
		return resp, nil
	}
	return Response{}, lastErr
}

func (c *Client) post(ctx context.Context, body []byte) (Response, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Response{}, false, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set(accessTokenHeader, c.token)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, false, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode == http.StatusTooManyRequests {
		_, _ = io.Copy(io.Discard, httpResp.Body)
		return Response{}, true, nil
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return Response{}, false, fmt.Errorf("%w: status %d", ErrTransport, httpResp.StatusCode)
	}

	payload, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return Response{}, false, fmt.Errorf("%w: read body: %v", ErrTransport, err)
	}

	var parsed graphqlResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return Response{}, false, fmt.Errorf("%w: decode body: %v", ErrTransport, err)
	}

	if len(parsed.Errors) > 0 {
		messages := make([]string, 0, len(parsed.Errors))
		throttled := false
		for _, gqlErr := range parsed.Errors {
			messages = append(messages, gqlErr.Message)
			if strings.EqualFold(gqlErr.Extensions.Code, "THROTTLED") {
				throttled = true
			}
		}
		if throttled {
			return Response{}, true, nil
		}
		return Response{Success: false, Errors: messages}, false, nil
	}

	return Response{Success: true, Data: parsed.Data}, false, nil
}
