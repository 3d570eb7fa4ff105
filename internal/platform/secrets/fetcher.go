package secrets

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	defaultEnvironment  = "local"
	defaultFallbackFile = ".secrets.local"
	meterName           = "github.com/aurelia-jewels/api/internal/platform/secrets"
)

var newSecretManagerClient = func(ctx context.Context, opts ...option.ClientOption) (*secretmanager.Client, error) {
	return secretmanager.NewClient(ctx, opts...)
}

// accessClient is the slice of the Secret Manager client the fetcher
// needs; tests substitute it.
type accessClient interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
	Close() error
}

// Fetcher resolves secret:// references against Google Secret Manager,
// caching resolved values and falling back to a local key=value file
// when the backend is unreachable or unauthorized.
type Fetcher struct {
	client     accessClient
	ownsClient bool
	logger     *zap.Logger

	env         string
	projectID   string
	projectMap  map[string]string
	versionPins map[string]string

	fallbackPath string
	fallbackOnce sync.Once
	fallback     map[string]string
	fallbackErr  error

	clientOpts []option.ClientOption
	meter      metric.Meter

	mu    sync.RWMutex
	cache map[string]string

	latency   metric.Float64Histogram
	cacheHits metric.Int64Counter
}

// Option customizes Fetcher construction.
type Option func(*Fetcher)

// WithLogger sets the diagnostic logger.
func WithLogger(logger *zap.Logger) Option {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithEnvironment selects the environment key for per-environment
// project lookups and version pins.
func WithEnvironment(env string) Option {
	return func(f *Fetcher) {
		f.env = strings.ToLower(strings.TrimSpace(env))
	}
}

// WithDefaultProject sets the project used when no environment mapping
// or per-reference override applies.
func WithDefaultProject(projectID string) Option {
	return func(f *Fetcher) { f.projectID = strings.TrimSpace(projectID) }
}

// WithProjectMap supplies per-environment project ids.
func WithProjectMap(m map[string]string) Option {
	return func(f *Fetcher) { f.projectMap = cloneMap(m) }
}

// WithVersionPins pins secret versions, keyed by canonical reference or
// "env:reference".
func WithVersionPins(pins map[string]string) Option {
	return func(f *Fetcher) { f.versionPins = cloneMap(pins) }
}

// WithFallbackFile overrides the local fallback file path.
func WithFallbackFile(path string) Option {
	return func(f *Fetcher) { f.fallbackPath = strings.TrimSpace(path) }
}

// WithClient injects a preconfigured Secret Manager client.
func WithClient(client accessClient) Option {
	return func(f *Fetcher) { f.client = client }
}

// WithClientOptions forwards options to the Secret Manager client dial.
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(f *Fetcher) { f.clientOpts = append(f.clientOpts, opts...) }
}

// WithMeter injects an OpenTelemetry meter.
func WithMeter(m metric.Meter) Option {
	return func(f *Fetcher) { f.meter = m }
}

// NewFetcher builds a Fetcher. A failed client dial is not fatal: the
// fetcher then serves exclusively from the fallback file.
func NewFetcher(ctx context.Context, opts ...Option) (*Fetcher, error) {
	f := &Fetcher{
		logger:       zap.NewNop(),
		env:          strings.ToLower(strings.TrimSpace(os.Getenv("API_SECURITY_ENVIRONMENT"))),
		projectMap:   map[string]string{},
		versionPins:  map[string]string{},
		fallbackPath: defaultFallbackFile,
		cache:        make(map[string]string),
	}
	if f.env == "" {
		f.env = defaultEnvironment
	}
	for _, opt := range opts {
		opt(f)
	}

	meter := f.meter
	if meter == nil {
		meter = otel.GetMeterProvider().Meter(meterName)
	}
	if latency, err := meter.Float64Histogram(
		"secrets.fetch.latency",
		metric.WithUnit("ms"),
		metric.WithDescription("Latency of secret fetch attempts"),
	); err == nil {
		f.latency = latency
	} else {
		f.logger.Warn("secrets: latency metric unavailable", zap.Error(err))
	}
	if hits, err := meter.Int64Counter(
		"secrets.fetch.cache_hits",
		metric.WithDescription("Cache hits while resolving secrets"),
	); err == nil {
		f.cacheHits = hits
	} else {
		f.logger.Warn("secrets: cache hit metric unavailable", zap.Error(err))
	}

	if f.client == nil {
		client, err := newSecretManagerClient(ctx, f.clientOpts...)
		if err != nil {
			f.logger.Warn("secrets: secret manager unavailable, using fallback file only", zap.Error(err))
		} else {
			f.client = client
			f.ownsClient = true
		}
	}
	return f, nil
}

// Close releases the Secret Manager client when the fetcher owns it.
func (f *Fetcher) Close() error {
	if f.ownsClient && f.client != nil {
		return f.client.Close()
	}
	return nil
}

// Resolve returns the value behind a secret:// reference. Resolution
// order: cache, Secret Manager, fallback file. Backend errors that do
// not indicate unavailability or missing access fail the resolve
// outright rather than masking a misconfiguration with stale local
// values.
func (f *Fetcher) Resolve(ctx context.Context, ref string) (string, error) {
	start := time.Now()
	parsed, err := parseReference(ref)
	if err != nil {
		return "", err
	}

	version := f.pinnedVersion(parsed)
	key := parsed.Canonical + "#" + version

	f.mu.RLock()
	cached, hit := f.cache[key]
	f.mu.RUnlock()
	if hit {
		if f.cacheHits != nil {
			f.cacheHits.Add(ctx, 1, metric.WithAttributes(
				attribute.String("secret", maskReference(parsed.Canonical))))
		}
		f.observe(ctx, start, "cache", nil)
		return cached, nil
	}

	projectID := f.resolveProject(parsed)
	if projectID != "" && f.client != nil {
		value, fetchErr := f.access(ctx, projectID, parsed.Secret, version)
		if fetchErr == nil {
			f.store(key, value)
			f.observe(ctx, start, "remote", nil)
			return value, nil
		}
		if !fallbackEligible(fetchErr) {
			f.observe(ctx, start, "error", fetchErr)
			return "", fmt.Errorf("secrets: fetch failed for %s: %w", parsed.Canonical, fetchErr)
		}
		f.logger.Debug("secrets: falling back to local file",
			zap.String("ref", parsed.Canonical), zap.Error(fetchErr))
	}

	value, ok := f.fromFallback(parsed, version)
	if !ok {
		err := fmt.Errorf("secrets: fallback value not found for %s", parsed.Canonical)
		f.observe(ctx, start, "error", err)
		return "", err
	}
	f.store(key, value)
	f.observe(ctx, start, "fallback", nil)
	return value, nil
}

// Invalidate drops cached values for the reference so the next Resolve
// refetches, typically after a rotation.
func (f *Fetcher) Invalidate(ref string) {
	parsed, err := parseReference(ref)
	if err != nil {
		return
	}
	prefix := parsed.Canonical + "#"
	f.mu.Lock()
	for key := range f.cache {
		if strings.HasPrefix(key, prefix) {
			delete(f.cache, key)
		}
	}
	f.mu.Unlock()
}

func (f *Fetcher) store(key, value string) {
	f.mu.Lock()
	f.cache[key] = value
	f.mu.Unlock()
}

func (f *Fetcher) access(ctx context.Context, projectID, name, version string) (string, error) {
	resource := fmt.Sprintf("projects/%s/secrets/%s/versions/%s", projectID, name, version)
	resp, err := f.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: resource})
	if err != nil {
		return "", err
	}
	if resp == nil || resp.Payload == nil {
		return "", fmt.Errorf("secret manager returned empty payload for %s", resource)
	}
	return string(resp.Payload.GetData()), nil
}

func (f *Fetcher) resolveProject(ref reference) string {
	if ref.Project != "" {
		return ref.Project
	}
	if id := strings.TrimSpace(f.projectMap[f.env]); id != "" {
		return id
	}
	return f.projectID
}

func (f *Fetcher) pinnedVersion(ref reference) string {
	if ref.Version != "" {
		return ref.Version
	}
	if pin := strings.TrimSpace(f.versionPins[f.env+":"+ref.Canonical]); pin != "" {
		return pin
	}
	if pin := strings.TrimSpace(f.versionPins[ref.Canonical]); pin != "" {
		return pin
	}
	return "latest"
}

func (f *Fetcher) fromFallback(ref reference, version string) (string, bool) {
	f.fallbackOnce.Do(f.loadFallback)
	if f.fallbackErr != nil {
		f.logger.Debug("secrets: fallback file unreadable", zap.Error(f.fallbackErr))
		return "", false
	}
	if value, ok := f.fallback[ref.Canonical+"#"+version]; ok {
		return value, true
	}
	value, ok := f.fallback[ref.Canonical]
	return value, ok
}

// The fallback file holds "reference=value" lines. References may use
// the legacy sm:// scheme, which normalizes to secret://.
func (f *Fetcher) loadFallback() {
	f.fallback = map[string]string{}
	path := f.fallbackPath
	if path == "" {
		return
	}

	file, err := os.Open(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			f.fallbackErr = fmt.Errorf("secrets: open fallback file %s: %w", path, err)
		}
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" {
			continue
		}
		if legacy, ok := strings.CutPrefix(key, "sm://"); ok {
			key = "secret://" + legacy
		}
		parsed, err := parseReference(key)
		if err != nil {
			f.fallback[key] = value
			continue
		}
		version := parsed.Version
		if version == "" {
			version = "latest"
		}
		f.fallback[parsed.Canonical] = value
		f.fallback[parsed.Canonical+"#"+version] = value
	}
	if err := scanner.Err(); err != nil {
		f.fallbackErr = fmt.Errorf("secrets: read fallback file %s: %w", path, err)
	}
}

func (f *Fetcher) observe(ctx context.Context, start time.Time, source string, err error) {
	if f.latency == nil {
		return
	}
	attrs := []attribute.KeyValue{attribute.String("source", source)}
	if err != nil {
		attrs = append(attrs, attribute.String("error", err.Error()))
	}
	f.latency.Record(ctx, float64(time.Since(start))/float64(time.Millisecond),
		metric.WithAttributes(attrs...))
}

// reference is one parsed secret:// URI. Query parameters may override
// the version and project.
type reference struct {
	Canonical string
	Secret    string
	Version   string
	Project   string
}

func parseReference(ref string) (reference, error) {
	if strings.TrimSpace(ref) == "" {
		return reference{}, errors.New("secrets: empty reference")
	}
	u, err := url.Parse(ref)
	if err != nil {
		return reference{}, fmt.Errorf("secrets: invalid reference %q: %w", ref, err)
	}
	if u.Scheme != "secret" {
		return reference{}, fmt.Errorf("secrets: unsupported scheme %q", u.Scheme)
	}
	name := strings.Trim(strings.TrimPrefix(u.Host+u.Path, "/"), "/")
	if name == "" {
		return reference{}, fmt.Errorf("secrets: missing secret name in %q", ref)
	}

	canonical := *u
	canonical.RawQuery = ""
	canonical.Fragment = ""

	query := u.Query()
	return reference{
		Canonical: canonical.String(),
		Secret:    name,
		Version:   strings.TrimSpace(query.Get("version")),
		Project:   strings.TrimSpace(query.Get("project")),
	}, nil
}

// Secret names are hashed before being attached to metrics so metric
// labels never enumerate the secret inventory.
func maskReference(ref string) string {
	sum := sha256.Sum256([]byte(ref))
	return hex.EncodeToString(sum[:8])
}

func fallbackEligible(err error) bool {
	switch status.Code(err) {
	case codes.PermissionDenied, codes.Unauthenticated, codes.Unavailable, codes.DeadlineExceeded:
		return true
	default:
		return false
	}
}

func cloneMap(src map[string]string) map[string]string {
	dst := make(map[string]string, len(src))
	for key, value := range src {
		dst[key] = value
	}
	return dst
}
