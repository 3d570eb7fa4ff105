package config

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	defaultEnvFile      = ".env"
	defaultPort         = "8080"
	defaultReadTimeout  = 15 * time.Second
	defaultWriteTimeout = 30 * time.Second
	defaultIdleTimeout  = 120 * time.Second

	defaultDatabaseHost     = "localhost"
	defaultDatabasePort     = 5432
	defaultDatabaseName     = "aurelia"
	defaultDatabaseSSLMode  = "disable"
	defaultDatabaseMaxConns = 10

	defaultSupplierPageFilter = "Finished"
	defaultSupplierTimeout    = 90 * time.Second

	defaultCatalogTimeout          = 30 * time.Second
	defaultCatalogRequestsPerSec   = 2.0
	defaultCatalogBurst            = 4
	defaultCatalogRetryMax         = 4
	defaultCatalogRetryBaseDelay   = 500 * time.Millisecond
	defaultCatalogVendor           = "Aurelia"
	defaultCatalogStockingQuantity = 100
	defaultFilePollAttempts        = 6
	defaultFilePollBaseDelay       = time.Second

	defaultWebhookSignatureHeader = "X-Catalog-Hmac-Sha256"
	defaultSecurityEnvironment    = "local"
	defaultSweepInterval          = 24 * time.Hour
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Supplier  SupplierConfig
	Catalog   CatalogConfig
	Firestore FirestoreConfig
	PubSub    PubSubConfig
	Storage   StorageConfig
	Security  SecurityConfig
	Sweep     SweepConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig holds the relational store connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	SSLMode  string
	MaxConns int
}

// DSN renders the lib/pq connection string for the configured database.
func (c DatabaseConfig) DSN() string {
	parts := []string{
		fmt.Sprintf("host=%s", c.Host),
		fmt.Sprintf("port=%d", c.Port),
		fmt.Sprintf("dbname=%s", c.Name),
		fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	if c.User != "" {
		parts = append(parts, fmt.Sprintf("user=%s", c.User))
	}
	if c.Password != "" {
		parts = append(parts, fmt.Sprintf("password=%s", c.Password))
	}
	return strings.Join(parts, " ")
}

// SupplierConfig describes the upstream product feed endpoint.
type SupplierConfig struct {
	BaseURL     string
	Username    string
	Password    string
	CategoryIDs []int
	Filter      string
	Timeout     time.Duration
}

// CatalogConfig describes the remote commerce catalog GraphQL endpoint.
type CatalogConfig struct {
	APIURL           string
	AccessToken      string
	Vendor           string
	Timeout          time.Duration
	RequestsPerSec   float64
	Burst            int
	RetryMax         int
	RetryBaseDelay   time.Duration
	StockingQuantity int
	FilePollAttempts int
	FilePollBase     time.Duration
}

// FirestoreConfig stores document store parameters.
type FirestoreConfig struct {
	ProjectID    string
	EmulatorHost string
}

// PubSubConfig configures event publishing.
type PubSubConfig struct {
	ProjectID string
	Topic     string
}

// StorageConfig lists bucket names used by the application.
type StorageConfig struct {
	SnapshotsBucket string
}

// SecurityConfig groups request authentication settings.
type SecurityConfig struct {
	Environment     string
	AdminJWTSecret  string
	AdminJWTIssuer  string
	WebhookSecret   string
	SignatureHeader string
}

// SweepConfig controls the background zero-variation cleanup.
type SweepConfig struct {
	Interval time.Duration
	Enabled  bool
}

// SecretResolver resolves references to external secrets (e.g. Secret Manager URIs).
type SecretResolver interface {
	ResolveSecret(ctx context.Context, ref string) (string, error)
}

// SecretResolverFunc adapts ordinary functions to SecretResolver.
type SecretResolverFunc func(context.Context, string) (string, error)

// ResolveSecret resolves the secret using the wrapped function.
func (f SecretResolverFunc) ResolveSecret(ctx context.Context, ref string) (string, error) {
	return f(ctx, ref)
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// SecretError describes failures while resolving a secret reference.
type SecretError struct {
	Ref string
	Err error
}

// Error implements the error interface.
func (e *SecretError) Error() string {
	return fmt.Sprintf("secret resolution failed for ref %q: %v", e.Ref, e.Err)
}

// Unwrap exposes the underlying error.
func (e *SecretError) Unwrap() error { return e.Err }

// MissingSecretsError indicates that one or more required secrets failed to resolve.
type MissingSecretsError struct {
	secrets []missingSecret
}

type missingSecret struct {
	name     string
	redacted string
}

// Error implements the error interface.
func (e *MissingSecretsError) Error() string {
	if e == nil || len(e.secrets) == 0 {
		return "missing required secrets"
	}
	names := make([]string, 0, len(e.secrets))
	for _, secret := range e.secrets {
		names = append(names, secret.redacted)
	}
	sort.Strings(names)
	return fmt.Sprintf("missing required secrets [%s]", strings.Join(names, ", "))
}

// RedactedNames returns a copy of the redacted secret identifiers.
func (e *MissingSecretsError) RedactedNames() []string {
	if e == nil || len(e.secrets) == 0 {
		return nil
	}
	out := make([]string, 0, len(e.secrets))
	for _, secret := range e.secrets {
		out = append(out, secret.redacted)
	}
	sort.Strings(out)
	return out
}

var errSecretResolverNotConfigured = errors.New("secret resolver not configured")

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile         string
	envMap          map[string]string
	useSystemEnv    bool
	secret          SecretResolver
	requiredSecrets []string
}

// EnvironmentValues returns the effective key/value environment map after applying the same precedence
// rules as Load (dotenv < OS env < explicit env map). Callers can use the result to initialise
// dependencies before invoking Load.
func EnvironmentValues(opts ...Option) (map[string]string, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}

	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return nil, err
	}

	values := make(map[string]string)
	merge := func(source map[string]string) {
		for key, value := range source {
			values[key] = value
		}
	}

	merge(dotEnvValues)

	if options.useSystemEnv {
		system := make(map[string]string)
		for _, entry := range os.Environ() {
			parts := strings.SplitN(entry, "=", 2)
			if len(parts) != 2 {
				continue
			}
			key := strings.TrimSpace(parts[0])
			if key == "" {
				continue
			}
			system[key] = parts[1]
		}
		merge(system)
	}

	merge(options.envMap)

	return values, nil
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values in the map
// take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from os.Getenv, relying only on provided maps and .env files.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// WithSecretResolver sets a custom secret resolver used for secret:// references.
func WithSecretResolver(resolver SecretResolver) Option {
	return func(o *loaderOptions) {
		o.secret = resolver
	}
}

// WithRequiredSecrets marks the provided secret identifiers as mandatory.
// Identifiers match the config field names recorded by the loader
// (e.g. "Catalog.AccessToken" or "Supplier.Password").
func WithRequiredSecrets(names ...string) Option {
	return func(o *loaderOptions) {
		o.requiredSecrets = append(o.requiredSecrets, names...)
	}
}

// Load assembles the application configuration by combining defaults, .env overrides,
// environment variables, and optional secret manager lookups.
func Load(ctx context.Context, opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
		secret: SecretResolverFunc(func(ctx context.Context, ref string) (string, error) {
			return "", &SecretError{Ref: ref, Err: errSecretResolverNotConfigured}
		}),
	}

	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if dotEnvValues != nil {
			if value, ok := dotEnvValues[key]; ok {
				return value, true
			}
		}
		return "", false
	}

	cfg := Config{
		Server: ServerConfig{
			Port:         stringWithDefault(lookup, "API_SERVER_PORT", defaultPort),
			ReadTimeout:  durationWithDefault(lookup, "API_SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: durationWithDefault(lookup, "API_SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  durationWithDefault(lookup, "API_SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
		},
		Database: DatabaseConfig{
			Host:     stringWithDefault(lookup, "API_DATABASE_HOST", defaultDatabaseHost),
			Port:     intWithDefault(lookup, "API_DATABASE_PORT", defaultDatabasePort),
			Name:     stringWithDefault(lookup, "API_DATABASE_NAME", defaultDatabaseName),
			User:     stringWithDefault(lookup, "API_DATABASE_USER", ""),
			Password: stringWithDefault(lookup, "API_DATABASE_PASSWORD", ""),
			SSLMode:  stringWithDefault(lookup, "API_DATABASE_SSLMODE", defaultDatabaseSSLMode),
			MaxConns: intWithDefault(lookup, "API_DATABASE_MAX_CONNS", defaultDatabaseMaxConns),
		},
		Supplier: SupplierConfig{
			BaseURL:     stringWithDefault(lookup, "API_SUPPLIER_BASE_URL", ""),
			Username:    stringWithDefault(lookup, "API_SUPPLIER_USERNAME", ""),
			Password:    stringWithDefault(lookup, "API_SUPPLIER_PASSWORD", ""),
			CategoryIDs: intCSVWithDefault(lookup, "API_SUPPLIER_CATEGORY_IDS"),
			Filter:      stringWithDefault(lookup, "API_SUPPLIER_FILTER", defaultSupplierPageFilter),
			Timeout:     durationWithDefault(lookup, "API_SUPPLIER_TIMEOUT", defaultSupplierTimeout),
		},
		Catalog: CatalogConfig{
			APIURL:           stringWithDefault(lookup, "API_CATALOG_API_URL", ""),
			AccessToken:      stringWithDefault(lookup, "API_CATALOG_ACCESS_TOKEN", ""),
			Vendor:           stringWithDefault(lookup, "API_CATALOG_VENDOR", defaultCatalogVendor),
			Timeout:          durationWithDefault(lookup, "API_CATALOG_TIMEOUT", defaultCatalogTimeout),
			RequestsPerSec:   floatWithDefault(lookup, "API_CATALOG_REQUESTS_PER_SEC", defaultCatalogRequestsPerSec),
			Burst:            intWithDefault(lookup, "API_CATALOG_BURST", defaultCatalogBurst),
			RetryMax:         intWithDefault(lookup, "API_CATALOG_RETRY_MAX", defaultCatalogRetryMax),
			RetryBaseDelay:   durationWithDefault(lookup, "API_CATALOG_RETRY_BASE_DELAY", defaultCatalogRetryBaseDelay),
			StockingQuantity: intWithDefault(lookup, "API_CATALOG_STOCKING_QUANTITY", defaultCatalogStockingQuantity),
			FilePollAttempts: intWithDefault(lookup, "API_CATALOG_FILE_POLL_ATTEMPTS", defaultFilePollAttempts),
			FilePollBase:     durationWithDefault(lookup, "API_CATALOG_FILE_POLL_BASE", defaultFilePollBaseDelay),
		},
		Firestore: FirestoreConfig{
			ProjectID:    stringWithDefault(lookup, "API_FIRESTORE_PROJECT_ID", ""),
			EmulatorHost: stringWithDefault(lookup, "API_FIRESTORE_EMULATOR_HOST", ""),
		},
		PubSub: PubSubConfig{
			ProjectID: stringWithDefault(lookup, "API_PUBSUB_PROJECT_ID", ""),
			Topic:     stringWithDefault(lookup, "API_PUBSUB_TOPIC", ""),
		},
		Storage: StorageConfig{
			SnapshotsBucket: stringWithDefault(lookup, "API_STORAGE_SNAPSHOTS_BUCKET", ""),
		},
		Security: SecurityConfig{
			Environment:     strings.ToLower(stringWithDefault(lookup, "API_SECURITY_ENVIRONMENT", defaultSecurityEnvironment)),
			AdminJWTSecret:  stringWithDefault(lookup, "API_SECURITY_ADMIN_JWT_SECRET", ""),
			AdminJWTIssuer:  stringWithDefault(lookup, "API_SECURITY_ADMIN_JWT_ISSUER", ""),
			WebhookSecret:   stringWithDefault(lookup, "API_SECURITY_WEBHOOK_SECRET", ""),
			SignatureHeader: stringWithDefault(lookup, "API_SECURITY_SIGNATURE_HEADER", defaultWebhookSignatureHeader),
		},
		Sweep: SweepConfig{
			Interval: durationWithDefault(lookup, "API_SWEEP_INTERVAL", defaultSweepInterval),
			Enabled:  boolWithDefault(lookup, "API_SWEEP_ENABLED", true),
		},
	}

	resolvedSecrets := make(map[string]string)
	resolveField := func(name string, field *string) error {
		resolved, err := resolveSecret(ctx, *field, options.secret)
		if err != nil {
			return err
		}
		*field = resolved
		resolvedSecrets[name] = strings.TrimSpace(resolved)
		return nil
	}

	// PubSub project defaults to the Firestore project when unspecified.
	if cfg.PubSub.ProjectID == "" {
		cfg.PubSub.ProjectID = cfg.Firestore.ProjectID
	}

	secretFields := []struct {
		name  string
		field *string
	}{
		{"Database.Password", &cfg.Database.Password},
		{"Supplier.Password", &cfg.Supplier.Password},
		{"Catalog.AccessToken", &cfg.Catalog.AccessToken},
		{"Security.AdminJWTSecret", &cfg.Security.AdminJWTSecret},
		{"Security.WebhookSecret", &cfg.Security.WebhookSecret},
	}
	for _, target := range secretFields {
		if err := resolveField(target.name, target.field); err != nil {
			return Config{}, err
		}
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	if missing := findMissingSecrets(options.requiredSecrets, resolvedSecrets); missing != nil {
		return Config{}, missing
	}

	return cfg, nil
}

func resolveSecret(ctx context.Context, value string, resolver SecretResolver) (string, error) {
	if value == "" {
		return value, nil
	}
	if !isSecretReference(value) {
		return value, nil
	}
	if resolver == nil {
		normalized := normalizeSecretReference(value)
		return "", &SecretError{Ref: normalized, Err: errSecretResolverNotConfigured}
	}
	normalized := normalizeSecretReference(value)
	secret, err := resolver.ResolveSecret(ctx, normalized)
	if err != nil {
		return "", &SecretError{Ref: normalized, Err: err}
	}
	return secret, nil
}

func validateConfig(cfg Config) error {
	var missing []string

	if cfg.Server.Port == "" {
		missing = append(missing, "Server.Port")
	}
	if strings.TrimSpace(cfg.Database.Name) == "" {
		missing = append(missing, "Database.Name")
	}
	if cfg.Database.Port <= 0 {
		missing = append(missing, "Database.Port")
	}
	if strings.TrimSpace(cfg.Supplier.BaseURL) == "" {
		missing = append(missing, "Supplier.BaseURL")
	}
	if strings.TrimSpace(cfg.Catalog.APIURL) == "" {
		missing = append(missing, "Catalog.APIURL")
	}
	if cfg.Catalog.RequestsPerSec <= 0 {
		missing = append(missing, "Catalog.RequestsPerSec")
	}
	if cfg.Catalog.StockingQuantity <= 0 {
		missing = append(missing, "Catalog.StockingQuantity")
	}
	if cfg.Sweep.Enabled && cfg.Sweep.Interval <= 0 {
		missing = append(missing, "Sweep.Interval")
	}

	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

func findMissingSecrets(required []string, resolved map[string]string) *MissingSecretsError {
	if len(required) == 0 {
		return nil
	}
	missing := make([]missingSecret, 0, len(required))
	seen := make(map[string]struct{})
	for _, name := range required {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		if value := strings.TrimSpace(resolved[trimmed]); value != "" {
			continue
		}
		missing = append(missing, missingSecret{
			name:     trimmed,
			redacted: redactSecretName(trimmed),
		})
	}
	if len(missing) == 0 {
		return nil
	}
	return &MissingSecretsError{secrets: missing}
}

func isSecretReference(value string) bool {
	trimmed := strings.TrimSpace(value)
	return strings.HasPrefix(trimmed, "secret://") || strings.HasPrefix(trimmed, "sm://")
}

func normalizeSecretReference(value string) string {
	trimmed := strings.TrimSpace(value)
	if strings.HasPrefix(trimmed, "sm://") {
		return "secret://" + strings.TrimPrefix(trimmed, "sm://")
	}
	return trimmed
}

func redactSecretName(name string) string {
	sum := sha256.Sum256([]byte(name))
	return hex.EncodeToString(sum[:8])
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	file, err := os.Open(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	values := make(map[string]string)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "export ") {
			line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if key == "" {
			continue
		}
		value = strings.Trim(value, "\"'")
		values[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: failed parsing %s: %w", absPath, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && value != "" {
		return value
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return fallback
}

func intWithDefault(lookup func(string) (string, bool), key string, fallback int) int {
	if value, ok := lookup(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func floatWithDefault(lookup func(string) (string, bool), key string, fallback float64) float64 {
	if value, ok := lookup(key); ok && value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func boolWithDefault(lookup func(string) (string, bool), key string, fallback bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return fallback
}

func intCSVWithDefault(lookup func(string) (string, bool), key string) []int {
	raw, ok := lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return []int{}
	}
	parts := strings.Split(raw, ",")
	out := make([]int, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		if parsed, err := strconv.Atoi(trimmed); err == nil {
			out = append(out, parsed)
		}
	}
	return out
}
