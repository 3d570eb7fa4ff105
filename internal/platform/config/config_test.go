package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func baseEnv() map[string]string {
	return map[string]string{
		"API_SUPPLIER_BASE_URL": "https://feed.example.com/products",
		"API_CATALOG_API_URL":   "https://shop.example.com/admin/api/graphql.json",
	}
}

func TestLoadWithDefaults(t *testing.T) {
	cfg, err := Load(context.Background(), WithEnvMap(baseEnv()), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("unexpected read timeout: %s", cfg.Server.ReadTimeout)
	}
	if cfg.Database.Host != "localhost" || cfg.Database.Port != 5432 {
		t.Errorf("unexpected database defaults: %s:%d", cfg.Database.Host, cfg.Database.Port)
	}
	if cfg.Supplier.Filter != "Finished" {
		t.Errorf("unexpected supplier filter default: %s", cfg.Supplier.Filter)
	}
	if cfg.Catalog.RequestsPerSec != 2.0 || cfg.Catalog.Burst != 4 {
		t.Errorf("unexpected catalog rate defaults: %v/%d", cfg.Catalog.RequestsPerSec, cfg.Catalog.Burst)
	}
	if cfg.Catalog.StockingQuantity != 100 {
		t.Errorf("unexpected stocking quantity default: %d", cfg.Catalog.StockingQuantity)
	}
	if cfg.Security.Environment != "local" {
		t.Errorf("expected default security environment local, got %s", cfg.Security.Environment)
	}
	if cfg.Security.SignatureHeader != defaultWebhookSignatureHeader {
		t.Errorf("unexpected signature header default: %s", cfg.Security.SignatureHeader)
	}
	if cfg.Sweep.Interval != 24*time.Hour || !cfg.Sweep.Enabled {
		t.Errorf("unexpected sweep defaults: %s enabled=%v", cfg.Sweep.Interval, cfg.Sweep.Enabled)
	}
	if len(cfg.Supplier.CategoryIDs) != 0 {
		t.Errorf("expected no category ids, got %v", cfg.Supplier.CategoryIDs)
	}
}

func TestLoadWithOverridesAndSecrets(t *testing.T) {
	env := map[string]string{
		"API_SERVER_PORT":                "9090",
		"API_SERVER_IDLE_TIMEOUT":        "2m",
		"API_DATABASE_HOST":              "db.internal",
		"API_DATABASE_PORT":              "5433",
		"API_DATABASE_NAME":              "catalog_sync",
		"API_DATABASE_USER":              "sync",
		"API_DATABASE_PASSWORD":          "secret://db/password",
		"API_SUPPLIER_BASE_URL":          "https://feed.example.com/products",
		"API_SUPPLIER_USERNAME":          "feeduser",
		"API_SUPPLIER_PASSWORD":          "secret://supplier/password",
		"API_SUPPLIER_CATEGORY_IDS":      "21344, 21345,21347",
		"API_CATALOG_API_URL":            "https://shop.example.com/admin/api/graphql.json",
		"API_CATALOG_ACCESS_TOKEN":       "secret://catalog/token",
		"API_CATALOG_REQUESTS_PER_SEC":   "4.5",
		"API_CATALOG_RETRY_MAX":          "6",
		"API_SECURITY_ENVIRONMENT":       "PROD",
		"API_SECURITY_ADMIN_JWT_SECRET":  "secret://admin/jwt",
		"API_SECURITY_WEBHOOK_SECRET":    "plain-webhook-secret",
		"API_SECURITY_SIGNATURE_HEADER":  "X-Custom-Hmac",
		"API_SWEEP_INTERVAL":             "12h",
		"API_SWEEP_ENABLED":              "false",
		"API_PUBSUB_TOPIC":               "sync-events",
		"API_FIRESTORE_PROJECT_ID":       "aurelia-prod",
		"API_STORAGE_SNAPSHOTS_BUCKET":   "feed-snapshots-prod",
		"API_CATALOG_FILE_POLL_ATTEMPTS": "10",
	}

	secrets := map[string]string{
		"secret://db/password":       "db-pass",
		"secret://supplier/password": "feed-pass",
		"secret://catalog/token":     "shpat-token",
		"secret://admin/jwt":         "jwt-key",
	}

	resolver := SecretResolverFunc(func(_ context.Context, ref string) (string, error) {
		if v, ok := secrets[ref]; ok {
			return v, nil
		}
		return "", &SecretError{Ref: ref, Err: errSecretResolverNotConfigured}
	})

	cfg, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""), WithSecretResolver(resolver))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Server.IdleTimeout != 2*time.Minute {
		t.Errorf("unexpected idle timeout: %s", cfg.Server.IdleTimeout)
	}
	if cfg.Database.Password != "db-pass" {
		t.Errorf("expected resolved database password, got %s", cfg.Database.Password)
	}
	if cfg.Supplier.Password != "feed-pass" {
		t.Errorf("expected resolved supplier password, got %s", cfg.Supplier.Password)
	}
	if cfg.Catalog.AccessToken != "shpat-token" {
		t.Errorf("expected resolved catalog token, got %s", cfg.Catalog.AccessToken)
	}
	if cfg.Security.AdminJWTSecret != "jwt-key" {
		t.Errorf("expected resolved admin jwt secret, got %s", cfg.Security.AdminJWTSecret)
	}
	if cfg.Security.WebhookSecret != "plain-webhook-secret" {
		t.Errorf("expected plain webhook secret passthrough, got %s", cfg.Security.WebhookSecret)
	}
	if !reflect.DeepEqual(cfg.Supplier.CategoryIDs, []int{21344, 21345, 21347}) {
		t.Errorf("unexpected category ids %v", cfg.Supplier.CategoryIDs)
	}
	if cfg.Catalog.RequestsPerSec != 4.5 {
		t.Errorf("unexpected requests per second %v", cfg.Catalog.RequestsPerSec)
	}
	if cfg.Catalog.RetryMax != 6 {
		t.Errorf("unexpected retry max %d", cfg.Catalog.RetryMax)
	}
	if cfg.Catalog.FilePollAttempts != 10 {
		t.Errorf("unexpected file poll attempts %d", cfg.Catalog.FilePollAttempts)
	}
	if cfg.Security.Environment != "prod" {
		t.Errorf("expected lowercased environment prod, got %s", cfg.Security.Environment)
	}
	if cfg.Security.SignatureHeader != "X-Custom-Hmac" {
		t.Errorf("unexpected signature header %s", cfg.Security.SignatureHeader)
	}
	if cfg.Sweep.Enabled {
		t.Error("expected sweep disabled")
	}
	if cfg.PubSub.ProjectID != "aurelia-prod" {
		t.Errorf("expected pubsub project to default to firestore project, got %s", cfg.PubSub.ProjectID)
	}

	dsn := cfg.Database.DSN()
	for _, want := range []string{"host=db.internal", "port=5433", "dbname=catalog_sync", "user=sync", "password=db-pass"} {
		if !strings.Contains(dsn, want) {
			t.Errorf("dsn missing %q: %s", want, dsn)
		}
	}
}

func TestLoadDotEnvFallback(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env.test")
	content := "API_SERVER_PORT=7070\nAPI_SUPPLIER_BASE_URL=https://feed.dot/products\nAPI_CATALOG_API_URL=https://shop.dot/graphql\n"
	if err := os.WriteFile(envPath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write dotenv file: %v", err)
	}

	cfg, err := Load(context.Background(), WithEnvFile(envPath), WithoutSystemEnv())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "7070" {
		t.Errorf("expected port from dotenv 7070, got %s", cfg.Server.Port)
	}
	if cfg.Supplier.BaseURL != "https://feed.dot/products" {
		t.Errorf("expected supplier url from dotenv, got %s", cfg.Supplier.BaseURL)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	_, err := Load(context.Background(), WithEnvMap(map[string]string{}), WithoutSystemEnv(), WithEnvFile(""))
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	fields := validation.Fields()
	found := false
	for _, field := range fields {
		if field == "Supplier.BaseURL" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected Supplier.BaseURL among missing fields, got %v", fields)
	}
}

func TestLoadSecretResolverError(t *testing.T) {
	env := baseEnv()
	env["API_CATALOG_ACCESS_TOKEN"] = "secret://missing"

	_, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err == nil {
		t.Fatal("expected secret resolution error, got nil")
	}
	var secretErr *SecretError
	if !errors.As(err, &secretErr) {
		t.Fatalf("expected SecretError, got %T", err)
	}
	if secretErr.Ref != "secret://missing" {
		t.Errorf("unexpected secret ref %s", secretErr.Ref)
	}
}

func TestEnvironmentValuesMergesSources(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env.test")
	content := "API_FIRESTORE_PROJECT_ID=dot-project\nAPI_SECRET_FALLBACK_FILE=.dot.local\n"
	if err := os.WriteFile(envPath, []byte(content), 0o600); err != nil {
		t.Fatalf("failed writing env file: %v", err)
	}

	t.Setenv("API_FIRESTORE_PROJECT_ID", "os-project")
	t.Setenv("API_SECRET_PROJECT_IDS", "prod=project-prod")

	overrides := map[string]string{
		"API_FIRESTORE_PROJECT_ID": "override-project",
		"API_SECRET_VERSION_PINS":  "secret://catalog/token=5",
	}

	values, err := EnvironmentValues(WithEnvFile(envPath), WithEnvMap(overrides))
	if err != nil {
		t.Fatalf("EnvironmentValues returned error: %v", err)
	}

	if got := values["API_FIRESTORE_PROJECT_ID"]; got != "override-project" {
		t.Fatalf("expected override project, got %s", got)
	}
	if got := values["API_SECRET_FALLBACK_FILE"]; got != ".dot.local" {
		t.Fatalf("expected dotenv fallback file, got %s", got)
	}
	if got := values["API_SECRET_PROJECT_IDS"]; got != "prod=project-prod" {
		t.Fatalf("expected system env project map, got %s", got)
	}
	if got := values["API_SECRET_VERSION_PINS"]; got != "secret://catalog/token=5" {
		t.Fatalf("expected override version pin, got %s", got)
	}
}

func TestLoadMissingRequiredSecrets(t *testing.T) {
	_, err := Load(context.Background(),
		WithEnvMap(baseEnv()),
		WithoutSystemEnv(),
		WithEnvFile(""),
		WithRequiredSecrets("Catalog.AccessToken"),
	)
	if err == nil {
		t.Fatal("expected missing secrets error, got nil")
	}
	var missing *MissingSecretsError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingSecretsError, got %T", err)
	}
	expectedRedacted := redactSecretName("Catalog.AccessToken")
	if got := missing.RedactedNames(); len(got) != 1 || got[0] != expectedRedacted {
		t.Fatalf("unexpected redacted names %v", got)
	}
}

func TestLoadSupportsLegacySecretScheme(t *testing.T) {
	env := baseEnv()
	env["API_SUPPLIER_PASSWORD"] = "sm://supplier/password"

	secrets := map[string]string{
		"secret://supplier/password": "legacy-secret",
	}

	resolver := SecretResolverFunc(func(_ context.Context, ref string) (string, error) {
		if v, ok := secrets[ref]; ok {
			return v, nil
		}
		return "", &SecretError{Ref: ref, Err: errors.New("not found")}
	})

	cfg, err := Load(context.Background(),
		WithEnvMap(env),
		WithoutSystemEnv(),
		WithEnvFile(""),
		WithSecretResolver(resolver),
	)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Supplier.Password != "legacy-secret" {
		t.Fatalf("expected legacy secret, got %s", cfg.Supplier.Password)
	}
}
