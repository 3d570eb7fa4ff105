package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	cloudstorage "cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/aurelia-jewels/api/internal/catalog"
	"github.com/aurelia-jewels/api/internal/handlers"
	"github.com/aurelia-jewels/api/internal/platform/auth"
	"github.com/aurelia-jewels/api/internal/platform/config"
	"github.com/aurelia-jewels/api/internal/platform/database"
	pfirestore "github.com/aurelia-jewels/api/internal/platform/firestore"
	"github.com/aurelia-jewels/api/internal/platform/jobs"
	"github.com/aurelia-jewels/api/internal/platform/observability"
	"github.com/aurelia-jewels/api/internal/platform/secrets"
	platformstorage "github.com/aurelia-jewels/api/internal/platform/storage"
	firestoreRepo "github.com/aurelia-jewels/api/internal/repositories/firestore"
	"github.com/aurelia-jewels/api/internal/repositories/postgres"
	"github.com/aurelia-jewels/api/internal/services"
	"github.com/aurelia-jewels/api/internal/supplier"
)

func main() {
	ctx := context.Background()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")
	ctx = observability.WithLogger(ctx, logger)

	envValues, err := config.EnvironmentValues()
	if err != nil {
		logger.Fatal("failed to read environment values", zap.Error(err))
	}

	fetcher, err := newSecretFetcher(ctx, logger, envValues)
	if err != nil {
		logger.Fatal("failed to initialise secret fetcher", zap.Error(err))
	}
	defer func() {
		if err := fetcher.Close(); err != nil {
			logger.Warn("secret fetcher close error", zap.Error(err))
		}
	}()

	cfg, err := config.Load(ctx,
		config.WithSecretResolver(config.SecretResolverFunc(fetcher.Resolve)),
		config.WithRequiredSecrets(requiredSecretNames(envValues)...),
	)
	if err != nil {
		var missing *config.MissingSecretsError
		if errors.As(err, &missing) {
			logger.Fatal("missing required secrets", zap.Strings("secrets", missing.RedactedNames()))
		}
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warn("database close error", zap.Error(err))
		}
	}()

	firestoreProvider := pfirestore.NewProvider(cfg.Firestore)
	firestoreClient, err := firestoreProvider.Client(ctx)
	if err != nil {
		logger.Fatal("failed to initialise firestore client", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := firestoreProvider.Close(closeCtx); err != nil {
			logger.Warn("firestore close error", zap.Error(err))
		}
	}()

	var archiver services.SnapshotArchiver
	if strings.TrimSpace(cfg.Storage.SnapshotsBucket) != "" {
		storageClient, err := cloudstorage.NewClient(ctx)
		if err != nil {
			logger.Fatal("failed to initialise storage client", zap.Error(err))
		}
		defer func() {
			if err := storageClient.Close(); err != nil {
				logger.Warn("storage close error", zap.Error(err))
			}
		}()
		snapshotArchiver, err := platformstorage.NewSnapshotArchiver(storageClient, cfg.Storage.SnapshotsBucket)
		if err != nil {
			logger.Fatal("failed to initialise snapshot archiver", zap.Error(err))
		}
		archiver = snapshotArchiver
	}

	var events services.SyncEventPublisher
	if strings.TrimSpace(cfg.PubSub.Topic) != "" {
		pubsubClient, err := pubsub.NewClient(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			logger.Fatal("failed to initialise pubsub client", zap.Error(err))
		}
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logger.Warn("pubsub close error", zap.Error(err))
			}
		}()
		publisher, err := jobs.NewPubSubSyncEventPublisher(pubsubClient.Topic(cfg.PubSub.Topic))
		if err != nil {
			logger.Fatal("failed to initialise sync event publisher", zap.Error(err))
		}
		events = publisher
	}

	store, err := postgres.NewStore(db)
	if err != nil {
		logger.Fatal("failed to initialise relational store", zap.Error(err))
	}

	bannerRepo, err := firestoreRepo.NewBannerRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise banner repository", zap.Error(err))
	}
	syncRunRepo, err := firestoreRepo.NewSyncRunRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise sync run repository", zap.Error(err))
	}

	catalogClient, err := catalog.NewClient(catalog.ClientConfig{
		Endpoint:         cfg.Catalog.APIURL,
		AccessToken:      cfg.Catalog.AccessToken,
		Timeout:          cfg.Catalog.Timeout,
		RequestsPerSec:   cfg.Catalog.RequestsPerSec,
		Burst:            cfg.Catalog.Burst,
		RetryMax:         cfg.Catalog.RetryMax,
		RetryBaseDelay:   cfg.Catalog.RetryBaseDelay,
		FilePollAttempts: cfg.Catalog.FilePollAttempts,
		FilePollBase:     cfg.Catalog.FilePollBase,
	}, logger)
	if err != nil {
		logger.Fatal("failed to initialise catalog client", zap.Error(err))
	}

	feedFetcher, err := supplier.NewFetcher(supplier.FetcherConfig{
		BaseURL:     cfg.Supplier.BaseURL,
		Username:    cfg.Supplier.Username,
		Password:    cfg.Supplier.Password,
		CategoryIDs: cfg.Supplier.CategoryIDs,
		Filter:      cfg.Supplier.Filter,
		Timeout:     cfg.Supplier.Timeout,
	}, logger)
	if err != nil {
		logger.Fatal("failed to initialise feed fetcher", zap.Error(err))
	}

	reconciliationService, err := services.NewReconciliationService(services.ReconciliationServiceDeps{
		Feed:        feedFetcher,
		Transformer: supplier.NewTransformer(cfg.Supplier.CategoryIDs),
		UnitOfWork:  store,
		Catalog:     catalogClient,
		Archiver:    archiver,
		Runs:        syncRunRepo,
		Events:      events,
		Logger:      logger,
	})
	if err != nil {
		logger.Fatal("failed to initialise reconciliation service", zap.Error(err))
	}

	productSyncService, err := services.NewProductSyncService(services.ProductSyncServiceDeps{
		Variations:       store.Variations,
		Rings:            store.Rings,
		Metals:           store.Metals,
		Stones:           store.Stones,
		Styles:           store.Styles,
		Genders:          store.Genders,
		Groups:           store.Groups,
		Categories:       store.Categories,
		Catalog:          catalogClient,
		Logger:           logger,
		Vendor:           cfg.Catalog.Vendor,
		StockingQuantity: cfg.Catalog.StockingQuantity,
	})
	if err != nil {
		logger.Fatal("failed to initialise product sync service", zap.Error(err))
	}

	bulkActionService, err := services.NewBulkActionService(services.BulkActionServiceDeps{
		Variations: store.Variations,
		UnitOfWork: store,
		Sync:       productSyncService,
		Catalog:    catalogClient,
		Logger:     logger,
	})
	if err != nil {
		logger.Fatal("failed to initialise bulk action service", zap.Error(err))
	}

	dictionaryService, err := services.NewDictionaryService(services.DictionaryServiceDeps{
		Metals:  store.Metals,
		Stones:  store.Stones,
		Styles:  store.Styles,
		Groups:  store.Groups,
		Catalog: catalogClient,
		Logger:  logger,
	})
	if err != nil {
		logger.Fatal("failed to initialise dictionary service", zap.Error(err))
	}

	assignmentService, err := services.NewAssignmentService(services.AssignmentServiceDeps{
		Rings:      store.Rings,
		Variations: store.Variations,
		Groups:     store.Groups,
		Categories: store.Categories,
		Styles:     store.Styles,
		Genders:    store.Genders,
		Logger:     logger,
	})
	if err != nil {
		logger.Fatal("failed to initialise assignment service", zap.Error(err))
	}

	listingService, err := services.NewListingService(services.ListingServiceDeps{
		Variations: store.Variations,
		Logger:     logger,
	})
	if err != nil {
		logger.Fatal("failed to initialise listing service", zap.Error(err))
	}

	contentService, err := services.NewContentService(services.ContentServiceDeps{
		Banners: bannerRepo,
		Runs:    syncRunRepo,
		Logger:  logger,
	})
	if err != nil {
		logger.Fatal("failed to initialise content service", zap.Error(err))
	}

	projectID := strings.TrimSpace(cfg.Firestore.ProjectID)
	middlewares := []func(http.Handler) http.Handler{
		observability.InjectLoggerMiddleware(logger.Named("http")),
		observability.TraceMiddleware(projectID),
		observability.RecoveryMiddleware(logger.Named("http")),
		observability.RequestLoggerMiddleware(projectID),
	}

	healthHandlers := handlers.NewHealthHandlers(
		handlers.WithReadinessCheck("postgres", func(ctx context.Context) error {
			pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			return db.PingContext(pingCtx)
		}),
		handlers.WithReadinessCheck("firestore", func(ctx context.Context) error {
			probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			_, err := firestoreClient.Collections(probeCtx).Next()
			if errors.Is(err, iterator.Done) {
				return nil
			}
			return err
		}),
	)

	opts := []handlers.Option{
		handlers.WithMiddlewares(middlewares...),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithPublicRoutes(handlers.NewPublicHandlers(contentService).Routes),
		handlers.WithProductRoutes(handlers.NewProductHandlers(listingService, productSyncService, bulkActionService).Routes),
		handlers.WithDictionaryRoutes(handlers.NewDictionaryHandlers(dictionaryService).Routes),
		handlers.WithFamilyRoutes(handlers.NewFamilyHandlers(assignmentService).Routes),
		handlers.WithSyncRoutes(handlers.NewSyncHandlers(reconciliationService, contentService).Routes),
		handlers.WithWebhookRoutes(handlers.NewWebhookHandlers(productSyncService).Routes),
	}

	if strings.TrimSpace(cfg.Security.AdminJWTSecret) != "" {
		adminVerifier, err := auth.NewAdminVerifier(cfg.Security.AdminJWTSecret, cfg.Security.AdminJWTIssuer)
		if err != nil {
			logger.Fatal("failed to initialise admin verifier", zap.Error(err))
		}
		opts = append(opts, handlers.WithAdminMiddlewares(adminVerifier.Middleware()))
	} else {
		logger.Warn("admin JWT secret not configured; admin routes are unauthenticated")
	}

	if strings.TrimSpace(cfg.Security.WebhookSecret) != "" {
		webhookVerifier, err := auth.NewWebhookVerifier(cfg.Security.WebhookSecret, cfg.Security.SignatureHeader)
		if err != nil {
			logger.Fatal("failed to initialise webhook verifier", zap.Error(err))
		}
		opts = append(opts, handlers.WithWebhookMiddlewares(webhookVerifier.Middleware()))
	} else {
		logger.Warn("webhook secret not configured; webhook routes are unauthenticated")
	}

	router := handlers.NewRouter(opts...)
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	var sweepWG sync.WaitGroup
	if cfg.Sweep.Enabled && cfg.Sweep.Interval > 0 {
		sweepWG.Add(1)
		go func() {
			defer sweepWG.Done()
			sweepLogger := logger.Named("sweep")
			ticker := time.NewTicker(cfg.Sweep.Interval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					runCtx, cancel := context.WithTimeout(sweepCtx, time.Minute)
					err := reconciliationService.Sweep(runCtx)
					cancel()
					if err != nil {
						sweepLogger.Error("sweep error", zap.Error(err))
					}
				case <-sweepCtx.Done():
					return
				}
			}
		}()
	}

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("aurelia jewels api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	sweepCancel()
	sweepWG.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// requiredSecretNames lists the config fields whose environment values
// are secret references and therefore must resolve at startup.
func requiredSecretNames(env map[string]string) []string {
	candidates := map[string]string{
		"API_DATABASE_PASSWORD":         "Database.Password",
		"API_SUPPLIER_PASSWORD":         "Supplier.Password",
		"API_CATALOG_ACCESS_TOKEN":      "Catalog.AccessToken",
		"API_SECURITY_ADMIN_JWT_SECRET": "Security.AdminJWTSecret",
		"API_SECURITY_WEBHOOK_SECRET":   "Security.WebhookSecret",
	}

	var required []string
	for key, field := range candidates {
		value := strings.TrimSpace(env[key])
		if strings.HasPrefix(value, "secret://") || strings.HasPrefix(value, "sm://") {
			required = append(required, field)
		}
	}
	sort.Strings(required)
	return required
}

func newSecretFetcher(ctx context.Context, logger *zap.Logger, env map[string]string) (*secrets.Fetcher, error) {
	lookup := func(key string) string {
		if env == nil {
			return ""
		}
		return strings.TrimSpace(env[key])
	}

	envLabel := strings.ToLower(lookup("API_SECURITY_ENVIRONMENT"))
	if envLabel == "" {
		envLabel = "local"
	}
	defaultProject := lookup("API_SECRET_DEFAULT_PROJECT_ID")
	if defaultProject == "" {
		defaultProject = lookup("API_FIRESTORE_PROJECT_ID")
	}
	fallbackPath := lookup("API_SECRET_FALLBACK_FILE")
	if fallbackPath == "" {
		fallbackPath = ".secrets.local"
	}
	credentialsFile := lookup("API_SECRET_CREDENTIALS_FILE")

	opts := []secrets.Option{
		secrets.WithEnvironment(envLabel),
		secrets.WithLogger(logger.Named("secrets")),
		secrets.WithFallbackFile(fallbackPath),
	}
	if defaultProject != "" {
		opts = append(opts, secrets.WithDefaultProject(defaultProject))
	}
	if credentialsFile != "" {
		opts = append(opts, secrets.WithClientOptions(option.WithCredentialsFile(credentialsFile)))
	}

	return secrets.NewFetcher(ctx, opts...)
}
