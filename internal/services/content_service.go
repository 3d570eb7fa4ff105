package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/aurelia-jewels/api/internal/domain"
	"github.com/aurelia-jewels/api/internal/repositories"
)

const defaultRunLogLimit = 20

var errContentBannersRequired = errors.New("content: banner repository is required")

// ContentServiceDeps wires the storefront content dependencies.
type ContentServiceDeps struct {
	Banners repositories.BannerRepository
	Runs    repositories.SyncRunRepository
	Logger  *zap.Logger
}

// ContentService serves document-store content: homepage banners and
// the reconciliation run log shown on the admin status page.
type ContentService struct {
	banners repositories.BannerRepository
	runs    repositories.SyncRunRepository
	logger  *zap.Logger
}

// NewContentService constructs a ContentService.
func NewContentService(deps ContentServiceDeps) (*ContentService, error) {
	if deps.Banners == nil {
		return nil, errContentBannersRequired
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContentService{
		banners: deps.Banners,
		runs:    deps.Runs,
		logger:  logger.Named("content"),
	}, nil
}

// ListBanners returns the active homepage banners in display order.
func (s *ContentService) ListBanners(ctx context.Context) ([]domain.Banner, error) {
	banners, err := s.banners.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("content: list banners: %w", err)
	}
	return banners, nil
}

// ListSyncRuns returns the most recent reconciliation runs, newest
// first.
func (s *ContentService) ListSyncRuns(ctx context.Context, limit int) ([]domain.SyncRun, error) {
	if s.runs == nil {
		return nil, nil
	}
	if limit <= 0 || limit > 100 {
		limit = defaultRunLogLimit
	}
	runs, err := s.runs.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("content: list sync runs: %w", err)
	}
	return runs, nil
}
