package services

import (
	"context"
	"errors"
	"testing"

	"github.com/aurelia-jewels/api/internal/domain"
)

type fakeBannerRepo struct {
	banners []domain.Banner
	err     error
}

func (r *fakeBannerRepo) ListActive(ctx context.Context) ([]domain.Banner, error) {
	return r.banners, r.err
}

type limitRecordingRuns struct {
	recordingRuns
	limits []int
}

func (r *limitRecordingRuns) ListRecent(ctx context.Context, limit int) ([]domain.SyncRun, error) {
	r.limits = append(r.limits, limit)
	return r.runs, nil
}

func newContentService(t *testing.T, deps ContentServiceDeps) *ContentService {
	t.Helper()
	svc, err := NewContentService(deps)
	if err != nil {
		t.Fatalf("NewContentService: %v", err)
	}
	return svc
}

func TestListBannersReturnsActiveBanners(t *testing.T) {
	banners := &fakeBannerRepo{banners: []domain.Banner{
		{Title: "Holiday Sale", ImageURL: "https://cdn.example.com/sale.jpg", Position: 1, Active: true},
	}}
	svc := newContentService(t, ContentServiceDeps{Banners: banners})

	got, err := svc.ListBanners(context.Background())
	if err != nil {
		t.Fatalf("ListBanners: %v", err)
	}
	if len(got) != 1 || got[0].Title != "Holiday Sale" {
		t.Fatalf("unexpected banners %+v", got)
	}
}

func TestListBannersWrapsRepositoryError(t *testing.T) {
	banners := &fakeBannerRepo{err: errors.New("document store down")}
	svc := newContentService(t, ContentServiceDeps{Banners: banners})

	if _, err := svc.ListBanners(context.Background()); err == nil {
		t.Fatal("expected repository error to propagate")
	}
}

func TestListSyncRunsClampsLimit(t *testing.T) {
	cases := []struct {
		name  string
		limit int
		want  int
	}{
		{"zero", 0, 20},
		{"negative", -5, 20},
		{"oversized", 500, 20},
		{"in range", 40, 40},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			runs := &limitRecordingRuns{}
			svc := newContentService(t, ContentServiceDeps{Banners: &fakeBannerRepo{}, Runs: runs})

			if _, err := svc.ListSyncRuns(context.Background(), tc.limit); err != nil {
				t.Fatalf("ListSyncRuns: %v", err)
			}
			if len(runs.limits) != 1 || runs.limits[0] != tc.want {
				t.Fatalf("expected limit %d, got %v", tc.want, runs.limits)
			}
		})
	}
}

func TestListSyncRunsWithoutRunLogIsEmpty(t *testing.T) {
	svc := newContentService(t, ContentServiceDeps{Banners: &fakeBannerRepo{}})

	runs, err := svc.ListSyncRuns(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListSyncRuns: %v", err)
	}
	if runs != nil {
		t.Fatalf("expected no runs, got %+v", runs)
	}
}
