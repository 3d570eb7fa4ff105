package firestore

import (
	"context"
	"errors"
	"sort"

	gcfs "cloud.google.com/go/firestore"

	"github.com/aurelia-jewels/api/internal/domain"
	platform "github.com/aurelia-jewels/api/internal/platform/firestore"
)

const bannersCollection = "homepage_banners"

// BannerRepository reads homepage banner documents from Firestore.
type BannerRepository struct {
	banners *platform.Collection[domain.Banner]
}

// NewBannerRepository constructs a BannerRepository on the provider.
func NewBannerRepository(provider *platform.Provider) (*BannerRepository, error) {
	if provider == nil {
		return nil, errors.New("banner repository: provider is required")
	}
	return &BannerRepository{
		banners: platform.NewCollection[domain.Banner](provider, bannersCollection),
	}, nil
}

// ListActive returns the active banners ordered by position.
func (r *BannerRepository) ListActive(ctx context.Context) ([]domain.Banner, error) {
	banners, err := r.banners.Query(ctx, func(query gcfs.Query) gcfs.Query {
		return query.Where("active", "==", true)
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(banners, func(i, j int) bool {
		return banners[i].Position < banners[j].Position
	})
	return banners, nil
}
