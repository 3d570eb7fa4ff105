package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/aurelia-jewels/api/internal/repositories"
)

var errAssignmentRingsRequired = errors.New("assignment: ring repository is required")

// AssignmentServiceDeps wires the attribute assignment dependencies.
type AssignmentServiceDeps struct {
	Rings      repositories.RingRepository
	Variations repositories.VariationRepository
	Groups     repositories.GroupRepository
	Categories repositories.CategoryRepository
	Styles     repositories.StyleRepository
	Genders    repositories.GenderRepository
	Logger     *zap.Logger
}

// AssignmentService manages the merchandising attributes of ring
// families: group, category, style, and gender. A family must be fully
// assigned before any of its variations can be pushed to the remote
// catalog.
type AssignmentService struct {
	rings      repositories.RingRepository
	variations repositories.VariationRepository
	groups     repositories.GroupRepository
	categories repositories.CategoryRepository
	styles     repositories.StyleRepository
	genders    repositories.GenderRepository
	logger     *zap.Logger
}

// NewAssignmentService constructs an AssignmentService.
func NewAssignmentService(deps AssignmentServiceDeps) (*AssignmentService, error) {
	if deps.Rings == nil {
		return nil, errAssignmentRingsRequired
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{
		rings:      deps.Rings,
		variations: deps.Variations,
		groups:     deps.Groups,
		categories: deps.Categories,
		styles:     deps.Styles,
		genders:    deps.Genders,
		logger:     logger.Named("assignment"),
	}, nil
}

// ListUnassigned returns every family still missing attributes, with
// the supplier web categories observed for it as assignment hints.
func (s *AssignmentService) ListUnassigned(ctx context.Context) ([]repositories.UnassignedRing, error) {
	rings, err := s.rings.ListUnassigned(ctx)
	if err != nil {
		return nil, fmt.Errorf("assignment: list unassigned: %w", err)
	}
	return rings, nil
}

// ListAssigned returns a page of fully assigned families together with
// the total count.
func (s *AssignmentService) ListAssigned(ctx context.Context, filter repositories.AssignedRingFilter) ([]repositories.AssignedRing, int, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	rings, total, err := s.rings.ListAssigned(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("assignment: list assigned: %w", err)
	}
	return rings, total, nil
}

// AssignInput carries a full attribute assignment for one family.
type AssignInput struct {
	RingID     int64
	GroupID    int64
	CategoryID int64
	StyleID    int64
	GenderID   int64
}

// Assign sets or replaces the family's attributes. Every referenced
// dictionary row must exist, and a family with synced variations keeps
// its current assignment because the remote products were built from
// it.
func (s *AssignmentService) Assign(ctx context.Context, input AssignInput) error {
	if input.GroupID == 0 || input.CategoryID == 0 || input.StyleID == 0 || input.GenderID == 0 {
		return fmt.Errorf("%w: group, category, style, and gender are all required", ErrInvalidInput)
	}

	ring, err := s.rings.Get(ctx, input.RingID)
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: ring %d", ErrNotFound, input.RingID)
		}
		return fmt.Errorf("assignment: load ring: %w", err)
	}

	if s.variations != nil {
		variations, err := s.variations.ListByRingID(ctx, ring.ID)
		if err != nil {
			return fmt.Errorf("assignment: list variations: %w", err)
		}
		for _, variation := range variations {
			if variation.Sync {
				return fmt.Errorf("%w: family %s has synced variations; unsync them before reassigning", ErrConflict, ring.SupplierGroupID)
			}
		}
	}

	if err := s.checkReferences(ctx, input); err != nil {
		return err
	}

	err = s.rings.UpdateAssignments(ctx, input.RingID, input.GroupID, input.CategoryID, input.StyleID, input.GenderID)
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: ring %d", ErrNotFound, input.RingID)
		}
		return fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}

	s.logger.Info("family assigned",
		zap.Int64("ringId", input.RingID),
		zap.String("supplierGroupId", ring.SupplierGroupID))
	return nil
}

func (s *AssignmentService) checkReferences(ctx context.Context, input AssignInput) error {
	if s.groups != nil {
		if _, err := s.groups.Get(ctx, input.GroupID); err != nil {
			return referenceError(err, "group", input.GroupID)
		}
	}
	if s.categories != nil {
		if _, err := s.categories.Get(ctx, input.CategoryID); err != nil {
			return referenceError(err, "category", input.CategoryID)
		}
	}
	if s.styles != nil {
		if _, err := s.styles.Get(ctx, input.StyleID); err != nil {
			return referenceError(err, "style", input.StyleID)
		}
	}
	if s.genders != nil {
		if _, err := s.genders.Get(ctx, input.GenderID); err != nil {
			return referenceError(err, "gender", input.GenderID)
		}
	}
	return nil
}

func referenceError(err error, label string, id int64) error {
	if isNotFound(err) {
		return fmt.Errorf("%w: unknown %s %d", ErrInvalidInput, label, id)
	}
	return fmt.Errorf("assignment: check %s: %w", label, err)
}
