package services

import (
	"context"
	"errors"
	"testing"

	"github.com/aurelia-jewels/api/internal/domain"
	"github.com/aurelia-jewels/api/internal/repositories"
)

type assignmentFixture struct {
	svc        *AssignmentService
	rings      *fakeRingRepo
	variations *fakeVariationRepo
}

func newAssignmentFixture(t *testing.T) *assignmentFixture {
	t.Helper()

	fx := &assignmentFixture{
		rings:      newFakeRingRepo(domain.Ring{ID: 1, SupplierGroupID: "FAM-100"}),
		variations: newFakeVariationRepo(),
	}

	svc, err := NewAssignmentService(AssignmentServiceDeps{
		Rings:      fx.rings,
		Variations: fx.variations,
		Groups:     newFakeGroupRepo(domain.Group{ID: 10, Name: "Signature"}),
		Categories: newFakeCategoryRepo(domain.Category{ID: 20, Name: "Engagement"}),
		Styles:     newFakeStyleRepo(domain.Style{ID: 30, Name: "Solitaire"}),
		Genders:    newFakeGenderRepo(domain.Gender{ID: 40, Name: "Women"}),
	})
	if err != nil {
		t.Fatalf("NewAssignmentService: %v", err)
	}
	fx.svc = svc
	return fx
}

func fullAssignment() AssignInput {
	return AssignInput{RingID: 1, GroupID: 10, CategoryID: 20, StyleID: 30, GenderID: 40}
}

func TestAssignWritesAllAttributes(t *testing.T) {
	fx := newAssignmentFixture(t)

	if err := fx.svc.Assign(context.Background(), fullAssignment()); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	ring := fx.rings.byID[1]
	if ring.GroupID != 10 || ring.CategoryID != 20 || ring.StyleID != 30 || ring.GenderID != 40 {
		t.Fatalf("unexpected assignment %+v", ring)
	}
}

func TestAssignRequiresEveryAttribute(t *testing.T) {
	fx := newAssignmentFixture(t)

	input := fullAssignment()
	input.StyleID = 0
	if err := fx.svc.Assign(context.Background(), input); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestAssignRejectsUnknownReference(t *testing.T) {
	fx := newAssignmentFixture(t)

	input := fullAssignment()
	input.GenderID = 99
	err := fx.svc.Assign(context.Background(), input)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if len(fx.rings.assignments) != 0 {
		t.Fatal("nothing may be written for a bad reference")
	}
}

func TestAssignBlockedBySyncedVariations(t *testing.T) {
	fx := newAssignmentFixture(t)
	synced := syncableVariation(5)
	synced.Sync = true
	synced.SyncID = "gid://catalog/Product/5"
	fx.variations.byID[5] = synced

	if err := fx.svc.Assign(context.Background(), fullAssignment()); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestAssignUnknownRingNotFound(t *testing.T) {
	fx := newAssignmentFixture(t)

	input := fullAssignment()
	input.RingID = 77
	if err := fx.svc.Assign(context.Background(), input); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListAssignedAppliesDefaultLimit(t *testing.T) {
	fx := newAssignmentFixture(t)
	fx.rings.assignedTotal = 3

	_, total, err := fx.svc.ListAssigned(context.Background(), repositories.AssignedRingFilter{})
	if err != nil {
		t.Fatalf("ListAssigned: %v", err)
	}
	if total != 3 {
		t.Fatalf("unexpected total %d", total)
	}
}
