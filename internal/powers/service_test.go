package powers

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/attestly/poa-backend/internal/validation"
	"github.com/attestly/poa-backend/pkg/db/models"
	pkgerrors "github.com/attestly/poa-backend/pkg/errors"
)

type stubCatalogRepo struct {
	categories []models.PowerCategory
	err        error
}

func (s *stubCatalogRepo) ListCategories(ctx context.Context) ([]models.PowerCategory, error) {
	return s.categories, s.err
}

func (s *stubCatalogRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.PowerCategory, error) {
	if s.err != nil {
		return nil, s.err
	}
	want := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []models.PowerCategory
	for _, cat := range s.categories {
		if want[cat.ID] {
			out = append(out, cat)
		}
	}
	return out, nil
}

func catalogFixture() []models.PowerCategory {
	realEstate := uuid.New()
	banking := uuid.New()
	return []models.PowerCategory{
		{
			ID:   realEstate,
			Code: "real_property",
			Name: "Real Property",
			SubPowers: []models.SubPower{
				{ID: uuid.New(), CategoryID: realEstate, Code: "buy_sell", Name: "Buy and Sell Real Property"},
				{ID: uuid.New(), CategoryID: realEstate, Code: "lease", Name: "Lease Real Property"},
			},
		},
		{
			ID:   banking,
			Code: "banks",
			Name: "Banks and Other Financial Institutions",
			SubPowers: []models.SubPower{
				{ID: uuid.New(), CategoryID: banking, Code: "accounts", Name: "Operate Accounts"},
			},
		},
	}
}

func TestResolveGrantsFillsCatalogDetails(t *testing.T) {
	catalog := catalogFixture()
	svc, err := NewService(&stubCatalogRepo{categories: catalog})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	n := &validation.NormalizedPOA{
		Powers: validation.PowerGrantSet{
			Selections: []validation.PowerGrant{
				{CategoryID: catalog[0].ID, AllSubPowers: true},
			},
		},
	}
	if err := svc.ResolveGrants(context.Background(), n); err != nil {
		t.Fatalf("ResolveGrants: %v", err)
	}
	if len(n.Powers.Selections) != 1 {
		t.Fatalf("expected 1 selection, got %d", len(n.Powers.Selections))
	}
	sel := n.Powers.Selections[0]
	if sel.CategoryCode != "real_property" || sel.CategoryName != "Real Property" {
		t.Fatalf("unexpected category details: %+v", sel)
	}
	if len(sel.SubPowers) != 2 {
		t.Fatalf("expected 2 sub-powers, got %d", len(sel.SubPowers))
	}
}

func TestResolveGrantsMaterializesGrantAll(t *testing.T) {
	catalog := catalogFixture()
	svc, _ := NewService(&stubCatalogRepo{categories: catalog})

	n := &validation.NormalizedPOA{
		Powers: validation.PowerGrantSet{GrantAll: true, GrantAllSubPowers: true},
	}
	if err := svc.ResolveGrants(context.Background(), n); err != nil {
		t.Fatalf("ResolveGrants: %v", err)
	}
	if len(n.Powers.Selections) != len(catalog) {
		t.Fatalf("expected %d selections, got %d", len(catalog), len(n.Powers.Selections))
	}
	for _, sel := range n.Powers.Selections {
		if !sel.AllSubPowers {
			t.Fatalf("expected all sub-powers granted for %s", sel.CategoryCode)
		}
	}
}

func TestResolveGrantsRejectsUnknownCategory(t *testing.T) {
	svc, _ := NewService(&stubCatalogRepo{categories: catalogFixture()})

	n := &validation.NormalizedPOA{
		Powers: validation.PowerGrantSet{
			Selections: []validation.PowerGrant{{CategoryID: uuid.New()}},
		},
	}
	err := svc.ResolveGrants(context.Background(), n)
	if err == nil {
		t.Fatal("expected error for unknown category")
	}
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
