package powers

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/attestly/poa-backend/internal/validation"
	"github.com/attestly/poa-backend/pkg/db/models"
	pkgerrors "github.com/attestly/poa-backend/pkg/errors"
)

type catalogRepository interface {
	ListCategories(ctx context.Context) ([]models.PowerCategory, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.PowerCategory, error)
}

// Service resolves power grant selections against the UPOAA catalog.
type Service interface {
	ListCatalog(ctx context.Context) ([]models.PowerCategory, error)
	// ResolveGrants fills in category names and sub-power listings on the
	// normalized instrument, materializing grant-all into the full catalog.
	ResolveGrants(ctx context.Context, n *validation.NormalizedPOA) error
}

type service struct {
	repo catalogRepository
}

func NewService(repo catalogRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListCatalog(ctx context.Context) ([]models.PowerCategory, error) {
	return s.repo.ListCategories(ctx)
}

func (s *service) ResolveGrants(ctx context.Context, n *validation.NormalizedPOA) error {
	if n == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "normalized instrument required")
	}

	if n.Powers.GrantAll {
		categories, err := s.repo.ListCategories(ctx)
		if err != nil {
			return err
		}
		n.Powers.Selections = selectionsFrom(categories, n.Powers.GrantAllSubPowers)
		return nil
	}

	ids := make([]uuid.UUID, 0, len(n.Powers.Selections))
	for _, sel := range n.Powers.Selections {
		ids = append(ids, sel.CategoryID)
	}
	categories, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return err
	}
	byID := make(map[uuid.UUID]models.PowerCategory, len(categories))
	for _, cat := range categories {
		byID[cat.ID] = cat
	}

	resolved := make([]validation.PowerGrant, 0, len(n.Powers.Selections))
	for _, sel := range n.Powers.Selections {
		cat, ok := byID[sel.CategoryID]
		if !ok {
			return pkgerrors.New(pkgerrors.CodeValidation, "unknown power category").
				WithDetails(map[string]any{"categoryId": sel.CategoryID})
		}
		resolved = append(resolved, grantFrom(cat, sel.AllSubPowers))
	}
	n.Powers.Selections = resolved
	return nil
}

func selectionsFrom(categories []models.PowerCategory, allSubPowers bool) []validation.PowerGrant {
	out := make([]validation.PowerGrant, 0, len(categories))
	for _, cat := range categories {
		out = append(out, grantFrom(cat, allSubPowers))
	}
	return out
}

func grantFrom(cat models.PowerCategory, allSubPowers bool) validation.PowerGrant {
	grant := validation.PowerGrant{
		CategoryID:   cat.ID,
		CategoryCode: cat.Code,
		CategoryName: cat.Name,
		AllSubPowers: allSubPowers,
	}
	for _, sub := range cat.SubPowers {
		grant.SubPowers = append(grant.SubPowers, validation.SubPowerRef{ID: sub.ID, Name: sub.Name})
	}
	return grant
}
