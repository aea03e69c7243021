package powers

import (
	"github.com/google/uuid"

	"github.com/attestly/poa-backend/pkg/db/models"
)

type SubPowerDTO struct {
	ID   uuid.UUID `json:"id"`
	Code string    `json:"code"`
	Name string    `json:"name"`
}

type CategoryDTO struct {
	ID          uuid.UUID     `json:"id"`
	Code        string        `json:"code"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	SubPowers   []SubPowerDTO `json:"subPowers"`
}

func CatalogFromModels(categories []models.PowerCategory) []CategoryDTO {
	out := make([]CategoryDTO, 0, len(categories))
	for _, cat := range categories {
		subs := make([]SubPowerDTO, 0, len(cat.SubPowers))
		for _, sp := range cat.SubPowers {
			subs = append(subs, SubPowerDTO{ID: sp.ID, Code: sp.Code, Name: sp.Name})
		}
		out = append(out, CategoryDTO{
			ID:          cat.ID,
			Code:        cat.Code,
			Name:        cat.Name,
			Description: cat.Description,
			SubPowers:   subs,
		})
	}
	return out
}
