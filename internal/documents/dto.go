package documents

import (
	"time"

	"github.com/google/uuid"

	"github.com/attestly/poa-backend/pkg/db/models"
	"github.com/attestly/poa-backend/pkg/enums"
)

// DocumentDTO exposes generated instrument metadata in API responses.
type DocumentDTO struct {
	ID           uuid.UUID            `json:"id"`
	POAID        uuid.UUID            `json:"poa_id"`
	Status       enums.DocumentStatus `json:"status"`
	Filename     string               `json:"filename,omitempty"`
	PageCount    int                  `json:"page_count"`
	SizeBytes    int64                `json:"size_bytes"`
	AttemptCount int                  `json:"attempt_count"`
	LastError    *string              `json:"last_error,omitempty"`
	GeneratedAt  *time.Time           `json:"generated_at,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
}

// FromModel maps the persisted document into a DTO.
func FromModel(m *models.POADocument) *DocumentDTO {
	if m == nil {
		return nil
	}
	return &DocumentDTO{
		ID:           m.ID,
		POAID:        m.POAID,
		Status:       m.Status,
		Filename:     m.Filename,
		PageCount:    m.PageCount,
		SizeBytes:    m.SizeBytes,
		AttemptCount: m.AttemptCount,
		LastError:    m.LastError,
		GeneratedAt:  m.GeneratedAt,
		CreatedAt:    m.CreatedAt,
	}
}

// ListFromModels maps document history into DTOs.
func ListFromModels(ms []models.POADocument) []DocumentDTO {
	out := make([]DocumentDTO, 0, len(ms))
	for i := range ms {
		out = append(out, *FromModel(&ms[i]))
	}
	return out
}
