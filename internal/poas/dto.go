package poas

import (
	"time"

	"github.com/google/uuid"

	"github.com/attestly/poa-backend/pkg/db/models"
	"github.com/attestly/poa-backend/pkg/enums"
	"github.com/attestly/poa-backend/pkg/types"
)

// POADTO exposes safe instrument data in API responses. Status is always the
// effective status: a limited POA past its expiration reads as expired even
// before the sweep materializes it.
type POADTO struct {
	ID       uuid.UUID       `json:"id"`
	Type     enums.POAType   `json:"type"`
	Family   enums.POAFamily `json:"family"`
	State    enums.USState   `json:"state"`
	Status   enums.POAStatus `json:"status"`

	PrincipalFullName string `json:"principal_full_name"`
	PrincipalEmail    string `json:"principal_email"`

	GrantAllPowers bool `json:"grant_all_powers"`

	EffectiveDate      *time.Time `json:"effective_date,omitempty"`
	ExpirationDate     *time.Time `json:"expiration_date,omitempty"`
	SpringingCondition *string    `json:"springing_condition,omitempty"`
	SpecificPurpose    *string    `json:"specific_purpose,omitempty"`

	ActiveDocumentID *uuid.UUID `json:"active_document_id,omitempty"`
	NotarizedCopyURL *string    `json:"notarized_copy_url,omitempty"`

	Agents    []AgentDTO `json:"agents,omitempty"`
	Witnesses int        `json:"witness_count"`
	Notarized bool       `json:"has_notary"`

	ActivatedAt *time.Time `json:"activated_at,omitempty"`
	RevokedAt   *time.Time `json:"revoked_at,omitempty"`
	ExpiredAt   *time.Time `json:"expired_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// AgentDTO exposes one appointed agent.
type AgentDTO struct {
	ID          uuid.UUID         `json:"id"`
	Role        enums.AgentRole   `json:"role"`
	Order       *int              `json:"order,omitempty"`
	Status      enums.AgentStatus `json:"status"`
	FullName    string            `json:"full_name"`
	Email       string            `json:"email"`
	Address     types.Address     `json:"address"`
	RespondedAt *time.Time        `json:"responded_at,omitempty"`
}

// FromModel maps the persisted POA into a DTO as of the given time.
func FromModel(m *models.POA, now time.Time) *POADTO {
	if m == nil {
		return nil
	}

	dto := &POADTO{
		ID:                 m.ID,
		Type:               m.Type,
		Family:             m.Family,
		State:              m.State,
		Status:             m.EffectiveStatus(now),
		PrincipalFullName:  m.PrincipalFullName,
		PrincipalEmail:     m.PrincipalEmail,
		GrantAllPowers:     m.GrantAllPowers,
		EffectiveDate:      m.EffectiveDate,
		ExpirationDate:     m.ExpirationDate,
		SpringingCondition: m.SpringingCondition,
		SpecificPurpose:    m.SpecificPurpose,
		ActiveDocumentID:   m.ActiveDocumentID,
		NotarizedCopyURL:   m.NotarizedCopyURL,
		Witnesses:          len(m.Witnesses),
		Notarized:          m.Notary != nil,
		ActivatedAt:        m.ActivatedAt,
		RevokedAt:          m.RevokedAt,
		ExpiredAt:          m.ExpiredAt,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
	for i := range m.Agents {
		dto.Agents = append(dto.Agents, AgentFromModel(&m.Agents[i]))
	}
	return dto
}

// AgentFromModel maps the persisted agent into a DTO.
func AgentFromModel(m *models.Agent) AgentDTO {
	return AgentDTO{
		ID:          m.ID,
		Role:        m.Role,
		Order:       m.Order,
		Status:      m.Status,
		FullName:    m.FullName,
		Email:       m.Email,
		Address:     m.Address,
		RespondedAt: m.RespondedAt,
	}
}

// ListFromModels maps a page of POAs into summary DTOs.
func ListFromModels(ms []models.POA, now time.Time) []POADTO {
	out := make([]POADTO, 0, len(ms))
	for i := range ms {
		out = append(out, *FromModel(&ms[i], now))
	}
	return out
}
