package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/attestly/poa-backend/pkg/enums"
	"github.com/attestly/poa-backend/pkg/types"
)

// POA is the aggregate root for a power of attorney instrument. It owns its
// agents, granted powers, witnesses, notary and generated documents.
type POA struct {
	ID       uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID uuid.UUID       `gorm:"column:tenant_id;type:uuid;not null;index"`
	UserID   uuid.UUID       `gorm:"column:user_id;type:uuid;not null"`
	Type     enums.POAType   `gorm:"column:type;type:poa_type;not null"`
	Family   enums.POAFamily `gorm:"column:family;type:poa_family;not null"`
	State    enums.USState   `gorm:"column:state;type:text;not null"`
	Status   enums.POAStatus `gorm:"column:status;type:poa_status;not null;default:'draft'"`

	PrincipalFullName    string        `gorm:"column:principal_full_name;type:text;not null"`
	PrincipalDateOfBirth time.Time     `gorm:"column:principal_date_of_birth;not null"`
	PrincipalEmail       string        `gorm:"column:principal_email;type:text;not null"`
	PrincipalPhone       *string       `gorm:"column:principal_phone;type:text"`
	PrincipalAddress     types.Address `gorm:"column:principal_address;type:jsonb;serializer:json"`

	GrantAllPowers    bool `gorm:"column:grant_all_powers;not null;default:false"`
	GrantAllSubPowers bool `gorm:"column:grant_all_sub_powers;not null;default:false"`

	EffectiveDate  *time.Time `gorm:"column:effective_date"`
	ExpirationDate *time.Time `gorm:"column:expiration_date"`

	SpringingCondition *string `gorm:"column:springing_condition;type:text"`
	PhysiciansRequired *int    `gorm:"column:physicians_required"`
	SpecificPurpose    *string `gorm:"column:specific_purpose;type:text"`

	HealthcareDirectives HealthcareDirectives `gorm:"column:healthcare_directives;type:jsonb;serializer:json"`

	ActiveDocumentID *uuid.UUID `gorm:"column:active_document_id;type:uuid"`
	NotarizedCopyURL *string    `gorm:"column:notarized_copy_url;type:text"`

	// DraftPayload holds the in-progress authoring payload verbatim while the
	// instrument is a draft. The typed columns above are authoritative only
	// after submission normalizes them.
	DraftPayload json.RawMessage `gorm:"column:draft_payload;type:jsonb"`

	ActivatedAt *time.Time `gorm:"column:activated_at"`
	RevokedAt   *time.Time `gorm:"column:revoked_at"`
	ExpiredAt   *time.Time `gorm:"column:expired_at"`

	Agents        []Agent        `gorm:"foreignKey:POAID;constraint:OnDelete:CASCADE"`
	GrantedPowers []GrantedPower `gorm:"foreignKey:POAID;constraint:OnDelete:CASCADE"`
	Witnesses     []Witness      `gorm:"foreignKey:POAID;constraint:OnDelete:CASCADE"`
	Notary        *NotaryPublic  `gorm:"foreignKey:POAID;constraint:OnDelete:CASCADE"`
	Documents     []POADocument  `gorm:"foreignKey:POAID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// HealthcareDirectives holds the directive matrix for healthcare instruments.
type HealthcareDirectives struct {
	MedicalTreatment     *DirectiveChoice `json:"medical_treatment,omitempty"`
	MentalHealth         *DirectiveChoice `json:"mental_health_treatment,omitempty"`
	EndOfLife            *DirectiveChoice `json:"end_of_life,omitempty"`
	OrganDonation        *DirectiveChoice `json:"organ_donation,omitempty"`
	DispositionOfRemains *DirectiveChoice `json:"disposition_of_remains,omitempty"`
}

// DirectiveChoice records whether authority over an area is granted and any
// written instructions limiting it.
type DirectiveChoice struct {
	Granted      bool   `json:"granted"`
	Instructions string `json:"instructions,omitempty"`
}

// Choice returns the directive choice for the given matrix area.
func (h HealthcareDirectives) Choice(area enums.DirectiveArea) *DirectiveChoice {
	switch area {
	case enums.DirectiveAreaMedicalTreatment:
		return h.MedicalTreatment
	case enums.DirectiveAreaMentalHealth:
		return h.MentalHealth
	case enums.DirectiveAreaEndOfLife:
		return h.EndOfLife
	case enums.DirectiveAreaOrganDonation:
		return h.OrganDonation
	case enums.DirectiveAreaRemains:
		return h.DispositionOfRemains
	}
	return nil
}

// IsExpired reports whether a limited POA has passed its stored expiration
// date. Expired is a derived status: readers consult this instead of waiting
// for the sweep to materialize the column.
func (p *POA) IsExpired(now time.Time) bool {
	if p.Type != enums.POATypeLimited || p.ExpirationDate == nil {
		return false
	}
	if p.Status != enums.POAStatusActive {
		return p.Status == enums.POAStatusExpired
	}
	return now.After(*p.ExpirationDate)
}

// EffectiveStatus resolves the derived expired state on top of the stored status.
func (p *POA) EffectiveStatus(now time.Time) enums.POAStatus {
	if p.Status == enums.POAStatusActive && p.IsExpired(now) {
		return enums.POAStatusExpired
	}
	return p.Status
}
