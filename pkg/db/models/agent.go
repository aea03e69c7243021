package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/attestly/poa-backend/pkg/enums"
	"github.com/attestly/poa-backend/pkg/types"
)

// Agent is a person granted authority under a POA. Order is meaningful only
// for successors, where it defines the fallback sequence.
type Agent struct {
	ID     uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	POAID  uuid.UUID         `gorm:"column:poa_id;type:uuid;not null;index"`
	Role   enums.AgentRole   `gorm:"column:role;type:agent_role;not null"`
	Order  *int              `gorm:"column:fallback_order"`
	Status enums.AgentStatus `gorm:"column:status;type:agent_status;not null;default:'pending'"`

	FullName string        `gorm:"column:full_name;type:text;not null"`
	Email    string        `gorm:"column:email;type:text;not null"`
	Phone    *string       `gorm:"column:phone;type:text"`
	Address  types.Address `gorm:"column:address;type:jsonb;serializer:json"`

	RespondedAt *time.Time `gorm:"column:responded_at"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
