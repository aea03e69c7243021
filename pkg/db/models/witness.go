package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/attestly/poa-backend/pkg/types"
)

// Witness identifies a person attesting to the principal's signature.
type Witness struct {
	ID        uuid.UUID     `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	POAID     uuid.UUID     `gorm:"column:poa_id;type:uuid;not null;index"`
	FullName  string        `gorm:"column:full_name;type:text;not null"`
	Address   types.Address `gorm:"column:address;type:jsonb;serializer:json"`
	CreatedAt time.Time     `gorm:"column:created_at;autoCreateTime"`
}
