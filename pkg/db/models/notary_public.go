package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/attestly/poa-backend/pkg/types"
)

// NotaryPublic is the at-most-one notary attached to a POA.
type NotaryPublic struct {
	ID               uuid.UUID     `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	POAID            uuid.UUID     `gorm:"column:poa_id;type:uuid;not null;uniqueIndex"`
	FullName         string        `gorm:"column:full_name;type:text;not null"`
	CommissionNumber *string       `gorm:"column:commission_number;type:text"`
	CommissionExpiry *time.Time    `gorm:"column:commission_expiry"`
	Address          types.Address `gorm:"column:address;type:jsonb;serializer:json"`
	CreatedAt        time.Time     `gorm:"column:created_at;autoCreateTime"`
}
