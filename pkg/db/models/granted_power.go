package models

import (
	"time"

	"github.com/google/uuid"
)

// GrantedPower associates a POA with one power category. When AllSubPowers is
// false, the granted subset is listed in SubPowerIDs.
type GrantedPower struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	POAID        uuid.UUID `gorm:"column:poa_id;type:uuid;not null;index"`
	CategoryID   uuid.UUID `gorm:"column:category_id;type:uuid;not null"`
	AllSubPowers bool      `gorm:"column:all_sub_powers;not null;default:false"`
	SubPowerIDs  UUIDList  `gorm:"column:sub_power_ids;type:jsonb;serializer:json"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

// UUIDList is a jsonb-serialized list of ids.
type UUIDList []uuid.UUID
