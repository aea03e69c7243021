package models

import (
	"time"

	"github.com/google/uuid"
)

// PowerCategory is read-only catalog data following the Uniform Power of
// Attorney Act taxonomy.
type PowerCategory struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code        string     `gorm:"column:code;type:text;not null;uniqueIndex"`
	Name        string     `gorm:"column:name;type:text;not null"`
	Description string     `gorm:"column:description;type:text"`
	SortOrder   int        `gorm:"column:sort_order;not null"`
	SubPowers   []SubPower `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
}

// SubPower is an individual power within a category.
type SubPower struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CategoryID uuid.UUID `gorm:"column:category_id;type:uuid;not null;index"`
	Code       string    `gorm:"column:code;type:text;not null"`
	Name       string    `gorm:"column:name;type:text;not null"`
	SortOrder  int       `gorm:"column:sort_order;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}
