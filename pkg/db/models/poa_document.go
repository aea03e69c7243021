package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/attestly/poa-backend/pkg/enums"
)

// POADocument tracks one generated instrument. A POA keeps its full history:
// regeneration supersedes the prior row instead of deleting it.
type POADocument struct {
	ID       uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	POAID    uuid.UUID            `gorm:"column:poa_id;type:uuid;not null;index"`
	Status   enums.DocumentStatus `gorm:"column:status;type:document_status;not null;default:'pending'"`
	Filename string               `gorm:"column:filename;type:text;not null"`
	Path     string               `gorm:"column:path;type:text;not null"`
	URL      *string              `gorm:"column:url;type:text"`

	PageCount    int     `gorm:"column:page_count;not null;default:0"`
	SizeBytes    int64   `gorm:"column:size_bytes;not null;default:0"`
	AttemptCount int     `gorm:"column:attempt_count;not null;default:0"`
	LastError    *string `gorm:"column:last_error;type:text"`

	GeneratedAt *time.Time `gorm:"column:generated_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
