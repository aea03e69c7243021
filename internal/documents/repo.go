package documents

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/attestly/poa-backend/pkg/db/models"
	"github.com/attestly/poa-backend/pkg/enums"
)

// Repository exposes persistence helpers for generated instruments.
type Repository interface {
	CreateTx(tx *gorm.DB, doc *models.POADocument) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.POADocument, error)
	ListByPOA(ctx context.Context, poaID uuid.UUID) ([]models.POADocument, error)
	SupersedeActiveTx(tx *gorm.DB, poaID uuid.UUID) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a document repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) CreateTx(tx *gorm.DB, doc *models.POADocument) error {
	return tx.Create(doc).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.POADocument, error) {
	var doc models.POADocument
	err := r.db.WithContext(ctx).First(&doc, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *repositoryImpl) ListByPOA(ctx context.Context, poaID uuid.UUID) ([]models.POADocument, error) {
	var docs []models.POADocument
	err := r.db.WithContext(ctx).
		Where("poa_id = ?", poaID).
		Order("created_at DESC").
		Find(&docs).Error
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// SupersedeActiveTx retires every generated document for the POA. Document
// history is append-only: rows flip to superseded, they are never deleted.
func (r *repositoryImpl) SupersedeActiveTx(tx *gorm.DB, poaID uuid.UUID) error {
	return tx.Model(&models.POADocument{}).
		Where("poa_id = ? AND status = ?", poaID, enums.DocumentStatusGenerated).
		Update("status", enums.DocumentStatusSuperseded).Error
}
