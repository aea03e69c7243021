package poas

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/attestly/poa-backend/pkg/db/models"
	"github.com/attestly/poa-backend/pkg/enums"
	"github.com/attestly/poa-backend/pkg/pagination"
)

// Repository exposes persistence helpers for POA aggregates.
type Repository interface {
	Create(ctx context.Context, poa *models.POA) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.POA, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*models.POA, error)
	UpdateTx(tx *gorm.DB, id uuid.UUID, updates map[string]any) error
	List(ctx context.Context, params ListParams) ([]models.POA, *pagination.Cursor, error)
	ListExpiredActive(ctx context.Context, asOf time.Time, limit int) ([]models.POA, error)
	ReplacePartiesTx(tx *gorm.DB, poaID uuid.UUID, agents []models.Agent, powers []models.GrantedPower, witnesses []models.Witness, notary *models.NotaryPublic) error
}

// AgentRepository exposes persistence helpers for appointed agents.
type AgentRepository interface {
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*models.Agent, error)
	UpdateStatusTx(tx *gorm.DB, id uuid.UUID, status enums.AgentStatus, respondedAt time.Time) error
	ListByEmail(ctx context.Context, email string, statuses []enums.AgentStatus) ([]models.Agent, error)
}

// ListParams holds cursor pagination inputs for tenant-scoped POA listings.
type ListParams struct {
	TenantID uuid.UUID
	UserID   uuid.UUID
	Status   *enums.POAStatus
	Limit    int
	Cursor   *pagination.Cursor
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a POA repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) Create(ctx context.Context, poa *models.POA) error {
	return r.db.WithContext(ctx).Create(poa).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.POA, error) {
	return findPOA(r.db.WithContext(ctx), id)
}

func (r *repositoryImpl) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*models.POA, error) {
	return findPOA(tx, id)
}

func findPOA(db *gorm.DB, id uuid.UUID) (*models.POA, error) {
	var poa models.POA
	err := db.
		Preload("Agents", func(q *gorm.DB) *gorm.DB { return q.Order("fallback_order NULLS FIRST, created_at") }).
		Preload("GrantedPowers").
		Preload("Witnesses").
		Preload("Notary").
		First(&poa, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &poa, nil
}

func (r *repositoryImpl) UpdateTx(tx *gorm.DB, id uuid.UUID, updates map[string]any) error {
	return tx.Model(&models.POA{}).Where("id = ?", id).Updates(updates).Error
}

func (r *repositoryImpl) List(ctx context.Context, params ListParams) ([]models.POA, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).Model(&models.POA{}).
		Where("tenant_id = ? AND user_id = ?", params.TenantID, params.UserID)
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var poas []models.POA
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&poas).Error; err != nil {
		return nil, nil, err
	}

	if len(poas) > normalized {
		next := poas[normalized]
		poas = poas[:normalized]
		return poas, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return poas, nil, nil
}

func (r *repositoryImpl) ListExpiredActive(ctx context.Context, asOf time.Time, limit int) ([]models.POA, error) {
	var poas []models.POA
	err := r.db.WithContext(ctx).
		Where("status = ? AND type = ? AND expiration_date IS NOT NULL AND expiration_date < ?",
			enums.POAStatusActive, enums.POATypeLimited, asOf).
		Order("expiration_date").
		Limit(limit).
		Find(&poas).Error
	if err != nil {
		return nil, err
	}
	return poas, nil
}

// ReplacePartiesTx swaps the full set of child records for a POA. Submission
// re-runs through here, so stale agents or powers from a prior submit never
// linger.
func (r *repositoryImpl) ReplacePartiesTx(tx *gorm.DB, poaID uuid.UUID, agents []models.Agent, powers []models.GrantedPower, witnesses []models.Witness, notary *models.NotaryPublic) error {
	for _, model := range []any{&models.Agent{}, &models.GrantedPower{}, &models.Witness{}, &models.NotaryPublic{}} {
		if err := tx.Where("poa_id = ?", poaID).Delete(model).Error; err != nil {
			return err
		}
	}
	if len(agents) > 0 {
		if err := tx.Create(&agents).Error; err != nil {
			return err
		}
	}
	if len(powers) > 0 {
		if err := tx.Create(&powers).Error; err != nil {
			return err
		}
	}
	if len(witnesses) > 0 {
		if err := tx.Create(&witnesses).Error; err != nil {
			return err
		}
	}
	if notary != nil {
		if err := tx.Create(notary).Error; err != nil {
			return err
		}
	}
	return nil
}

type agentRepositoryImpl struct {
	db *gorm.DB
}

// NewAgentRepository returns an agent repository bound to the provided database.
func NewAgentRepository(db *gorm.DB) AgentRepository {
	return &agentRepositoryImpl{db: db}
}

func (r *agentRepositoryImpl) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*models.Agent, error) {
	var agent models.Agent
	err := tx.First(&agent, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &agent, nil
}

func (r *agentRepositoryImpl) UpdateStatusTx(tx *gorm.DB, id uuid.UUID, status enums.AgentStatus, respondedAt time.Time) error {
	return tx.Model(&models.Agent{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "responded_at": respondedAt}).Error
}

func (r *agentRepositoryImpl) ListByEmail(ctx context.Context, email string, statuses []enums.AgentStatus) ([]models.Agent, error) {
	query := r.db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	var agents []models.Agent
	if err := query.Order("created_at DESC").Find(&agents).Error; err != nil {
		return nil, err
	}
	return agents, nil
}
