package documents

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/attestly/poa-backend/internal/assembler"
	"github.com/attestly/poa-backend/internal/validation"
	"github.com/attestly/poa-backend/pkg/config"
	"github.com/attestly/poa-backend/pkg/db/models"
	"github.com/attestly/poa-backend/pkg/enums"
	pkgerrors "github.com/attestly/poa-backend/pkg/errors"
	"github.com/attestly/poa-backend/pkg/logger"
	"github.com/attestly/poa-backend/pkg/metrics"
	"github.com/attestly/poa-backend/pkg/outbox"
)

const pdfContentType = "application/pdf"

type poaSource interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.POA, error)
	UpdateTx(tx *gorm.DB, id uuid.UUID, updates map[string]any) error
}

type grantResolver interface {
	ResolveGrants(ctx context.Context, n *validation.NormalizedPOA) error
}

type instrumentRenderer interface {
	Assemble(ctx context.Context, n *validation.NormalizedPOA, opts assembler.Options) (*assembler.Artifact, error)
}

type blobStore interface {
	Upload(ctx context.Context, bucket, object, contentType string, data []byte) error
	SignedReadURL(bucket, object string, expires time.Duration) (string, error)
	DefaultBucket() string
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service runs the two-phase document pipeline: render and upload first,
// then link the document to its POA transactionally. A failure at any point
// leaves the POA a draft with no document reference, so submission can
// always be retried.
type Service interface {
	GenerateForPOA(ctx context.Context, poaID uuid.UUID) (*models.POADocument, error)
	SignedURL(ctx context.Context, documentID uuid.UUID, expires time.Duration) (string, error)
	ListByPOA(ctx context.Context, poaID uuid.UUID) ([]models.POADocument, error)
}

type service struct {
	repo     Repository
	poas     poaSource
	engine   *validation.Engine
	powers   grantResolver
	renderer instrumentRenderer
	blobs    blobStore
	tx       txRunner
	events   outboxEmitter
	observer *metrics.AssemblyMetrics
	log      *logger.Logger

	maxAttempts int
	retryDelay  time.Duration
	now         func() time.Time
	sleep       func(time.Duration)
}

func NewService(
	repo Repository,
	poas poaSource,
	engine *validation.Engine,
	powers grantResolver,
	renderer instrumentRenderer,
	blobs blobStore,
	tx txRunner,
	events outboxEmitter,
	observer *metrics.AssemblyMetrics,
	log *logger.Logger,
	cfg config.AssemblyConfig,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("document repository required")
	}
	if poas == nil {
		return nil, fmt.Errorf("poa source required")
	}
	if engine == nil {
		return nil, fmt.Errorf("validation engine required")
	}
	if powers == nil {
		return nil, fmt.Errorf("grant resolver required")
	}
	if renderer == nil {
		return nil, fmt.Errorf("renderer required")
	}
	if blobs == nil {
		return nil, fmt.Errorf("blob store required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if events == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &service{
		repo:        repo,
		poas:        poas,
		engine:      engine,
		powers:      powers,
		renderer:    renderer,
		blobs:       blobs,
		tx:          tx,
		events:      events,
		observer:    observer,
		log:         log,
		maxAttempts: maxAttempts,
		retryDelay:  cfg.RetryDelay,
		now:         time.Now,
		sleep:       time.Sleep,
	}, nil
}

// documentEventData is the payload for document lifecycle events.
type documentEventData struct {
	DocumentID uuid.UUID `json:"documentId"`
	POAID      uuid.UUID `json:"poaId"`
	TenantID   uuid.UUID `json:"tenantId"`
	Filename   string    `json:"filename,omitempty"`
	PageCount  int       `json:"pageCount,omitempty"`
	Reason     string    `json:"reason,omitempty"`
}

func (s *service) GenerateForPOA(ctx context.Context, poaID uuid.UUID) (*models.POADocument, error) {
	ctx = s.log.WithPOAID(ctx, poaID.String())

	poa, err := s.poas.FindByID(ctx, poaID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load poa")
	}
	if poa == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "poa not found")
	}
	if poa.Status != enums.POAStatusDraft {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "documents are generated for drafts only").
			WithDetails(map[string]any{"currentStatus": poa.Status})
	}
	if len(poa.DraftPayload) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "poa has no submitted payload")
	}

	var payload validation.Payload
	if err := json.Unmarshal(poa.DraftPayload, &payload); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode draft payload")
	}
	normalized, appErr := s.engine.Normalize(&payload)
	if appErr != nil {
		return nil, appErr
	}
	if err := s.powers.ResolveGrants(ctx, normalized); err != nil {
		return nil, err
	}

	started := s.now()
	artifact, attempts, renderErr := s.render(ctx, poa, normalized)
	if renderErr != nil {
		return nil, s.recordFailure(ctx, poa, attempts, renderErr)
	}

	bucket := s.blobs.DefaultBucket()
	if err := s.blobs.Upload(ctx, bucket, artifact.ObjectPath, pdfContentType, artifact.Bytes); err != nil {
		uploadErr := pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload instrument")
		return nil, s.recordFailure(ctx, poa, attempts, uploadErr)
	}

	generatedAt := s.now().UTC()
	doc := &models.POADocument{
		ID:           uuid.New(),
		POAID:        poa.ID,
		Status:       enums.DocumentStatusGenerated,
		Filename:     artifact.Filename,
		Path:         artifact.ObjectPath,
		PageCount:    artifact.PageCount,
		SizeBytes:    int64(len(artifact.Bytes)),
		AttemptCount: attempts,
		GeneratedAt:  &generatedAt,
	}

	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.SupersedeActiveTx(tx, poa.ID); err != nil {
			return err
		}
		if err := s.repo.CreateTx(tx, doc); err != nil {
			return err
		}
		if err := s.poas.UpdateTx(tx, poa.ID, map[string]any{"active_document_id": doc.ID}); err != nil {
			return err
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventDocumentGenerated,
			AggregateType: enums.AggregateDocument,
			AggregateID:   doc.ID,
			Data: documentEventData{
				DocumentID: doc.ID,
				POAID:      poa.ID,
				TenantID:   poa.TenantID,
				Filename:   doc.Filename,
				PageCount:  doc.PageCount,
			},
		})
	})
	if txErr != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, txErr, "link generated document")
	}

	if s.observer != nil {
		s.observer.ObserveSuccess(string(poa.Family), s.now().Sub(started), doc.PageCount)
	}
	s.log.Info(ctx, "instrument generated")
	return doc, nil
}

// render retries transient assembly failures up to the configured attempt
// budget. Non-retryable failures stop immediately.
func (s *service) render(ctx context.Context, poa *models.POA, n *validation.NormalizedPOA) (*assembler.Artifact, int, error) {
	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		artifact, err := s.renderer.Assemble(ctx, n, assembler.Options{
			GeneratedAt: s.now().UTC(),
			TenantID:    poa.TenantID.String(),
			POAID:       poa.ID.String(),
		})
		if err == nil {
			return artifact, attempt, nil
		}
		lastErr = err
		if !pkgerrors.Retryable(err) || attempt == s.maxAttempts {
			return nil, attempt, err
		}
		if s.observer != nil {
			s.observer.IncRetry()
		}
		s.log.Warn(ctx, "assembly attempt failed, retrying")
		if s.retryDelay > 0 {
			s.sleep(s.retryDelay)
		}
	}
	return nil, s.maxAttempts, lastErr
}

// recordFailure persists the failed attempt and emits the failure event. The
// POA itself is untouched: no document reference, status stays draft.
func (s *service) recordFailure(ctx context.Context, poa *models.POA, attempts int, cause error) error {
	reason := failureReason(cause)
	if s.observer != nil {
		s.observer.IncFailure(reason)
	}

	message := cause.Error()
	doc := &models.POADocument{
		ID:           uuid.New(),
		POAID:        poa.ID,
		Status:       enums.DocumentStatusFailed,
		Filename:     "",
		Path:         "",
		AttemptCount: attempts,
		LastError:    &message,
	}
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.CreateTx(tx, doc); err != nil {
			return err
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventDocumentFailed,
			AggregateType: enums.AggregateDocument,
			AggregateID:   doc.ID,
			Data: documentEventData{
				DocumentID: doc.ID,
				POAID:      poa.ID,
				TenantID:   poa.TenantID,
				Reason:     reason,
			},
		})
	})
	if txErr != nil {
		s.log.Error(ctx, "recording assembly failure", txErr)
	}
	s.log.Error(ctx, "instrument generation failed", cause)
	// Exhausted attempts are terminal for this delivery even when the
	// underlying cause was transient.
	if pkgerrors.Retryable(cause) && attempts >= s.maxAttempts {
		return pkgerrors.Wrap(pkgerrors.CodeAssembly, cause, "assembly attempts exhausted")
	}
	return cause
}

func failureReason(err error) string {
	appErr := pkgerrors.As(err)
	if appErr == nil {
		return "internal"
	}
	switch appErr.Code() {
	case pkgerrors.CodeAssemblyRetry:
		return "timeout"
	case pkgerrors.CodeAssembly, pkgerrors.CodeValidation:
		return "validation"
	case pkgerrors.CodeDependency:
		return "upload"
	default:
		return "internal"
	}
}

func (s *service) SignedURL(ctx context.Context, documentID uuid.UUID, expires time.Duration) (string, error) {
	doc, err := s.repo.FindByID(ctx, documentID)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load document")
	}
	if doc == nil {
		return "", pkgerrors.New(pkgerrors.CodeNotFound, "document not found")
	}
	if doc.Status != enums.DocumentStatusGenerated {
		return "", pkgerrors.New(pkgerrors.CodeStateConflict, "document is not downloadable").
			WithDetails(map[string]any{"currentStatus": doc.Status})
	}
	url, err := s.blobs.SignedReadURL(s.blobs.DefaultBucket(), doc.Path, expires)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sign download url")
	}
	return url, nil
}

func (s *service) ListByPOA(ctx context.Context, poaID uuid.UUID) ([]models.POADocument, error) {
	docs, err := s.repo.ListByPOA(ctx, poaID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list documents")
	}
	return docs, nil
}
