package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/attestly/poa-backend/pkg/logger"
)

const (
	expirationBatchSize = 100
	expirationMaxLoops  = 50
)

type expirationSweeper interface {
	SweepExpired(ctx context.Context, asOf time.Time, limit int) (int, error)
}

// ExpirationJobParams configure the limited-POA expiration sweep.
type ExpirationJobParams struct {
	Logger    *logger.Logger
	Lifecycle expirationSweeper
	BatchSize int
}

// NewExpirationJob materializes the derived expired status for limited POAs
// whose expiration date has passed. Readers already see these as expired;
// the sweep makes storage and events agree.
func NewExpirationJob(params ExpirationJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Lifecycle == nil {
		return nil, fmt.Errorf("lifecycle service required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = expirationBatchSize
	}
	return &expirationJob{
		logg:  params.Logger,
		sweep: params.Lifecycle,
		batch: batch,
		now:   time.Now,
	}, nil
}

type expirationJob struct {
	logg  *logger.Logger
	sweep expirationSweeper
	batch int
	now   func() time.Time
}

func (j *expirationJob) Name() string { return "poa-expiration-sweep" }

func (j *expirationJob) Run(ctx context.Context) error {
	asOf := j.now().UTC()
	total := 0
	for i := 0; i < expirationMaxLoops; i++ {
		swept, err := j.sweep.SweepExpired(ctx, asOf, j.batch)
		if err != nil {
			return fmt.Errorf("expiration sweep: %w", err)
		}
		total += swept
		if swept < j.batch {
			break
		}
	}
	j.logg.Info(j.logg.WithField(ctx, "expired", total), "expiration sweep finished")
	return nil
}
