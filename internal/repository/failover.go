package repository

import (
	"context"
	"sync/atomic"
	"time"

	"karenta/internal/domain"
	"karenta/internal/models"

	"github.com/rs/zerolog"
)

// FailoverSessionRepository serves from the primary (Redis) until it errors,
// then degrades to the fallback (memory) and probes the primary again after
// a minute.
type FailoverSessionRepository struct {
	primary   domain.SessionRepository
	fallback  domain.SessionRepository
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck time.Time
}

func NewFailoverSessionRepository(primary, fallback domain.SessionRepository, logger *zerolog.Logger) *FailoverSessionRepository {
	return &FailoverSessionRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverSessionRepository) markDown(err error) {
	r.logger.Error().Err(err).Msg("Primary session repository failed, falling back to memory")
	r.isDown.Store(true)
	r.lastCheck = time.Now()
}

func (r *FailoverSessionRepository) GetSession(ctx context.Context, actorID int64, kind string) (*models.WizardSession, error) {
	if !r.isDown.Load() {
		session, err := r.primary.GetSession(ctx, actorID, kind)
		if err == nil {
			return session, nil
		}
		r.markDown(err)
	}

	// Probe the primary again after a minute of degraded operation.
	if r.isDown.Load() && time.Since(r.lastCheck) > time.Minute {
		session, err := r.primary.GetSession(ctx, actorID, kind)
		if err == nil {
			r.isDown.Store(false)
			return session, nil
		}
		r.lastCheck = time.Now()
	}

	return r.fallback.GetSession(ctx, actorID, kind)
}

func (r *FailoverSessionRepository) SetSession(ctx context.Context, session *models.WizardSession) error {
	if !r.isDown.Load() {
		err := r.primary.SetSession(ctx, session)
		if err == nil {
			return nil
		}
		r.markDown(err)
	}

	return r.fallback.SetSession(ctx, session)
}

func (r *FailoverSessionRepository) ClearSession(ctx context.Context, actorID int64, kind string) error {
	if !r.isDown.Load() {
		err := r.primary.ClearSession(ctx, actorID, kind)
		if err == nil {
			return nil
		}
		r.markDown(err)
	}

	return r.fallback.ClearSession(ctx, actorID, kind)
}

func (r *FailoverSessionRepository) CheckRateLimit(ctx context.Context, actorID int64, limit int, window time.Duration) (bool, error) {
	if !r.isDown.Load() {
		allowed, err := r.primary.CheckRateLimit(ctx, actorID, limit, window)
		if err == nil {
			return allowed, nil
		}
		r.markDown(err)
	}

	return r.fallback.CheckRateLimit(ctx, actorID, limit, window)
}
