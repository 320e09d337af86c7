package repository

import (
	"context"
	"sync"
	"time"

	"karenta/internal/models"
)

// MemorySessionRepository is the in-process fallback used when Redis is
// unavailable. Sessions do not survive a restart.
type MemorySessionRepository struct {
	sessions   sync.Map
	rateLimits sync.Map
	ttl        time.Duration
}

func NewMemorySessionRepository(ttl time.Duration) *MemorySessionRepository {
	return &MemorySessionRepository{
		ttl: ttl,
	}
}

func (r *MemorySessionRepository) GetSession(ctx context.Context, actorID int64, kind string) (*models.WizardSession, error) {
	val, ok := r.sessions.Load(sessionKey(actorID, kind))
	if !ok {
		return nil, nil
	}
	return val.(*models.WizardSession), nil
}

func (r *MemorySessionRepository) SetSession(ctx context.Context, session *models.WizardSession) error {
	r.sessions.Store(sessionKey(session.ActorID, session.Kind), session)
	return nil
}

func (r *MemorySessionRepository) ClearSession(ctx context.Context, actorID int64, kind string) error {
	r.sessions.Delete(sessionKey(actorID, kind))
	return nil
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

func (r *MemorySessionRepository) CheckRateLimit(ctx context.Context, actorID int64, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	val, ok := r.rateLimits.Load(actorID)

	var entry *rateLimitEntry
	if !ok {
		entry = &rateLimitEntry{
			count:     1,
			expiresAt: now.Add(window),
		}
	} else {
		entry = val.(*rateLimitEntry)
		if now.After(entry.expiresAt) {
			entry.count = 1
			entry.expiresAt = now.Add(window)
		} else {
			entry.count++
		}
	}

	r.rateLimits.Store(actorID, entry)
	return entry.count <= limit, nil
}
