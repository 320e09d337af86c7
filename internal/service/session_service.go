package service

import (
	"context"
	"time"

	"karenta/internal/domain"
	"karenta/internal/models"
	"karenta/internal/wizard"

	"github.com/rs/zerolog"
)

// SessionService owns the lifecycle of wizard sessions: one live session
// per actor and wizard kind, stored behind the failover repository.
type SessionService struct {
	sessions  domain.SessionRepository
	rateLimit int
	rateWin   time.Duration
	logger    *zerolog.Logger
}

func NewSessionService(sessions domain.SessionRepository, rateLimit int, rateWindow time.Duration, logger *zerolog.Logger) *SessionService {
	if rateLimit <= 0 {
		rateLimit = models.RateLimitRequests
	}
	if rateWindow <= 0 {
		rateWindow = models.RateLimitWindow * time.Second
	}
	return &SessionService{
		sessions:  sessions,
		rateLimit: rateLimit,
		rateWin:   rateWindow,
		logger:    logger,
	}
}

// StartWizard creates a fresh session at step 1, replacing any existing
// session of the same kind.
func (s *SessionService) StartWizard(ctx context.Context, actorID int64, kind string) (*models.WizardSession, error) {
	def, err := wizard.ForKind(kind)
	if err != nil {
		return nil, err
	}

	session := &models.WizardSession{
		ActorID:     actorID,
		Kind:        kind,
		CurrentStep: 1,
		TotalSteps:  len(def.Steps),
		Form:        make(map[string]interface{}),
		StartedAt:   time.Now(),
	}
	if err := s.sessions.SetSession(ctx, session); err != nil {
		s.logger.Error().Err(err).Int64("actor_id", actorID).Str("kind", kind).Msg("failed to start wizard session")
		return nil, err
	}
	return session, nil
}

func (s *SessionService) GetSession(ctx context.Context, actorID int64, kind string) (*models.WizardSession, error) {
	session, err := s.sessions.GetSession(ctx, actorID, kind)
	if err != nil {
		s.logger.Error().Err(err).Int64("actor_id", actorID).Str("kind", kind).Msg("failed to get wizard session")
		return nil, err
	}
	return session, nil
}

func (s *SessionService) SaveSession(ctx context.Context, session *models.WizardSession) error {
	return s.sessions.SetSession(ctx, session)
}

func (s *SessionService) ClearSession(ctx context.Context, actorID int64, kind string) error {
	return s.sessions.ClearSession(ctx, actorID, kind)
}

func (s *SessionService) CheckRateLimit(ctx context.Context, actorID int64) (bool, error) {
	return s.sessions.CheckRateLimit(ctx, actorID, s.rateLimit, s.rateWin)
}
