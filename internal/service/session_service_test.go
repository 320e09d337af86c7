package service

import (
	"context"
	"io"
	"testing"
	"time"

	"karenta/internal/models"
	"karenta/internal/repository"
	"karenta/internal/wizard"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSessionService() *SessionService {
	logger := zerolog.New(io.Discard)
	return NewSessionService(repository.NewMemorySessionRepository(time.Hour), 2, time.Minute, &logger)
}

func TestStartWizard(t *testing.T) {
	svc := newSessionService()
	ctx := context.Background()

	session, err := svc.StartWizard(ctx, 42, models.WizardBooking)
	require.NoError(t, err)
	assert.Equal(t, 1, session.CurrentStep)
	assert.Equal(t, 7, session.TotalSteps)
	assert.NotNil(t, session.Form)

	loaded, err := svc.GetSession(ctx, 42, models.WizardBooking)
	require.NoError(t, err)
	assert.Equal(t, session.TotalSteps, loaded.TotalSteps)
}

func TestStartWizardUnknownKind(t *testing.T) {
	svc := newSessionService()

	_, err := svc.StartWizard(context.Background(), 42, "banquet")
	assert.ErrorIs(t, err, wizard.ErrUnknownKind)
}

func TestStartWizardReplacesExisting(t *testing.T) {
	svc := newSessionService()
	ctx := context.Background()

	first, err := svc.StartWizard(ctx, 42, models.WizardBooking)
	require.NoError(t, err)
	first.Set("vehicle_id", int64(7))
	require.NoError(t, svc.SaveSession(ctx, first))

	_, err = svc.StartWizard(ctx, 42, models.WizardBooking)
	require.NoError(t, err)

	loaded, err := svc.GetSession(ctx, 42, models.WizardBooking)
	require.NoError(t, err)
	assert.Zero(t, loaded.GetInt64("vehicle_id"))
}

func TestCheckRateLimit(t *testing.T) {
	svc := newSessionService()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := svc.CheckRateLimit(ctx, 42)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := svc.CheckRateLimit(ctx, 42)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClearSession(t *testing.T) {
	svc := newSessionService()
	ctx := context.Background()

	_, err := svc.StartWizard(ctx, 42, models.WizardDecline)
	require.NoError(t, err)
	require.NoError(t, svc.ClearSession(ctx, 42, models.WizardDecline))

	loaded, err := svc.GetSession(ctx, 42, models.WizardDecline)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}
