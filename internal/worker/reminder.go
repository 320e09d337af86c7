package worker

import (
	"context"
	"fmt"
	"time"

	"karenta/internal/domain"
	"karenta/internal/models"

	"github.com/rs/zerolog"
)

// ReminderScheduler queues a reminder email each day for every booking
// picking up the following day.
type ReminderScheduler struct {
	store  domain.Store
	queue  domain.SyncWorker
	hour   int
	logger *zerolog.Logger
}

// NewReminderScheduler parses reminderTime ("HH:MM"); an empty or invalid
// value falls back to the default hour.
func NewReminderScheduler(store domain.Store, queue domain.SyncWorker, reminderTime string, logger *zerolog.Logger) *ReminderScheduler {
	hour := models.ReminderHour
	if reminderTime != "" {
		var h, m int
		if _, err := fmt.Sscanf(reminderTime, "%d:%d", &h, &m); err == nil && h >= 0 && h < 24 {
			hour = h
		} else {
			logger.Warn().Str("reminder_time", reminderTime).Msg("Invalid reminder time, using default")
		}
	}
	return &ReminderScheduler{
		store:  store,
		queue:  queue,
		hour:   hour,
		logger: logger,
	}
}

// Start runs until ctx is done, firing once per day at the configured hour.
func (r *ReminderScheduler) Start(ctx context.Context) {
	go func() {
		timer := time.NewTimer(timeUntilNextHour(r.hour))
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
				r.QueueTomorrowReminders(ctx)
				timer.Reset(24 * time.Hour)
			}
		}
	}()
}

// QueueTomorrowReminders enqueues a reminder email for every occupying
// booking that picks up tomorrow.
func (r *ReminderScheduler) QueueTomorrowReminders(ctx context.Context) {
	tomorrow := time.Now().AddDate(0, 0, 1)

	bookings, err := r.store.GetPickupsOn(ctx, tomorrow)
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to load tomorrow's pickups")
		return
	}

	for _, booking := range bookings {
		if !booking.Occupies() {
			continue
		}
		if err := r.queue.EnqueueEmail(ctx, models.EmailReminder, booking); err != nil {
			r.logger.Error().Err(err).Int64("booking_id", booking.ID).Msg("Failed to queue reminder email")
		}
	}

	r.logger.Info().Int("bookings", len(bookings)).Msg("Queued pickup reminders")
}

func timeUntilNextHour(hour int) time.Duration {
	now := time.Now()
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next.Sub(now)
}
