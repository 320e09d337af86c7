// Package worker drains the best-effort side-effect queue: booking emails,
// vehicle status flips and the Google Sheets mirror. A task failure never
// reaches the booking write that produced it; tasks retry with exponential
// backoff and dead-letter after the retry budget.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"karenta/internal/domain"
	"karenta/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	TaskEmail       = "email"
	TaskVehicleFlip = "vehicle_flip"
	TaskSheetUpsert = "sheet_upsert"
	TaskSheetStatus = "sheet_status"
)

// taskPayload is persisted in SyncTask.Payload as JSON.
type taskPayload struct {
	BookingID     int64           `json:"booking_id,omitempty"`
	Booking       *models.Booking `json:"booking,omitempty"`
	EmailType     string          `json:"email_type,omitempty"`
	VehicleID     int64           `json:"vehicle_id,omitempty"`
	VehicleStatus string          `json:"vehicle_status,omitempty"`
	Status        string          `json:"status,omitempty"`
}

// SyncQueueWorker consumes sync_queue tasks from three sources in priority
// order: the in-memory channel, the Redis list, then a database poll that
// also picks up due retries.
type SyncQueueWorker struct {
	store         domain.Store
	mailer        domain.Mailer
	sheets        domain.SheetsWriter
	redis         *redis.Client
	retryPolicy   RetryPolicy
	queue         chan models.SyncTask
	redisQueueKey string
	deadLetterKey string
	pollInterval  time.Duration
	batchSize     int
	logger        *zerolog.Logger
}

func NewSyncQueueWorker(
	store domain.Store,
	mailer domain.Mailer,
	sheets domain.SheetsWriter,
	redisClient *redis.Client,
	retry RetryPolicy,
	logger *zerolog.Logger,
) *SyncQueueWorker {
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 5
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 2 * time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = 1 * time.Minute
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}

	return &SyncQueueWorker{
		store:         store,
		mailer:        mailer,
		sheets:        sheets,
		redis:         redisClient,
		retryPolicy:   retry,
		queue:         make(chan models.SyncTask, models.WorkerQueueSize),
		redisQueueKey: "sync:queue",
		deadLetterKey: "sync:deadletter",
		pollInterval:  2 * time.Second,
		batchSize:     20,
		logger:        logger,
	}
}

func (w *SyncQueueWorker) EnqueueEmail(ctx context.Context, emailType string, booking *models.Booking) error {
	if booking == nil || booking.ID == 0 {
		return errors.New("booking is required")
	}
	return w.enqueue(ctx, TaskEmail, booking.ID, taskPayload{
		BookingID: booking.ID,
		Booking:   booking,
		EmailType: emailType,
	})
}

func (w *SyncQueueWorker) EnqueueVehicleFlip(ctx context.Context, vehicleID int64, status string) error {
	if vehicleID == 0 || status == "" {
		return errors.New("vehicle id and status are required")
	}
	return w.enqueue(ctx, TaskVehicleFlip, 0, taskPayload{
		VehicleID:     vehicleID,
		VehicleStatus: status,
	})
}

func (w *SyncQueueWorker) EnqueueSheetUpsert(ctx context.Context, booking *models.Booking) error {
	if booking == nil || booking.ID == 0 {
		return errors.New("booking is required")
	}
	return w.enqueue(ctx, TaskSheetUpsert, booking.ID, taskPayload{
		BookingID: booking.ID,
		Booking:   booking,
	})
}

func (w *SyncQueueWorker) EnqueueSheetStatus(ctx context.Context, bookingID int64, status string) error {
	if bookingID == 0 || status == "" {
		return errors.New("booking id and status are required")
	}
	return w.enqueue(ctx, TaskSheetStatus, bookingID, taskPayload{
		BookingID: bookingID,
		Status:    status,
	})
}

// enqueue persists the task, then schedules it via Redis or the in-memory
// channel. The database row is the source of truth; the queues only cut
// latency.
func (w *SyncQueueWorker) enqueue(ctx context.Context, taskType string, bookingID int64, payload taskPayload) error {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	syncTask := models.SyncTask{
		TaskType:  taskType,
		BookingID: bookingID,
		Payload:   string(payloadBytes),
		Status:    "pending",
		CreatedAt: time.Now(),
	}
	if err := w.store.CreateSyncTask(ctx, &syncTask); err != nil {
		return fmt.Errorf("persist sync task: %w", err)
	}

	if w.redis != nil {
		if err := w.pushRedis(ctx, syncTask); err != nil {
			w.logger.Warn().Err(err).Msg("Redis push failed, falling back to memory queue")
		} else {
			return nil
		}
	}

	select {
	case w.queue <- syncTask:
	default:
		w.logger.Warn().Int64("task_id", syncTask.ID).Msg("In-memory queue full, task left for polling")
	}

	return nil
}

// Start launches the main loop; stops when ctx is done.
func (w *SyncQueueWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("Sync worker started")
	defer w.logger.Info().Msg("Sync worker stopped")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if t, ok := w.tryLocalQueue(); ok {
			w.processTask(ctx, &t)
			continue
		}

		if t, ok := w.tryRedis(ctx); ok {
			w.processTask(ctx, &t)
			continue
		}

		tasks, err := w.store.GetPendingSyncTasks(ctx, w.batchSize)
		if err != nil {
			w.logger.Error().Err(err).Msg("Failed to fetch pending sync tasks")
			time.Sleep(w.pollInterval)
			continue
		}
		if len(tasks) == 0 {
			time.Sleep(w.pollInterval)
			continue
		}

		for i := range tasks {
			w.processTask(ctx, &tasks[i])
		}
	}
}

func (w *SyncQueueWorker) tryLocalQueue() (models.SyncTask, bool) {
	select {
	case t := <-w.queue:
		return t, true
	default:
		return models.SyncTask{}, false
	}
}

func (w *SyncQueueWorker) tryRedis(ctx context.Context) (models.SyncTask, bool) {
	if w.redis == nil {
		return models.SyncTask{}, false
	}
	res, err := w.redis.BRPop(ctx, time.Second, w.redisQueueKey).Result()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, redis.Nil) {
			return models.SyncTask{}, false
		}
		w.logger.Error().Err(err).Msg("Redis BRPOP error")
		return models.SyncTask{}, false
	}
	if len(res) != 2 {
		return models.SyncTask{}, false
	}
	var task models.SyncTask
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		w.logger.Error().Err(err).Msg("Failed to decode redis task")
		return models.SyncTask{}, false
	}
	return task, true
}

func (w *SyncQueueWorker) processTask(ctx context.Context, task *models.SyncTask) {
	var payload taskPayload
	if err := json.Unmarshal([]byte(task.Payload), &payload); err != nil {
		w.failTask(ctx, task, fmt.Errorf("decode payload: %w", err))
		return
	}

	if err := w.handleTask(ctx, task.TaskType, payload); err != nil {
		w.retryOrFail(ctx, task, err)
		return
	}

	if err := w.store.UpdateSyncTaskStatus(ctx, task.ID, "completed", "", nil); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("Failed to mark task completed")
	}
}

func (w *SyncQueueWorker) handleTask(ctx context.Context, taskType string, payload taskPayload) error {
	switch taskType {
	case TaskEmail:
		if payload.Booking == nil || payload.EmailType == "" {
			return errors.New("email payload missing booking or type")
		}
		return w.mailer.SendBookingEmail(ctx, payload.EmailType, payload.Booking)
	case TaskVehicleFlip:
		if payload.VehicleID == 0 || payload.VehicleStatus == "" {
			return errors.New("vehicle id or status missing")
		}
		return w.store.UpdateVehicleStatus(ctx, payload.VehicleID, payload.VehicleStatus)
	case TaskSheetUpsert:
		if payload.Booking == nil {
			return errors.New("booking payload missing")
		}
		if w.sheets == nil {
			return nil
		}
		return w.sheets.UpsertBooking(ctx, payload.Booking)
	case TaskSheetStatus:
		if payload.BookingID == 0 || payload.Status == "" {
			return errors.New("booking id or status missing")
		}
		if w.sheets == nil {
			return nil
		}
		return w.sheets.UpdateBookingStatus(ctx, payload.BookingID, payload.Status)
	default:
		return fmt.Errorf("unknown task type: %s", taskType)
	}
}

func (w *SyncQueueWorker) retryOrFail(ctx context.Context, task *models.SyncTask, cause error) {
	attempt := task.RetryCount + 1
	if attempt >= w.retryPolicy.MaxRetries {
		if err := w.store.UpdateSyncTaskStatus(ctx, task.ID, "failed", cause.Error(), nil); err != nil {
			w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("Failed to mark task failed")
		}
		w.pushDeadLetter(ctx, task)
		return
	}

	nextDelay := w.retryPolicy.NextDelay(attempt)
	nextTime := time.Now().Add(nextDelay)
	if err := w.store.UpdateSyncTaskStatus(ctx, task.ID, "retry", cause.Error(), &nextTime); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("Failed to mark task for retry")
	}
}

func (w *SyncQueueWorker) failTask(ctx context.Context, task *models.SyncTask, cause error) {
	if err := w.store.UpdateSyncTaskStatus(ctx, task.ID, "failed", cause.Error(), nil); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("Failed to mark task failed")
	}
	w.pushDeadLetter(ctx, task)
}

func (w *SyncQueueWorker) pushRedis(ctx context.Context, task models.SyncTask) error {
	if w.redis == nil {
		return errors.New("redis client is nil")
	}
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return w.redis.LPush(ctx, w.redisQueueKey, data).Err()
}

func (w *SyncQueueWorker) pushDeadLetter(ctx context.Context, task *models.SyncTask) {
	if w.redis == nil {
		return
	}
	data, err := json.Marshal(task)
	if err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("Failed to encode dead letter")
		return
	}
	if err := w.redis.LPush(ctx, w.deadLetterKey, data).Err(); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("Failed to push dead letter")
	}
}
