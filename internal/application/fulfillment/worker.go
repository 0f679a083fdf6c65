package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dropship/backend/internal/domain/fulfillment"
	"github.com/dropship/backend/internal/domain/order"
	"github.com/dropship/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WorkerConfig holds configuration for the order automation worker
type WorkerConfig struct {
	// Enabled indicates if the worker polls at all
	Enabled bool
	// WorkerID identifies this worker as lease owner
	WorkerID string
	// PollInterval is the time between polls
	PollInterval time.Duration
	// LeaseTTL is how long a claimed item stays leased without a heartbeat
	LeaseTTL time.Duration
	// StepTimeout bounds every single saga step
	StepTimeout time.Duration
	// OrderTimeout bounds a whole placement
	OrderTimeout time.Duration
	// SaveTimeout bounds persisting the outcome after the placement ended
	SaveTimeout time.Duration
	// Retry is the backoff applied after a failed attempt
	Retry fulfillment.RetryPolicy
	// Platform names the source platform in profiling labels
	Platform string
}

// DefaultWorkerConfig returns default worker configuration
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		Enabled:      true,
		WorkerID:     defaultWorkerID(),
		PollInterval: 30 * time.Second,
		LeaseTTL:     5 * time.Minute,
		StepTimeout:  time.Minute,
		OrderTimeout: 3 * time.Minute,
		SaveTimeout:  10 * time.Second,
		Retry:        fulfillment.DefaultRetryPolicy(),
		Platform:     "aliexpress",
	}
}

// Validate validates the configuration
func (c WorkerConfig) Validate() error {
	if c.WorkerID == "" {
		return fmt.Errorf("%w: worker id is required", ErrInvalidConfig)
	}
	if c.PollInterval < time.Second {
		return fmt.Errorf("%w: poll interval must be at least 1s", ErrInvalidConfig)
	}
	if c.StepTimeout <= 0 || c.OrderTimeout <= 0 {
		return fmt.Errorf("%w: step and order timeouts must be positive", ErrInvalidConfig)
	}
	if c.StepTimeout > c.OrderTimeout {
		return fmt.Errorf("%w: step timeout exceeds order timeout", ErrInvalidConfig)
	}
	// The lease must outlive the placement or a second worker could reclaim
	// an item that is still being placed.
	if c.LeaseTTL <= c.OrderTimeout {
		return fmt.Errorf("%w: lease ttl must exceed order timeout", ErrInvalidConfig)
	}
	if c.Retry.BaseDelay <= 0 || c.Retry.MaxDelay < c.Retry.BaseDelay {
		return fmt.Errorf("%w: invalid retry policy", ErrInvalidConfig)
	}
	return nil
}

func defaultWorkerID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "worker"
	}
	return fmt.Sprintf("%s-%d-%s", host, os.Getpid(), uuid.NewString()[:8])
}

// Worker polls the fulfillment queue and places claimed orders on the
// source platform, one at a time.
type Worker struct {
	config      WorkerConfig
	queue       fulfillment.QueueRepository
	orders      order.Repository
	sites       SiteFactory
	notifier    Notifier
	screenshots ScreenshotStore
	logger      *zap.Logger
	metrics     *telemetry.DropshipMetrics
	now         func() time.Time

	busy      atomic.Bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewWorker creates a new worker
func NewWorker(
	config WorkerConfig,
	queue fulfillment.QueueRepository,
	orders order.Repository,
	sites SiteFactory,
	logger *zap.Logger,
) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		config: config,
		queue:  queue,
		orders: orders,
		sites:  sites,
		logger: logger,
		now:    time.Now,
	}
}

// WithNotifier sets the notifier used for terminal outcomes
func (w *Worker) WithNotifier(n Notifier) *Worker {
	w.notifier = n
	return w
}

// WithScreenshotStore sets where confirmation screenshots are kept
func (w *Worker) WithScreenshotStore(s ScreenshotStore) *Worker {
	w.screenshots = s
	return w
}

// SetMetrics sets the metrics recorder
func (w *Worker) SetMetrics(m *telemetry.DropshipMetrics) {
	w.metrics = m
}

// Start starts the polling loop
func (w *Worker) Start(ctx context.Context) error {
	if !w.config.Enabled {
		w.logger.Info("Fulfillment worker is disabled")
		return nil
	}
	if err := w.config.Validate(); err != nil {
		return err
	}

	w.mu.Lock()
	if w.isRunning {
		w.mu.Unlock()
		return nil
	}
	w.isRunning = true
	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.mu.Unlock()

	w.wg.Add(1)
	go w.loop(ctx)

	w.logger.Info("Fulfillment worker started",
		zap.String("worker_id", w.config.WorkerID),
		zap.Duration("poll_interval", w.config.PollInterval),
		zap.Duration("lease_ttl", w.config.LeaseTTL),
	)
	return nil
}

// Stop stops new polls and waits for an in-flight placement until ctx is
// done. A running placement is not cancelled; it ends on its own or at the
// order timeout.
func (w *Worker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return nil
	}
	w.isRunning = false
	cancel := w.cancel
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("Fulfillment worker stopped gracefully")
		return nil
	case <-ctx.Done():
		w.logger.Warn("Fulfillment worker stop timed out")
		return ctx.Err()
	}
}

// IsRunning returns true if the polling loop is running
func (w *Worker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.isRunning
}

func (w *Worker) loop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Ticks fire on schedule even while a placement runs. An
			// overlapping tick is dropped by Poll.
			w.wg.Add(1)
			go w.tick(ctx)
		}
	}
}

func (w *Worker) tick(ctx context.Context) {
	defer w.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("Fulfillment poll panicked", zap.Any("panic", r), zap.Stack("stacktrace"))
		}
	}()

	_, err := w.Poll(ctx)
	if errors.Is(err, ErrWorkerBusy) {
		return
	}
	if err != nil {
		w.logger.Error("Fulfillment poll failed", zap.Error(err))
	}
	w.recordDepth(ctx)
}

func (w *Worker) recordDepth(ctx context.Context) {
	if w.metrics == nil {
		return
	}
	for _, status := range []fulfillment.Status{fulfillment.StatusPending, fulfillment.StatusProcessing, fulfillment.StatusFailed} {
		n, err := w.queue.CountByStatus(ctx, status)
		if err != nil {
			w.logger.Debug("Failed to count queue items", zap.String("status", string(status)), zap.Error(err))
			return
		}
		w.metrics.RecordQueueDepth(ctx, string(status), n)
	}
}

// Poll claims at most one eligible queue item and processes it. It returns
// ErrWorkerBusy without claiming when a previous poll is still running, and
// reports whether an item was processed. Once an item is claimed, cancelling
// ctx no longer aborts it: the placement is bounded by the order timeout.
func (w *Worker) Poll(ctx context.Context) (bool, error) {
	if !w.busy.CompareAndSwap(false, true) {
		w.logger.Debug("Fulfillment poll skipped, previous poll still running")
		if w.metrics != nil {
			w.metrics.RecordPollSkipped(ctx)
		}
		return false, ErrWorkerBusy
	}
	defer w.busy.Store(false)

	item, err := w.queue.ClaimNext(ctx, w.config.WorkerID, w.config.LeaseTTL)
	if err != nil {
		switch {
		case errors.Is(err, fulfillment.ErrNoWork):
			return false, nil
		case errors.Is(err, fulfillment.ErrAttemptsExhausted) && item != nil:
			w.abandoned(ctx, item)
			return false, nil
		}
		return false, fmt.Errorf("claim queue item: %w", err)
	}

	w.process(context.WithoutCancel(ctx), item)
	return true, nil
}

func (w *Worker) process(ctx context.Context, item *fulfillment.QueueItem) {
	logger := w.logger.With(
		zap.String("queue_item_id", item.ID.String()),
		zap.String("order_id", item.OrderID.String()),
		zap.String("tenant_id", item.TenantID.String()),
		zap.Int("attempt", item.RetryCount+1),
	)
	logger.Info("Placing order on source platform", zap.Int("line_items", len(item.Payload.Items)))

	ctx, span := telemetry.StartServiceSpan(ctx, "fulfillment", "place",
		telemetry.WithAttribute("queue_item_id", item.ID.String()),
		telemetry.WithAttribute("attempt", item.RetryCount+1),
	)
	defer span.End()

	start := w.now()
	stopHeartbeat := w.heartbeat(ctx, item, logger)
	var (
		conf     fulfillment.Confirmation
		placeErr error
	)
	telemetry.WithProfilingLabels(ctx, telemetry.PlacementLabels(item.TenantID.String(), w.config.Platform), func(ctx context.Context) {
		conf, placeErr = w.place(ctx, item, logger)
	})
	stopHeartbeat()

	saveCtx, cancel := context.WithTimeout(ctx, w.config.SaveTimeout)
	defer cancel()

	now := w.now()
	if placeErr == nil {
		telemetry.SetOK(span)
		w.succeed(saveCtx, item, conf, now, logger)
	} else {
		telemetry.RecordError(span, placeErr)
		w.fail(saveCtx, item, placeErr, now, logger)
	}

	logger.Info("Placement attempt finished",
		zap.String("status", string(item.Status)),
		zap.Duration("duration", now.Sub(start)),
	)
}

func (w *Worker) succeed(ctx context.Context, item *fulfillment.QueueItem, conf fulfillment.Confirmation, now time.Time, logger *zap.Logger) {
	if err := item.Complete(conf, now); err != nil {
		logger.Error("Failed to complete queue item", zap.Error(err))
		return
	}
	if err := w.queue.SaveOutcome(ctx, item, w.config.WorkerID); err != nil {
		// The order was placed, so a lost lease here means a duplicate
		// placement is possible. Operators need to see this.
		logger.Error("Failed to store successful placement",
			zap.String("source_order_number", conf.SourceOrderNumber),
			zap.Error(err),
		)
		return
	}
	w.record(ctx, "completed")

	err := w.orders.RecordFulfillment(ctx, item.TenantID, item.OrderID, order.Fulfillment{
		SourceOrderNumber: conf.SourceOrderNumber,
		TrackingNumber:    conf.TrackingNumber,
		TrackingURL:       conf.TrackingURL,
		FulfilledAt:       &now,
	})
	if err != nil {
		logger.Error("Failed to write tracking data to order", zap.Error(err))
	}

	w.notify(ctx, Notification{
		TenantID:    item.TenantID,
		Level:       NotificationSuccess,
		Title:       "Order placed on source platform",
		Message:     fmt.Sprintf("Source order %s was placed", conf.SourceOrderNumber),
		QueueItemID: item.ID,
		OrderID:     item.OrderID,
	}, logger)
}

func (w *Worker) fail(ctx context.Context, item *fulfillment.QueueItem, cause error, now time.Time, logger *zap.Logger) {
	retrying, err := item.Fail(cause, w.config.Retry, now)
	if err != nil {
		logger.Error("Failed to fail queue item", zap.Error(err))
		return
	}
	if err := w.queue.SaveOutcome(ctx, item, w.config.WorkerID); err != nil {
		logger.Error("Failed to store failed placement", zap.Error(err))
		return
	}

	if retrying {
		w.record(ctx, "retry")
		logger.Warn("Placement failed, retry scheduled",
			zap.Int("retry_count", item.RetryCount),
			zap.Timep("next_attempt_at", item.NextAttemptAt),
			zap.Error(cause),
		)
		return
	}

	w.record(ctx, "failed")
	logger.Error("Placement failed, retries exhausted",
		zap.Int("retry_count", item.RetryCount),
		zap.Error(cause),
	)
	w.notify(ctx, Notification{
		TenantID:    item.TenantID,
		Level:       NotificationError,
		Title:       "Order placement failed",
		Message:     item.ErrorMessage,
		QueueItemID: item.ID,
		OrderID:     item.OrderID,
	}, logger)
}

// abandoned reports an item whose last attempt ended with an expired lease
func (w *Worker) abandoned(ctx context.Context, item *fulfillment.QueueItem) {
	logger := w.logger.With(
		zap.String("queue_item_id", item.ID.String()),
		zap.String("order_id", item.OrderID.String()),
		zap.String("tenant_id", item.TenantID.String()),
	)
	w.record(ctx, "failed")
	logger.Error("Placement failed, lease expired on the last attempt",
		zap.Int("retry_count", item.RetryCount),
		zap.String("error", item.ErrorMessage),
	)
	w.notify(ctx, Notification{
		TenantID:    item.TenantID,
		Level:       NotificationError,
		Title:       "Order placement failed",
		Message:     item.ErrorMessage,
		QueueItemID: item.ID,
		OrderID:     item.OrderID,
	}, logger)
}

// place runs the placement saga for one item under the order timeout
func (w *Worker) place(ctx context.Context, item *fulfillment.QueueItem, logger *zap.Logger) (conf fulfillment.Confirmation, err error) {
	ctx, cancel := context.WithTimeout(ctx, w.config.OrderTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("placement panicked: %v", r)
		}
	}()

	site, err := w.sites.Open(ctx)
	if err != nil {
		return conf, fmt.Errorf("open source site: %w", err)
	}
	defer func() {
		if cerr := site.Close(); cerr != nil {
			logger.Warn("Failed to close source site session", zap.Error(cerr))
		}
	}()

	saga := NewOrderPlacementSaga(site, item.Payload, w.config.StepTimeout, &conf).
		Observe(func(step string, elapsed time.Duration, stepErr error) {
			if w.metrics != nil {
				w.metrics.RecordStepDuration(ctx, step, elapsed)
			}
			if stepErr != nil {
				logger.Warn("Placement step failed", zap.String("step", step), zap.Error(stepErr))
				return
			}
			logger.Debug("Placement step done", zap.String("step", step), zap.Duration("elapsed", elapsed))
		})
	if err := saga.Run(ctx); err != nil {
		return conf, err
	}

	if w.screenshots != nil {
		conf.ScreenshotKey = w.keepScreenshot(ctx, site, item, logger)
	}
	return conf, nil
}

func (w *Worker) keepScreenshot(ctx context.Context, site SourceSite, item *fulfillment.QueueItem, logger *zap.Logger) string {
	data, err := site.Screenshot(ctx)
	if err != nil {
		logger.Warn("Failed to capture confirmation screenshot", zap.Error(err))
		return ""
	}
	key := fmt.Sprintf("fulfillment/%s/%s.png", item.TenantID, item.ID)
	if err := w.screenshots.Upload(ctx, key, data, "image/png"); err != nil {
		logger.Warn("Failed to upload confirmation screenshot", zap.Error(err))
		return ""
	}
	return key
}

// heartbeat extends the lease every LeaseTTL/2 until the returned func is called
func (w *Worker) heartbeat(ctx context.Context, item *fulfillment.QueueItem, logger *zap.Logger) func() {
	if w.config.LeaseTTL <= 0 {
		return func() {}
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(w.config.LeaseTTL / 2)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := w.queue.ExtendLease(ctx, item.ID, w.config.WorkerID, w.config.LeaseTTL); err != nil {
					logger.Warn("Failed to extend lease", zap.Error(err))
				}
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

func (w *Worker) notify(ctx context.Context, n Notification, logger *zap.Logger) {
	if w.notifier == nil {
		return
	}
	if err := w.notifier.Notify(ctx, n); err != nil {
		logger.Warn("Failed to send notification", zap.Error(err))
	}
}

func (w *Worker) record(ctx context.Context, result string) {
	if w.metrics != nil {
		w.metrics.RecordFulfillment(ctx, result)
	}
}
