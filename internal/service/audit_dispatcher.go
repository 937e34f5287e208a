package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/olympiad-admin-api/internal/models"
	"github.com/noah-isme/olympiad-admin-api/pkg/jobs"
)

const auditJobType = "audit_log"

// AuditDispatcherConfig tunes the background audit writer.
type AuditDispatcherConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
}

// AuditDispatcher moves audit writes off the request path. Entries are written
// by a worker pool with retries; when the buffer is full or the dispatcher is
// not running, Create falls back to a synchronous write.
type AuditDispatcher struct {
	store  auditWriter
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewAuditDispatcher wraps store with a background queue.
func NewAuditDispatcher(store auditWriter, cfg AuditDispatcherConfig, logger *zap.Logger) *AuditDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.BufferSize == 0 {
		cfg.BufferSize = 256
	}
	d := &AuditDispatcher{store: store, logger: logger}
	d.queue = jobs.NewQueue("audit", d.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return d
}

// Start launches the workers.
func (d *AuditDispatcher) Start(ctx context.Context) {
	d.queue.Start(ctx)
}

// Close flushes queued entries, bounded by ctx.
func (d *AuditDispatcher) Close(ctx context.Context) error {
	return d.queue.Stop(ctx)
}

// Create queues log for writing.
func (d *AuditDispatcher) Create(ctx context.Context, log *models.AuditLog) error {
	if log == nil {
		return nil
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	if err := d.queue.TryEnqueue(jobs.Job{ID: log.Action, Type: auditJobType, Payload: log}); err != nil {
		d.logger.Debug("audit queue unavailable, writing inline", zap.Error(err))
		return d.store.Create(ctx, log)
	}
	return nil
}

func (d *AuditDispatcher) handle(ctx context.Context, job jobs.Job) error {
	log, ok := job.Payload.(*models.AuditLog)
	if !ok {
		return fmt.Errorf("unexpected audit payload %T", job.Payload)
	}
	return d.store.Create(ctx, log)
}
