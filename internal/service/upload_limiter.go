package service

import (
	"context"
	"sync/atomic"
	"time"

	appErrors "github.com/noah-isme/olympiad-admin-api/pkg/errors"
)

const (
	defaultMaxConcurrentUploads = 4
	defaultMaxUploadWait        = 30 * time.Second
)

// UploadLimiter bounds how many provisioning batches run at once.
type UploadLimiter struct {
	slots   chan struct{}
	maxWait time.Duration
	active  int64
	metrics *MetricsService
}

// NewUploadLimiter creates a limiter allowing maxConcurrent batches; callers
// that cannot get a slot within maxWait receive ErrTooManyUploads.
func NewUploadLimiter(maxConcurrent int, maxWait time.Duration, metrics *MetricsService) *UploadLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrentUploads
	}
	if maxWait <= 0 {
		maxWait = defaultMaxUploadWait
	}
	return &UploadLimiter{slots: make(chan struct{}, maxConcurrent), maxWait: maxWait, metrics: metrics}
}

// Acquire waits for a slot. The returned release func must be called exactly once.
func (l *UploadLimiter) Acquire(ctx context.Context) (func(), error) {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
	case <-timer.C:
		return nil, appErrors.ErrTooManyUploads
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	l.metrics.SetUploadsInFlight(int(atomic.AddInt64(&l.active, 1)))
	var released int32
	return func() {
		if !atomic.CompareAndSwapInt32(&released, 0, 1) {
			return
		}
		l.metrics.SetUploadsInFlight(int(atomic.AddInt64(&l.active, -1)))
		<-l.slots
	}, nil
}

// Active returns the number of batches currently holding a slot.
func (l *UploadLimiter) Active() int {
	return int(atomic.LoadInt64(&l.active))
}

// MaxConcurrent returns the slot count.
func (l *UploadLimiter) MaxConcurrent() int {
	return cap(l.slots)
}
