package core

// upload_limiter.go bounds how many rosters are decoded and rendered at the
// same time. Workbooks are held in memory while they are processed, so an
// unbounded burst of uploads would translate directly into memory pressure.
//
// Requests that find every slot taken wait up to maxWait and then fail with
// ErrTooManyUploads. WaitForDrain lets shutdown finish in-flight work.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTooManyUploads is returned when no slot frees up within the wait time.
var ErrTooManyUploads = errors.New("too many uploads in progress, please try again later")

// DefaultMaxConcurrentUploads is used when a non-positive limit is given.
const DefaultMaxConcurrentUploads = 4

// DefaultMaxWaitTime is used when a non-positive wait is given.
const DefaultMaxWaitTime = 15 * time.Second

// UploadLimiter is a counting semaphore with wait accounting.
type UploadLimiter struct {
	semaphore chan struct{}
	maxWait   time.Duration

	mu      sync.Mutex
	active  int
	waiting int
	// idle is closed while active == 0 and replaced when work starts.
	idle chan struct{}
}

// NewUploadLimiter allows at most maxConcurrent uploads at once.
func NewUploadLimiter(maxConcurrent int, maxWait time.Duration) *UploadLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentUploads
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}

	idle := make(chan struct{})
	close(idle)
	return &UploadLimiter{
		semaphore: make(chan struct{}, maxConcurrent),
		maxWait:   maxWait,
		idle:      idle,
	}
}

// Acquire takes a slot, waiting up to the configured time. The caller must
// call Release exactly once after a nil return.
func (l *UploadLimiter) Acquire(ctx context.Context) error {
	if l.TryAcquire() {
		return nil
	}

	l.mu.Lock()
	l.waiting++
	l.mu.Unlock()
	defer func() {
		l.mu.Lock()
		l.waiting--
		l.mu.Unlock()
	}()

	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.semaphore <- struct{}{}:
		l.started()
		return nil
	case <-timer.C:
		return ErrTooManyUploads
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryAcquire takes a slot without blocking and reports whether it did.
func (l *UploadLimiter) TryAcquire() bool {
	select {
	case l.semaphore <- struct{}{}:
		l.started()
		return true
	default:
		return false
	}
}

func (l *UploadLimiter) started() {
	l.mu.Lock()
	if l.active == 0 {
		l.idle = make(chan struct{})
	}
	l.active++
	l.mu.Unlock()
}

// Release returns a slot taken by Acquire or TryAcquire.
func (l *UploadLimiter) Release() {
	l.mu.Lock()
	l.active--
	if l.active == 0 {
		close(l.idle)
	}
	l.mu.Unlock()

	<-l.semaphore
}

// ActiveCount returns the number of uploads holding a slot.
func (l *UploadLimiter) ActiveCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// MaxConcurrent returns the slot count.
func (l *UploadLimiter) MaxConcurrent() int {
	return cap(l.semaphore)
}

// Available returns the number of free slots.
func (l *UploadLimiter) Available() int {
	return cap(l.semaphore) - len(l.semaphore)
}

// WaitForDrain blocks until no upload holds a slot or ctx is done.
func (l *UploadLimiter) WaitForDrain(ctx context.Context) error {
	l.mu.Lock()
	idle := l.idle
	l.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// UploadLimiterStatus is a snapshot for the health endpoint.
type UploadLimiterStatus struct {
	Active        int `json:"active"`
	Waiting       int `json:"waiting"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the current limiter state.
func (l *UploadLimiter) Status() UploadLimiterStatus {
	l.mu.Lock()
	active, waiting := l.active, l.waiting
	l.mu.Unlock()

	return UploadLimiterStatus{
		Active:        active,
		Waiting:       waiting,
		Available:     cap(l.semaphore) - len(l.semaphore),
		MaxConcurrent: cap(l.semaphore),
	}
}
