package guard

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

const (
	defaultQueueSize    = 256
	defaultWriteTimeout = 5 * time.Second
)

// ActivityRecorder writes audit records without ever blocking the request
// path. Records are submitted to a bounded queue serviced by a background
// worker; when the queue is full the newest record is dropped and counted.
// Write failures are observed only through the logger and WriteFailures().
type ActivityRecorder struct {
	store        ActivityStore
	logger       Logger
	queue        chan *ActivityRecord
	exempt       map[string]struct{}
	writeTimeout time.Duration
	now          func() time.Time

	dropped  atomic.Uint64
	failures atomic.Uint64

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// RecorderOption customizes recorder construction.
type RecorderOption func(*ActivityRecorder)

// WithQueueSize bounds the background queue. Sizes below 1 are ignored.
func WithQueueSize(size int) RecorderOption {
	return func(r *ActivityRecorder) {
		if size > 0 {
			r.queue = make(chan *ActivityRecord, size)
		}
	}
}

// WithRecorderLogger overrides the default logger.
func WithRecorderLogger(logger Logger) RecorderOption {
	return func(r *ActivityRecorder) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithExemptPaths marks request paths whose activity is never recorded.
// Health checks and audit-log reads belong here so monitoring traffic does
// not feed back into the log.
func WithExemptPaths(paths ...string) RecorderOption {
	return func(r *ActivityRecorder) {
		for _, p := range paths {
			r.exempt[p] = struct{}{}
		}
	}
}

// WithWriteTimeout bounds each background store write.
func WithWriteTimeout(d time.Duration) RecorderOption {
	return func(r *ActivityRecorder) {
		if d > 0 {
			r.writeTimeout = d
		}
	}
}

// WithRecorderClock injects a custom clock (useful for tests).
func WithRecorderClock(clock func() time.Time) RecorderOption {
	return func(r *ActivityRecorder) {
		if clock != nil {
			r.now = clock
		}
	}
}

// NewActivityRecorder creates a recorder and starts its background worker.
func NewActivityRecorder(store ActivityStore, opts ...RecorderOption) *ActivityRecorder {
	r := &ActivityRecorder{
		store:        store,
		logger:       defLogger{},
		queue:        make(chan *ActivityRecord, defaultQueueSize),
		exempt:       map[string]struct{}{},
		writeTimeout: defaultWriteTimeout,
		now:          time.Now,
		done:         make(chan struct{}),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	r.wg.Add(1)
	go r.work()

	return r
}

// LogLogin records a successful login for identity.
func (r *ActivityRecorder) LogLogin(identity Identity, meta RequestMeta) {
	r.submit(r.build(identity, ActionLogin, meta, nil, true, ""))
}

// LogLogout records a logout for identity.
func (r *ActivityRecorder) LogLogout(identity Identity, meta RequestMeta) {
	r.submit(r.build(identity, ActionLogout, meta, nil, true, ""))
}

// LogAction records a successful domain action performed by identity.
func (r *ActivityRecorder) LogAction(identity Identity, action string, meta RequestMeta, detail map[string]any) {
	r.submit(r.build(identity, action, meta, detail, true, ""))
}

// LogSystem records an event with no associated identity, used for
// unauthenticated and system events.
func (r *ActivityRecorder) LogSystem(action string, meta RequestMeta, detail map[string]any) {
	r.submit(r.build(nil, action, meta, detail, true, ""))
}

// LogFailure records a failed event. identity may be nil when the subject was
// never resolved.
func (r *ActivityRecorder) LogFailure(identity Identity, action string, meta RequestMeta, reason string, detail map[string]any) {
	r.submit(r.build(identity, action, meta, detail, false, reason))
}

// Dropped returns the number of records discarded because the queue was full.
func (r *ActivityRecorder) Dropped() uint64 {
	return r.dropped.Load()
}

// WriteFailures returns the number of background writes that failed.
func (r *ActivityRecorder) WriteFailures() uint64 {
	return r.failures.Load()
}

// Stop closes intake and waits for queued writes to drain, or for ctx to
// expire. Records submitted after Stop are counted as dropped.
func (r *ActivityRecorder) Stop(ctx context.Context) error {
	r.stopOnce.Do(func() {
		close(r.done)
	})

	finished := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *ActivityRecorder) build(identity Identity, action string, meta RequestMeta, detail map[string]any, success bool, reason string) *ActivityRecord {
	record := &ActivityRecord{
		Action:        action,
		IP:            meta.IP,
		UserAgent:     meta.UserAgent,
		Detail:        detail,
		Success:       success,
		FailureReason: reason,
		RecordedAt:    r.now(),
	}

	if identity != nil {
		if id, err := uuid.Parse(identity.ID()); err == nil {
			record.ActorID = &id
		}
	}

	if meta.Path != "" {
		if record.Detail == nil {
			record.Detail = map[string]any{}
		}
		record.Detail["path"] = meta.Path
		record.Detail["method"] = meta.Method
	}

	return record
}

// submit is fire-and-forget: it never blocks and never returns an error to
// the caller. Overflow drops the newest record (this one) and bumps the
// counter.
func (r *ActivityRecorder) submit(record *ActivityRecord) {
	if r.isExempt(record) {
		return
	}

	select {
	case <-r.done:
		r.dropped.Add(1)
		return
	default:
	}

	select {
	case r.queue <- record:
	default:
		r.dropped.Add(1)
	}
}

func (r *ActivityRecorder) isExempt(record *ActivityRecord) bool {
	if record.Detail == nil {
		return false
	}
	path, ok := record.Detail["path"].(string)
	if !ok {
		return false
	}
	_, exempt := r.exempt[path]
	return exempt
}

func (r *ActivityRecorder) work() {
	defer r.wg.Done()

	for {
		select {
		case record := <-r.queue:
			r.write(record)
		case <-r.done:
			// drain whatever is already queued, then exit
			for {
				select {
				case record := <-r.queue:
					r.write(record)
				default:
					return
				}
			}
		}
	}
}

// write runs detached from any request lifecycle: an aborted request never
// cancels a dispatched record.
func (r *ActivityRecorder) write(record *ActivityRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), r.writeTimeout)
	defer cancel()

	if err := r.store.CreateRecord(ctx, record); err != nil {
		r.failures.Add(1)
		r.logger.Warn("activity record write failed", "action", record.Action, "error", err)
	}
}
