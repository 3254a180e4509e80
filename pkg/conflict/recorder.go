// SPDX-License-Identifier: MPL-2.0

package conflict

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

type (
	// Subscriber receives each published record. OnConflict may be called from
	// several goroutines at once, one call per publishing goroutine.
	Subscriber interface {
		OnConflict(r *Record) error
	}

	// SubscriberFunc adapts a function to the Subscriber interface.
	SubscriberFunc func(r *Record) error

	// Subscription is the handle returned by Recorder.Subscribe.
	Subscription struct {
		id        string
		recorder  *Recorder
		cancelled atomic.Bool
	}

	// Recorder collects records in capture order and pushes them to subscribers.
	// All methods are safe for concurrent use.
	Recorder struct {
		// capacity bounds the retained records; 0 keeps everything.
		capacity int
		logger   *slog.Logger

		// mu guards records and head. It is never held while subscribers run.
		mu      sync.Mutex
		records []*Record
		// head is the index of the oldest record once a bounded buffer has wrapped.
		head int

		subMu       sync.RWMutex
		subscribers []subscriberEntry

		published atomic.Int64
		failures  atomic.Int64
	}

	// RecorderOption configures a Recorder.
	RecorderOption func(*Recorder)

	subscriberEntry struct {
		sub *Subscription
		fn  Subscriber
	}
)

// OnConflict calls f(r).
func (f SubscriberFunc) OnConflict(r *Record) error { return f(r) }

// WithCapacity bounds how many records All returns. When full, the oldest record is
// dropped. Zero or a negative value means unbounded.
func WithCapacity(n int) RecorderOption {
	return func(rec *Recorder) {
		if n < 0 {
			n = 0
		}
		rec.capacity = n
	}
}

// WithRecorderLogger sets the logger used to report subscriber failures.
func WithRecorderLogger(logger *slog.Logger) RecorderOption {
	return func(rec *Recorder) {
		if logger != nil {
			rec.logger = logger
		}
	}
}

// NewRecorder creates an empty Recorder.
func NewRecorder(opts ...RecorderOption) *Recorder {
	rec := &Recorder{logger: slog.Default()}
	for _, opt := range opts {
		opt(rec)
	}
	return rec
}

// Publish stores r and delivers it to every current subscriber. Records published by
// one goroutine are stored in that goroutine's publication order. Subscriber errors and
// panics are logged and counted, never returned.
func (rec *Recorder) Publish(r *Record) {
	if r == nil {
		return
	}

	rec.mu.Lock()
	rec.store(r)
	rec.mu.Unlock()
	rec.published.Add(1)

	rec.subMu.RLock()
	subs := make([]subscriberEntry, len(rec.subscribers))
	copy(subs, rec.subscribers)
	rec.subMu.RUnlock()

	for _, s := range subs {
		if s.sub.cancelled.Load() {
			continue
		}
		if err := deliver(s.fn, r); err != nil {
			rec.failures.Add(1)
			rec.logger.Warn("conflict subscriber failed", "subscription", s.sub.id, "conflict", r.String(), "error", err)
		}
	}
}

// store appends r, overwriting the oldest record when the buffer is bounded and full.
// Callers must hold rec.mu.
func (rec *Recorder) store(r *Record) {
	if rec.capacity == 0 || len(rec.records) < rec.capacity {
		rec.records = append(rec.records, r)
		return
	}
	rec.records[rec.head] = r
	rec.head = (rec.head + 1) % rec.capacity
}

// All returns a snapshot of the retained records in capture order.
func (rec *Recorder) All() []*Record {
	rec.mu.Lock()
	defer rec.mu.Unlock()

	out := make([]*Record, 0, len(rec.records))
	out = append(out, rec.records[rec.head:]...)
	out = append(out, rec.records[:rec.head]...)
	return out
}

// Len returns the number of retained records.
func (rec *Recorder) Len() int {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return len(rec.records)
}

// Published returns how many records were ever published, including dropped ones.
func (rec *Recorder) Published() int64 { return rec.published.Load() }

// DeliveryFailures returns how many subscriber deliveries failed or panicked.
func (rec *Recorder) DeliveryFailures() int64 { return rec.failures.Load() }

// Reset discards the retained records. Subscriptions are kept.
func (rec *Recorder) Reset() {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.records = nil
	rec.head = 0
}

// Subscribe registers s for every record published after this call returns.
func (rec *Recorder) Subscribe(s Subscriber) *Subscription {
	sub := &Subscription{id: uuid.NewString(), recorder: rec}

	rec.subMu.Lock()
	defer rec.subMu.Unlock()
	rec.subscribers = append(rec.subscribers, subscriberEntry{sub: sub, fn: s})
	return sub
}

// SubscriberCount returns the number of active subscriptions.
func (rec *Recorder) SubscriberCount() int {
	rec.subMu.RLock()
	defer rec.subMu.RUnlock()
	return len(rec.subscribers)
}

func (rec *Recorder) unsubscribe(sub *Subscription) {
	rec.subMu.Lock()
	defer rec.subMu.Unlock()
	for i, s := range rec.subscribers {
		if s.sub == sub {
			rec.subscribers = append(rec.subscribers[:i:i], rec.subscribers[i+1:]...)
			return
		}
	}
}

// ID returns the subscription identifier used in log output.
func (s *Subscription) ID() string { return s.id }

// Cancel stops delivery to the subscriber. Calling Cancel more than once is a no-op.
// A delivery already in progress may still complete.
func (s *Subscription) Cancel() {
	if s.cancelled.Swap(true) {
		return
	}
	s.recorder.unsubscribe(s)
}

// deliver calls s, converting a panic into an error.
func deliver(s Subscriber, r *Record) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("subscriber panicked: %v", p)
		}
	}()
	return s.OnConflict(r)
}
