// Package loading tracks how many tasks are in flight and derives a shared
// "is anything loading" flag from that count.
//
// A Tracker is meant to be shared by every component that starts work on
// behalf of the same view: each wraps its work with Run (or Go), and the
// view renders from IsLoading, State, Subscribe or Watch.
package loading

import (
	"sync"

	"github.com/scality/backbeat/shared-loading/pkg/counter"
	"github.com/scality/backbeat/shared-loading/pkg/counter/outcome"
	"github.com/scality/backbeat/shared-loading/pkg/types"
	log "github.com/sirupsen/logrus"
)

// Listener receives the tracker state after each change.
type Listener func(types.State)

type subscription struct {
	id uint64
	fn Listener
}

type Tracker struct {
	name      string
	underflow UnderflowPolicy
	log       *log.Entry

	running  counter.Counter
	outcomes *outcome.Set

	mu      sync.Mutex
	loading bool
	seq     uint64
	nextID  uint64

	// replaced on every (un)subscribe, never mutated in place
	listeners []subscription
}

func New(opts ...Option) *Tracker {
	t := &Tracker{
		name:    "default",
		running: counter.NewBaseCounter(),
	}

	for _, opt := range opts {
		opt(t)
	}

	if t.log == nil {
		t.log = log.WithField("tracker", t.name)
	}

	t.outcomes = outcome.New(t.name)

	return t
}

func (t *Tracker) Name() string {
	return t.name
}

// Incr records one more running task.
func (t *Tracker) Incr() {
	t.add(1, "")
}

// Decr records one less running task. What happens when nothing is running
// depends on the tracker's UnderflowPolicy.
func (t *Tracker) Decr() {
	t.add(-1, "")
}

// Running returns the number of tasks currently in flight.
func (t *Tracker) Running() int64 {
	return t.running.Get()
}

// IsLoading reports whether at least one task is in flight.
func (t *Tracker) IsLoading() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.loading
}

// State returns the running count and loading flag from the same update.
func (t *Tracker) State() types.State {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.stateLocked()
}

func (t *Tracker) Outcomes() *outcome.Set {
	return t.outcomes
}

// Status returns the state together with a copy of the outcome counters
// taken in the same critical section, so that for tasks started with Run or
// Go, Running matches the started tasks that have not finished.
func (t *Tracker) Status() types.TrackerStatus {
	snapshot := outcome.New(t.name)

	t.mu.Lock()
	st := t.stateLocked()
	t.outcomes.CopyTo(snapshot)
	t.mu.Unlock()

	return types.TrackerStatus{
		State:    st,
		Outcomes: snapshot.Serialize(),
	}
}

// Subscribe registers l to be called after every change. Listeners run on
// the goroutine that made the change, outside the tracker lock, so they may
// call back into the tracker. When changes race, listeners may observe them
// out of order and should compare Seq.
func (t *Tracker) Subscribe(l Listener) (cancel func()) {
	t.mu.Lock()
	id := t.nextID
	t.nextID++

	listeners := make([]subscription, len(t.listeners), len(t.listeners)+1)
	copy(listeners, t.listeners)
	t.listeners = append(listeners, subscription{id: id, fn: l})
	t.mu.Unlock()

	var once sync.Once

	return func() {
		once.Do(func() {
			t.unsubscribe(id)
		})
	}
}

func (t *Tracker) unsubscribe(id uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	listeners := make([]subscription, 0, len(t.listeners))
	for _, s := range t.listeners {
		if s.id != id {
			listeners = append(listeners, s)
		}
	}

	t.listeners = listeners
}

func (t *Tracker) stateLocked() types.State {
	return types.State{
		Name:    t.name,
		Running: t.running.Get(),
		Loading: t.loading,
		Seq:     t.seq,
	}
}

// add applies delta and, when o is set, counts o in the same critical
// section.
func (t *Tracker) add(delta int64, o outcome.Outcome) {
	t.mu.Lock()

	if o != "" {
		t.outcomes.Count(o)
	}

	before := t.running.Get()
	underflow := delta < 0 && before+delta < 0

	if underflow {
		t.outcomes.Count(outcome.Underflow)

		switch t.underflow {
		case UnderflowPanic:
			t.mu.Unlock()
			panic(ErrUnbalanced)

		case UnderflowClamp:
			t.mu.Unlock()
			t.log.WithField("running", before).Warn("unbalanced decrement ignored")
			return
		}
	}

	wasLoading := t.loading
	t.loading = t.running.Add(delta) != 0
	t.seq++

	st := t.stateLocked()
	listeners := t.listeners
	t.mu.Unlock()

	if underflow {
		t.log.WithField("running", st.Running).Warn("unbalanced decrement, running count is negative")
	}

	if wasLoading != st.Loading {
		t.log.WithFields(log.Fields{
			"running": st.Running,
			"loading": st.Loading,
		}).Debug("loading state changed")
	}

	for _, s := range listeners {
		s.fn(st)
	}
}
