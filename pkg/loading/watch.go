package loading

import (
	"context"
	"sync"

	"github.com/scality/backbeat/shared-loading/pkg/types"
)

// Watch returns a channel holding the latest tracker state. It starts with
// the current state; a newer state replaces one that was not received yet,
// and states older than the last one sent are dropped. The channel is
// closed once ctx is done.
func (t *Tracker) Watch(ctx context.Context) <-chan types.State {
	w := &watcher{ch: make(chan types.State, 1)}

	cancel := t.Subscribe(w.deliver)
	w.deliver(t.State())

	go func() {
		<-ctx.Done()
		cancel()
		w.close()
	}()

	return w.ch
}

type watcher struct {
	mu     sync.Mutex
	ch     chan types.State
	sent   bool
	last   uint64
	closed bool
}

func (w *watcher) deliver(st types.State) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed || (w.sent && st.Seq <= w.last) {
		return
	}

	select {
	case <-w.ch:
	default:
	}

	w.ch <- st
	w.sent = true
	w.last = st.Seq
}

func (w *watcher) close() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.closed = true
	close(w.ch)
}
