package console

import (
	"context"
	"time"

	"github.com/scality/backbeat/shared-loading/pkg/loading"
	"github.com/scality/backbeat/shared-loading/pkg/types"
)

const (
	StatusIdle = "idle"

	statusLoading = "loading"
)

var spinnerFrames = []string{"|", "/", "-", "\\"}

// Indicator shows the state of one tracker on one channel.
type Indicator struct {
	tracker       *loading.Tracker
	channel       Channel
	frameInterval time.Duration
}

// NewIndicator binds t to ch. While loading, the spinner advances every
// frameInterval; a zero interval only outputs on state changes.
func NewIndicator(t *loading.Tracker, ch Channel, frameInterval time.Duration) *Indicator {
	return &Indicator{
		tracker:       t,
		channel:       ch,
		frameInterval: frameInterval,
	}
}

// Run outputs until ctx is done.
func (i *Indicator) Run(ctx context.Context) {
	states := i.tracker.Watch(ctx)

	var frames <-chan time.Time
	if i.frameInterval > 0 {
		t := time.NewTicker(i.frameInterval)
		defer t.Stop()
		frames = t.C
	}

	var (
		st    types.State
		frame int
	)

	for {
		select {
		case <-ctx.Done():
			return

		case s, ok := <-states:
			if !ok {
				return
			}

			st = s
			i.channel.Output(Render(st, frame))

		case <-frames:
			if st.Loading {
				frame++
				i.channel.Output(Render(st, frame))
			}
		}
	}
}

// Render is the message an Indicator outputs for st at the given frame.
func Render(st types.State, frame int) map[string]interface{} {
	status := StatusIdle
	if st.Loading {
		status = statusLoading + " " + spinnerFrames[frame%len(spinnerFrames)]
	}

	return map[string]interface{}{
		"status":  status,
		"running": st.Running,
	}
}
