package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/scality/backbeat/shared-loading/pkg/console"
	"github.com/scality/backbeat/shared-loading/pkg/counter/outcome"
	"github.com/scality/backbeat/shared-loading/pkg/exporter"
	"github.com/scality/backbeat/shared-loading/pkg/loading"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var errSimulated = errors.New("simulated failure")

func newDemoCommand() *cobra.Command {
	v := newViper()

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run overlapping simulated tasks against one shared tracker",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := bindConfig(cmd, v)
			if err != nil {
				return err
			}

			cfg, err := loadDemoConfig(v)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runDemo(ctx, cfg, cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.String("tracker", "demo", "tracker name")
	f.Int("tasks", 5, "tasks started per wave")
	f.Int("waves", 3, "number of waves of tasks")
	f.Duration("min-duration", 200*time.Millisecond, "minimum simulated task duration")
	f.Duration("max-duration", 2*time.Second, "maximum simulated task duration")
	f.Float64("failure-rate", 0.2, "probability for a task to fail")
	f.Int64("seed", time.Now().UnixNano(), "random seed")
	f.String("underflow", loading.UnderflowClamp.String(), "unbalanced decrement policy: clamp, allow or panic")
	f.Bool("interactive", false, "redraw the loading indicator in place")
	f.Duration("echo-interval", 100*time.Millisecond, "console refresh interval")
	f.Duration("frame-interval", 100*time.Millisecond, "spinner frame interval, 0 disables animation")
	f.String("listen", "", "serve /metrics and /status on this address")
	f.Duration("export-interval", time.Second, "prometheus gauges refresh interval")
	f.Duration("linger", 0, "keep serving after the last wave")

	return cmd
}

type demoResult struct {
	Failures int
	Outcomes *outcome.Serialized
}

func simulatedTask(d time.Duration, fail bool) loading.Task {
	return func(ctx context.Context) error {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return ctx.Err()
		}

		if fail {
			return errSimulated
		}

		return nil
	}
}

func runDemo(ctx context.Context, cfg *demoConfig, out io.Writer) error {
	res, err := demo(ctx, cfg, out)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%d tasks, %d failed, outcomes: %v\n",
		res.Outcomes.Started, res.Failures, res.Outcomes.ToMap())

	return nil
}

func demo(ctx context.Context, cfg *demoConfig, out io.Writer) (*demoResult, error) {
	rnd := rand.New(rand.NewSource(cfg.Seed))
	tracker := loading.New(
		loading.WithName(cfg.Tracker),
		loading.WithUnderflowPolicy(cfg.underflowPolicy),
	)

	ctx, cancel := context.WithCancel(ctx)
	wg := &sync.WaitGroup{}

	defer wg.Wait()
	defer cancel()

	if cfg.Listen != "" {
		err := exporter.NewExporter().Start(ctx, cfg.Listen, []*loading.Tracker{tracker}, cfg.ExportInterval, wg)
		if err != nil {
			return nil, err
		}

		log.WithField("listen", cfg.Listen).Info("serving metrics and status")
	}

	monitor := console.NewMonitor(cfg.EchoInterval, cfg.Interactive, out)
	frameInterval := cfg.FrameInterval
	if !cfg.Interactive {
		frameInterval = 0
	}

	channel := monitor.Append(cfg.Tracker)
	waves := monitor.AppendDebug("waves")
	indicator := console.NewIndicator(tracker, channel, frameInterval)

	monitor.Start(ctx)

	indicatorCtx, stopIndicator := context.WithCancel(ctx)
	indicatorDone := make(chan struct{})

	go func() {
		defer close(indicatorDone)
		indicator.Run(indicatorCtx)
	}()

	failures := 0

	for wave := 0; wave < cfg.Waves && ctx.Err() == nil; wave++ {
		results := make([]<-chan error, 0, cfg.Tasks)

		for i := 0; i < cfg.Tasks; i++ {
			d := cfg.MinDuration
			if spread := cfg.MaxDuration - cfg.MinDuration; spread > 0 {
				d += time.Duration(rnd.Int63n(int64(spread)))
			}

			results = append(results, tracker.Go(ctx, simulatedTask(d, rnd.Float64() < cfg.FailureRate)))
		}

		log.WithFields(log.Fields{
			"wave":    wave,
			"running": tracker.Running(),
		}).Debug("wave started")

		waveFailures := 0

		for _, r := range results {
			if err := <-r; err != nil {
				waveFailures++
				log.WithError(err).WithField("wave", wave).Warn("task failed")
			}
		}

		failures += waveFailures

		waves.Output(map[string]interface{}{
			"wave":   wave + 1,
			"tasks":  len(results),
			"failed": waveFailures,
		})
	}

	stopIndicator()
	<-indicatorDone
	channel.Output(console.Render(tracker.State(), 0))
	monitor.Stop()

	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "demo interrupted")
	}

	if cfg.Linger > 0 && cfg.Listen != "" {
		select {
		case <-time.After(cfg.Linger):
		case <-ctx.Done():
		}
	}

	return &demoResult{
		Failures: failures,
		Outcomes: tracker.Outcomes().Serialize(),
	}, nil
}
