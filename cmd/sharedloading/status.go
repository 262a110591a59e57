package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/scality/backbeat/shared-loading/pkg/exporter"
	"github.com/scality/backbeat/shared-loading/pkg/types"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	errStillLoading = errors.New("still loading")
	errPollInterval = errors.New("poll interval must be positive when waiting")
)

func newStatusCommand() *cobra.Command {
	v := newViper()

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print the trackers of a running demo",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := bindConfig(cmd, v)
			if err != nil {
				return err
			}

			client := resty.New().SetTimeout(v.GetDuration("timeout"))

			s, err := waitIdle(cmd.Context(), client, v.GetString("addr"), v.GetDuration("wait-idle"), v.GetDuration("poll-interval"))
			if s != nil {
				printStatus(cmd.OutOrStdout(), s)
			}

			return err
		},
	}

	f := cmd.Flags()
	f.String("addr", "http://localhost:8080", "base URL of the demo exporter")
	f.Duration("timeout", 5*time.Second, "request timeout")
	f.Duration("wait-idle", 0, "poll until no tracker is loading, for at most this long")
	f.Duration("poll-interval", 200*time.Millisecond, "interval between polls when waiting")

	return cmd
}

// waitIdle fetches the status once, then keeps polling while anything is
// loading and the wait budget is not spent. The last status is returned
// along with errStillLoading if the budget ran out.
func waitIdle(ctx context.Context, client *resty.Client, addr string, wait, poll time.Duration) (*types.Status, error) {
	if wait > 0 && poll <= 0 {
		return nil, errors.Wrapf(errPollInterval, "got %s", poll)
	}

	deadline := time.Now().Add(wait)

	for {
		s, err := exporter.FetchStatus(client, addr)
		if err != nil {
			return nil, err
		}

		if wait <= 0 || !s.Loading() {
			return s, nil
		}

		if time.Now().After(deadline) {
			return s, errors.Wrapf(errStillLoading, "after %s", wait)
		}

		log.WithField("addr", addr).Debug("waiting for trackers to become idle")

		select {
		case <-ctx.Done():
			return s, ctx.Err()
		case <-time.After(poll):
		}
	}
}

func printStatus(out io.Writer, s *types.Status) {
	for _, t := range s.Trackers {
		fmt.Fprintf(out, "%s outcomes=%v\n", t.State, t.Outcomes.ToMap())
	}
}
