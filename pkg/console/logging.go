package console

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"
)

var (
	_ Channel = &LoggingChannel{}
	_ Monitor = &LoggingMonitor{}
)

type (
	LoggingChannel struct {
		log     *log.Entry
		isDebug bool
	}

	// LoggingMonitor is used when stdout is not a terminal. Every output
	// becomes one log entry.
	LoggingMonitor struct {
	}
)

// Output logs msg as fields. An Indicator status becomes the message, so
// that a spinner frame logs as "loading".
func (c *LoggingChannel) Output(msg map[string]interface{}) {
	fields := log.Fields{}
	text := "update"

	for k, v := range msg {
		if k == "status" {
			if s, ok := v.(string); ok {
				text = logMessage(s)
				continue
			}
		}

		fields[k] = v
	}

	l := c.log.WithFields(fields)

	if c.isDebug {
		l.Debug(text)
	} else {
		l.Info(text)
	}
}

func logMessage(status string) string {
	if strings.HasPrefix(status, statusLoading) {
		return statusLoading
	}

	return status
}

func (m *LoggingMonitor) Start(ctx context.Context) {
}

func (m *LoggingMonitor) Stop() {
}

func (m *LoggingMonitor) Append(name string) Channel {
	return &LoggingChannel{
		log: log.WithField("channel", name),
	}
}

func (m *LoggingMonitor) AppendDebug(name string) Channel {
	return &LoggingChannel{
		log:     log.WithField("channel", name),
		isDebug: true,
	}
}
