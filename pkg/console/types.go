package console

import "context"

type (
	// Channel is one line of the console. Each Output replaces the
	// previous one.
	Channel interface {
		Output(msg map[string]interface{})
	}

	// Monitor owns the channels of one console. Channels appended with
	// AppendDebug carry diagnostics, such as per-wave summaries, that a
	// logging monitor only emits at debug level.
	Monitor interface {
		Start(ctx context.Context)
		Stop()

		Append(name string) Channel
		AppendDebug(name string) Channel
	}
)
