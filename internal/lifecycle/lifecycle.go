// Package lifecycle binds the engine's idempotent start/stop into
// whatever host process embeds it — a plain main(), a larger server, or a
// supervisor that restarts components on signal.
package lifecycle

import "context"

// Hook is the minimal start/stop shape the engine already satisfies; any
// other component with the same signature (an HTTP server wrapper, a
// background monitor) can be bound alongside it.
type Hook interface {
	Start(ctx context.Context) error
	Stop()
}

// Bind starts every hook in order and returns a single stop function that
// tears them all down in reverse order. If a hook fails to start, the
// ones already started are stopped before the error is returned.
func Bind(ctx context.Context, hooks ...Hook) (stop func(), err error) {
	started := make([]Hook, 0, len(hooks))
	for _, h := range hooks {
		if err := h.Start(ctx); err != nil {
			stopAll(started)
			return nil, err
		}
		started = append(started, h)
	}
	return func() { stopAll(started) }, nil
}

func stopAll(hooks []Hook) {
	for i := len(hooks) - 1; i >= 0; i-- {
		hooks[i].Stop()
	}
}
