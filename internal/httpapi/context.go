package httpapi

import (
	"context"
)

// serverBaseCtx is the process-level context the daemon cancels once the
// scheduler has drained, so in-flight handlers and event streams end with it.
// Defaults to Background if not set.
var serverBaseCtx = context.Background()

// SetBaseContext installs the daemon's base context. Passing nil resets to
// Background.
func SetBaseContext(ctx context.Context) {
	if ctx == nil {
		serverBaseCtx = context.Background()
		return
	}
	serverBaseCtx = ctx
}

// joinContexts returns a context canceled when either a or b is done. Handlers
// join the base context with the request context so both client disconnects
// and daemon shutdown stop the work. The cancel func must be called when the
// handler returns to release the watcher goroutine.
func joinContexts(a, b context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-a.Done():
			cancel()
		case <-b.Done():
			cancel()
		}
	}()
	return ctx, cancel
}
