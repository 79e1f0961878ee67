package async

import (
	"context"
	"runtime/debug"

	"github.com/m-mizutani/ctxlog"
)

// Dispatch runs handler on its own goroutine, detached from the
// caller's cancellation but keeping the caller's logger. Used to hand
// events to external collaborators (the index generator) without
// letting a failing or panicking collaborator affect the sync pass.
//
// The returned channel closes when the handler finishes. Callers in a
// run-to-completion process must wait on it before exiting, or the
// process may exit ahead of the handler.
//
// Panics are recovered and logged with a stack trace; a returned error
// is logged, never propagated.
func Dispatch(ctx context.Context, handler func(ctx context.Context) error) <-chan struct{} {
	detached := ctxlog.With(context.Background(), ctxlog.From(ctx))
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				ctxlog.From(detached).Error("panic in async handler",
					"recover", r,
					"stack", string(debug.Stack()))
			}
		}()

		if err := handler(detached); err != nil {
			ctxlog.From(detached).Error("error in async handler", "error", err)
		}
	}()

	return done
}
