package sqsdrain

import "context"

// Handler processes a single message. A returned error is fatal to the
// current batch: the drain stops and nothing from the batch is deleted, so
// every message in it (including ones already handled) will be redelivered
// once its visibility window elapses. Handlers must be idempotent.
type Handler interface {
	Run(ctx context.Context, msg *Message) error
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx context.Context, msg *Message) error

// Run calls fn.
func (fn HandlerFunc) Run(ctx context.Context, msg *Message) error {
	return fn(ctx, msg)
}
