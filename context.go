package goAuthClient

import "context"

type requestIDContextKey struct{}

// WithRequestID attaches a caller-chosen correlation id to ctx. Audit
// events emitted while handling ctx carry it as the "request_id" metadata
// key. It is independent of the per-call X-Request-ID the gateway sends.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey{}, id)
}

func requestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	id, _ := ctx.Value(requestIDContextKey{}).(string)
	return id
}
