package logger

import "context"

type contextKey int

const (
	requestIDKey contextKey = iota
	processingIDKey
)

// WithRequestID returns a new context with the given HTTP request ID stored.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID extracts the HTTP request ID from the context.
// Returns an empty string if no request ID is set.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithProcessingID tags ctx with the dispatch queue processing ID.
func WithProcessingID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, processingIDKey, id)
}

// ProcessingID extracts the dispatch queue processing ID from the context.
func ProcessingID(ctx context.Context) string {
	id, _ := ctx.Value(processingIDKey).(string)
	return id
}

// Attrs returns the correlation attributes carried by ctx, for use with
// slog's *Context methods or logger.With.
func Attrs(ctx context.Context) []any {
	var attrs []any
	if id := RequestID(ctx); id != "" {
		attrs = append(attrs, "request_id", id)
	}
	if id := ProcessingID(ctx); id != "" {
		attrs = append(attrs, "processing_id", id)
	}
	return attrs
}
