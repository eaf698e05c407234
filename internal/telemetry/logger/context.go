package logger

import "context"

type scopeKey struct{}

// scope is the logging state a request carries through its context.
type scope struct {
	log       Logger
	requestID string
}

func scopeOf(ctx context.Context) scope {
	s, _ := ctx.Value(scopeKey{}).(scope)
	return s
}

// WithLogger returns a context whose logger is l. A request ID already in
// ctx is kept.
func WithLogger(ctx context.Context, l Logger) context.Context {
	s := scopeOf(ctx)
	s.log = l
	return context.WithValue(ctx, scopeKey{}, s)
}

// WithRequestID returns a context carrying id. A logger already in ctx is
// kept.
func WithRequestID(ctx context.Context, id string) context.Context {
	s := scopeOf(ctx)
	s.requestID = id
	return context.WithValue(ctx, scopeKey{}, s)
}

// FromContext returns the context's logger, or Default.
func FromContext(ctx context.Context) Logger {
	if l := scopeOf(ctx).log; l != nil {
		return l
	}
	return Default()
}

// RequestIDFromContext returns the context's request ID, or "".
func RequestIDFromContext(ctx context.Context) string {
	return scopeOf(ctx).requestID
}

// L returns the logger to use while serving ctx: the context's logger,
// tagged with request_id when there is one and bound to ctx.
func L(ctx context.Context) Logger {
	s := scopeOf(ctx)
	l := s.log
	if l == nil {
		l = Default()
	}
	if s.requestID != "" {
		l = l.With("request_id", s.requestID)
	}
	return l.WithContext(ctx)
}
