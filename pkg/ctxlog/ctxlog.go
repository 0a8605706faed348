// Package ctxlog carries a zap Logger inside a Context so that every stage of
// a curator invocation logs with the same fields.
package ctxlog

import (
	"context"

	"go.uber.org/zap"
)

type loggerKeyType struct{}

var (
	loggerKey = loggerKeyType{}

	// Returned when nothing is embedded, so L never returns nil.
	nop = zap.NewNop()
)

// WithLogger embeds logger in ctx.
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// WithFields adds fields to the Logger embedded in ctx.
func WithFields(ctx context.Context, fields ...zap.Field) context.Context {
	return WithLogger(ctx, L(ctx).With(fields...))
}

// WithName appends name to the Logger embedded in ctx.
func WithName(ctx context.Context, name string) context.Context {
	return WithLogger(ctx, L(ctx).Named(name))
}

// L returns the Logger embedded in ctx, or a nop Logger.
func L(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return l
	}
	return nop
}
