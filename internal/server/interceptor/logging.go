package interceptor

import (
	"context"
	"log/slog"
)

// Logging records call start: one record with shape and method, then one per
// header entry. Observability only; it never fails a call, so it returns nil
// unconditionally.
func Logging(logger *slog.Logger) Hook {
	return func(ctx context.Context, call *Call) error {
		logger.InfoContext(ctx, "call started",
			slog.String("shape", string(call.Shape)),
			slog.String("method", call.Method),
		)
		for key, vals := range call.Headers {
			for _, v := range vals {
				logger.InfoContext(ctx, "call header",
					slog.String("key", key),
					slog.String("value", v),
				)
			}
		}
		return nil
	}
}
