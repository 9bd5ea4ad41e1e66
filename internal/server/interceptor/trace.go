package interceptor

import (
	"context"

	"github.com/google/uuid"
	"google.golang.org/grpc/metadata"
)

// TraceIDHeader carries the correlation id of a call. It is read from the
// incoming request metadata and, when generated server-side, attached to the
// response trailers under the same key.
const TraceIDHeader = "x-trace-id"

// TraceID ensures every call carries a trace id. A call that already has one
// is left untouched; the transport propagates the existing id. A call
// without one gets a freshly generated id in its outgoing trailers. Never
// fails.
func TraceID() Hook {
	return func(ctx context.Context, call *Call) error {
		if call.Header(TraceIDHeader) != "" {
			return nil
		}
		call.SetTrailer(metadata.Pairs(TraceIDHeader, uuid.NewString()))
		return nil
	}
}
