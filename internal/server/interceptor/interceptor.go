// Package interceptor implements the server's cross-cutting call pipeline:
// trace-id propagation, authentication, and call logging, written once as
// shape-agnostic hooks and installed for all four gRPC call shapes.
package interceptor

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// Shape identifies one of the four gRPC call cardinalities.
type Shape string

const (
	ShapeUnary        Shape = "unary"
	ShapeServerStream Shape = "server_stream"
	ShapeClientStream Shape = "client_stream"
	ShapeBidiStream   Shape = "bidi_stream"
)

// Call is the hooks' uniform view of an inbound call, independent of shape.
// Deadline and cancellation travel on the call's context.Context. Hooks only
// read the call, except for attaching trailer metadata on the response path.
type Call struct {
	Shape   Shape
	Method  string
	Headers metadata.MD

	setTrailer func(metadata.MD)
}

// Header returns the first value of the named header, or "" when absent.
// Metadata keys are matched case-insensitively.
func (c *Call) Header(key string) string {
	vals := c.Headers.Get(key)
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}

// SetTrailer attaches metadata to the outgoing trailer set.
func (c *Call) SetTrailer(md metadata.MD) {
	if c.setTrailer != nil {
		c.setTrailer(md)
	}
}

// Hook runs before the handler. Returning an error terminates the call
// immediately; neither later hooks nor the handler execute.
type Hook func(ctx context.Context, call *Call) error

// ChainUnary adapts the hooks to a unary server interceptor. Hooks run in
// the given order.
func ChainUnary(hooks ...Hook) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		call := &Call{
			Shape:   ShapeUnary,
			Method:  info.FullMethod,
			Headers: incomingHeaders(ctx),
			setTrailer: func(md metadata.MD) {
				_ = grpc.SetTrailer(ctx, md)
			},
		}
		for _, h := range hooks {
			if err := h(ctx, call); err != nil {
				return nil, err
			}
		}
		return handler(ctx, req)
	}
}

// ChainStream adapts the same hooks to a stream server interceptor covering
// the three streaming shapes.
func ChainStream(hooks ...Hook) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		ctx := ss.Context()
		call := &Call{
			Shape:      streamShape(info),
			Method:     info.FullMethod,
			Headers:    incomingHeaders(ctx),
			setTrailer: ss.SetTrailer,
		}
		for _, h := range hooks {
			if err := h(ctx, call); err != nil {
				return err
			}
		}
		return handler(srv, ss)
	}
}

func streamShape(info *grpc.StreamServerInfo) Shape {
	switch {
	case info.IsClientStream && info.IsServerStream:
		return ShapeBidiStream
	case info.IsClientStream:
		return ShapeClientStream
	default:
		return ShapeServerStream
	}
}

func incomingHeaders(ctx context.Context) metadata.MD {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return metadata.MD{}
	}
	return md
}
