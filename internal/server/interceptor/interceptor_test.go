package interceptor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func newCall(md metadata.MD) (*Call, *[]metadata.MD) {
	var trailers []metadata.MD
	call := &Call{
		Shape:   ShapeUnary,
		Method:  "/stockmarket.QuoteService/GetQuote",
		Headers: md,
		setTrailer: func(m metadata.MD) {
			trailers = append(trailers, m)
		},
	}
	return call, &trailers
}

func TestTraceIDGeneratesWhenAbsent(t *testing.T) {
	call, trailers := newCall(metadata.MD{})

	require.NoError(t, TraceID()(context.Background(), call))

	require.Len(t, *trailers, 1)
	ids := (*trailers)[0].Get(TraceIDHeader)
	require.Len(t, ids, 1)
	assert.NotEmpty(t, ids[0])
}

func TestTraceIDGeneratedValuesAreUnique(t *testing.T) {
	hook := TraceID()

	callA, trailersA := newCall(metadata.MD{})
	callB, trailersB := newCall(metadata.MD{})
	require.NoError(t, hook(context.Background(), callA))
	require.NoError(t, hook(context.Background(), callB))

	idA := (*trailersA)[0].Get(TraceIDHeader)[0]
	idB := (*trailersB)[0].Get(TraceIDHeader)[0]
	assert.NotEqual(t, idA, idB)
}

func TestTraceIDIdempotentWhenPresent(t *testing.T) {
	call, trailers := newCall(metadata.Pairs(TraceIDHeader, "existing-id"))

	hook := TraceID()
	require.NoError(t, hook(context.Background(), call))
	require.NoError(t, hook(context.Background(), call))

	assert.Empty(t, *trailers, "existing trace id must not be re-emitted")
}

func TestTraceIDHeaderLookupIsCaseInsensitive(t *testing.T) {
	call, trailers := newCall(metadata.Pairs("X-Trace-Id", "existing-id"))

	require.NoError(t, TraceID()(context.Background(), call))
	assert.Empty(t, *trailers)
}

func TestAuth(t *testing.T) {
	hook := Auth("jwt-token")

	tests := []struct {
		name     string
		md       metadata.MD
		wantCode codes.Code
	}{
		{"valid token", metadata.Pairs(AuthHeader, "jwt-token"), codes.OK},
		{"missing header", metadata.MD{}, codes.Unauthenticated},
		{"wrong token", metadata.Pairs(AuthHeader, "nope"), codes.Unauthenticated},
		{"no scheme parsing", metadata.Pairs(AuthHeader, "Bearer jwt-token"), codes.Unauthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			call, _ := newCall(tt.md)
			err := hook(context.Background(), call)
			if tt.wantCode == codes.OK {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, status.Code(err))
		})
	}
}

func TestLoggingNeverFails(t *testing.T) {
	hook := Logging(slog.New(slog.NewTextHandler(io.Discard, nil)))
	call, _ := newCall(metadata.Pairs(AuthHeader, "jwt-token", "x-custom", "v"))
	assert.NoError(t, hook(context.Background(), call))
}

func TestChainUnaryRunsHooksInOrderBeforeHandler(t *testing.T) {
	var order []string
	hook := func(name string, fail bool) Hook {
		return func(ctx context.Context, call *Call) error {
			order = append(order, name)
			if fail {
				return errors.New(name + " failed")
			}
			return nil
		}
	}

	ctx := metadata.NewIncomingContext(context.Background(), metadata.MD{})
	info := &grpc.UnaryServerInfo{FullMethod: "/stockmarket.QuoteService/GetQuote"}

	t.Run("all hooks pass", func(t *testing.T) {
		order = nil
		handled := false
		intc := ChainUnary(hook("trace", false), hook("auth", false), hook("log", false))
		_, err := intc(ctx, nil, info, func(ctx context.Context, req any) (any, error) {
			handled = true
			return nil, nil
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"trace", "auth", "log"}, order)
		assert.True(t, handled)
	})

	t.Run("failing hook short-circuits", func(t *testing.T) {
		order = nil
		handled := false
		intc := ChainUnary(hook("trace", false), hook("auth", true), hook("log", false))
		_, err := intc(ctx, nil, info, func(ctx context.Context, req any) (any, error) {
			handled = true
			return nil, nil
		})
		require.Error(t, err)
		assert.Equal(t, []string{"trace", "auth"}, order, "hooks after the failure must not run")
		assert.False(t, handled, "handler must not run after a rejected call")
	})
}

func TestChainStreamShapesAndShortCircuit(t *testing.T) {
	tests := []struct {
		name string
		info *grpc.StreamServerInfo
		want Shape
	}{
		{"server stream", &grpc.StreamServerInfo{IsServerStream: true}, ShapeServerStream},
		{"client stream", &grpc.StreamServerInfo{IsClientStream: true}, ShapeClientStream},
		{"bidi stream", &grpc.StreamServerInfo{IsClientStream: true, IsServerStream: true}, ShapeBidiStream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen Shape
			intc := ChainStream(func(ctx context.Context, call *Call) error {
				seen = call.Shape
				return nil
			})
			ss := &fakeServerStream{ctx: context.Background()}
			err := intc(nil, ss, tt.info, func(srv any, stream grpc.ServerStream) error { return nil })
			require.NoError(t, err)
			assert.Equal(t, tt.want, seen)
		})
	}

	t.Run("hook error aborts before handler", func(t *testing.T) {
		intc := ChainStream(func(ctx context.Context, call *Call) error {
			return status.Error(codes.Unauthenticated, "nope")
		})
		ss := &fakeServerStream{ctx: context.Background()}
		handled := false
		err := intc(nil, ss, &grpc.StreamServerInfo{IsServerStream: true}, func(srv any, stream grpc.ServerStream) error {
			handled = true
			return nil
		})
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
		assert.False(t, handled)
	})
}

// fakeServerStream is the minimal grpc.ServerStream used by the chain tests.
type fakeServerStream struct {
	ctx      context.Context
	trailers []metadata.MD
}

func (f *fakeServerStream) SetHeader(metadata.MD) error  { return nil }
func (f *fakeServerStream) SendHeader(metadata.MD) error { return nil }
func (f *fakeServerStream) SetTrailer(md metadata.MD)    { f.trailers = append(f.trailers, md) }
func (f *fakeServerStream) Context() context.Context     { return f.ctx }
func (f *fakeServerStream) SendMsg(any) error            { return nil }
func (f *fakeServerStream) RecvMsg(any) error            { return nil }
