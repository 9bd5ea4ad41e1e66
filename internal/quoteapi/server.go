package quoteapi

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "stockmarket.QuoteService"

// Full method names, as seen by interceptors and clients.
const (
	MethodGetQuote      = "/" + ServiceName + "/GetQuote"
	MethodStreamQuotes  = "/" + ServiceName + "/StreamQuotes"
	MethodIngestUpdates = "/" + ServiceName + "/IngestUpdates"
	MethodWatch         = "/" + ServiceName + "/Watch"
)

// QuoteServiceServer is the server contract for the four call shapes of the
// quote service.
type QuoteServiceServer interface {
	// GetQuote returns a single quote for the requested symbol.
	GetQuote(ctx context.Context, req *QuoteRequest) (*Quote, error)
	// StreamQuotes emits a bounded series of quotes for one symbol.
	StreamQuotes(req *QuoteRequest, stream QuoteSendStream) error
	// IngestUpdates consumes a stream of price updates and replies with a
	// summary once the client closes the stream.
	IngestUpdates(stream UpdateRecvStream) error
	// Watch answers every inbound request with exactly one quote.
	Watch(stream WatchStream) error
}

// QuoteSendStream is the server view of a server-streaming call.
type QuoteSendStream interface {
	Send(*Quote) error
	Context() context.Context
}

// UpdateRecvStream is the server view of a client-streaming call. Recv
// returns io.EOF once the client has closed its side.
type UpdateRecvStream interface {
	Recv() (*PriceUpdate, error)
	SendAndClose(*IngestSummary) error
	Context() context.Context
}

// WatchStream is the server view of the bidirectional call.
type WatchStream interface {
	Recv() (*QuoteRequest, error)
	Send(*Quote) error
	Context() context.Context
}

// RegisterQuoteServiceServer registers srv with the gRPC server.
func RegisterQuoteServiceServer(s grpc.ServiceRegistrar, srv QuoteServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// ServiceDesc is the hand-written gRPC service descriptor. There is no
// protoc-generated code in this repository; messages travel as JSON via
// Codec.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*QuoteServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetQuote",
			Handler:    getQuoteHandler,
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "StreamQuotes",
			Handler:       streamQuotesHandler,
			ServerStreams: true,
		},
		{
			StreamName:    "IngestUpdates",
			Handler:       ingestUpdatesHandler,
			ClientStreams: true,
		},
		{
			StreamName:    "Watch",
			Handler:       watchHandler,
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: "quoteapi",
}

func getQuoteHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(QuoteRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(QuoteServiceServer).GetQuote(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: MethodGetQuote,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(QuoteServiceServer).GetQuote(ctx, req.(*QuoteRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func streamQuotesHandler(srv any, stream grpc.ServerStream) error {
	req := new(QuoteRequest)
	if err := stream.RecvMsg(req); err != nil {
		return err
	}
	return srv.(QuoteServiceServer).StreamQuotes(req, &quoteSendStream{stream})
}

func ingestUpdatesHandler(srv any, stream grpc.ServerStream) error {
	return srv.(QuoteServiceServer).IngestUpdates(&updateRecvStream{stream})
}

func watchHandler(srv any, stream grpc.ServerStream) error {
	return srv.(QuoteServiceServer).Watch(&watchStream{stream})
}

type quoteSendStream struct {
	grpc.ServerStream
}

func (s *quoteSendStream) Send(q *Quote) error { return s.SendMsg(q) }

type updateRecvStream struct {
	grpc.ServerStream
}

func (s *updateRecvStream) Recv() (*PriceUpdate, error) {
	u := new(PriceUpdate)
	if err := s.RecvMsg(u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *updateRecvStream) SendAndClose(sum *IngestSummary) error { return s.SendMsg(sum) }

type watchStream struct {
	grpc.ServerStream
}

func (s *watchStream) Recv() (*QuoteRequest, error) {
	req := new(QuoteRequest)
	if err := s.RecvMsg(req); err != nil {
		return nil, err
	}
	return req, nil
}

func (s *watchStream) Send(q *Quote) error { return s.SendMsg(q) }
