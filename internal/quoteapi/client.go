package quoteapi

import (
	"context"

	"google.golang.org/grpc"
)

// Client is a typed client for stockmarket.QuoteService. The underlying
// connection must be dialed with grpc.CallContentSubtype(CodecName) so both
// ends speak the JSON codec.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps an existing client connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// GetQuote performs the unary call.
func (c *Client) GetQuote(ctx context.Context, req *QuoteRequest, opts ...grpc.CallOption) (*Quote, error) {
	out := new(Quote)
	if err := c.cc.Invoke(ctx, MethodGetQuote, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// QuoteRecvStream is the client view of the server-streaming call.
type QuoteRecvStream interface {
	Recv() (*Quote, error)
	grpc.ClientStream
}

// StreamQuotes opens the server-streaming call and sends the request.
func (c *Client) StreamQuotes(ctx context.Context, req *QuoteRequest, opts ...grpc.CallOption) (QuoteRecvStream, error) {
	cs, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], MethodStreamQuotes, opts...)
	if err != nil {
		return nil, err
	}
	if err := cs.SendMsg(req); err != nil {
		return nil, err
	}
	if err := cs.CloseSend(); err != nil {
		return nil, err
	}
	return &quoteRecvStream{cs}, nil
}

type quoteRecvStream struct {
	grpc.ClientStream
}

func (s *quoteRecvStream) Recv() (*Quote, error) {
	q := new(Quote)
	if err := s.RecvMsg(q); err != nil {
		return nil, err
	}
	return q, nil
}

// UpdateSendStream is the client view of the client-streaming call.
type UpdateSendStream interface {
	Send(*PriceUpdate) error
	// CloseAndRecv closes the sending side and waits for the summary.
	CloseAndRecv() (*IngestSummary, error)
	grpc.ClientStream
}

// IngestUpdates opens the client-streaming call.
func (c *Client) IngestUpdates(ctx context.Context, opts ...grpc.CallOption) (UpdateSendStream, error) {
	cs, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[1], MethodIngestUpdates, opts...)
	if err != nil {
		return nil, err
	}
	return &updateSendStream{cs}, nil
}

type updateSendStream struct {
	grpc.ClientStream
}

func (s *updateSendStream) Send(u *PriceUpdate) error { return s.SendMsg(u) }

func (s *updateSendStream) CloseAndRecv() (*IngestSummary, error) {
	if err := s.CloseSend(); err != nil {
		return nil, err
	}
	sum := new(IngestSummary)
	if err := s.RecvMsg(sum); err != nil {
		return nil, err
	}
	return sum, nil
}

// WatchClientStream is the client view of the bidirectional call.
type WatchClientStream interface {
	Send(*QuoteRequest) error
	Recv() (*Quote, error)
	grpc.ClientStream
}

// Watch opens the bidirectional call.
func (c *Client) Watch(ctx context.Context, opts ...grpc.CallOption) (WatchClientStream, error) {
	cs, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[2], MethodWatch, opts...)
	if err != nil {
		return nil, err
	}
	return &watchClientStream{cs}, nil
}

type watchClientStream struct {
	grpc.ClientStream
}

func (s *watchClientStream) Send(req *QuoteRequest) error { return s.SendMsg(req) }

func (s *watchClientStream) Recv() (*Quote, error) {
	q := new(Quote)
	if err := s.RecvMsg(q); err != nil {
		return nil, err
	}
	return q, nil
}
