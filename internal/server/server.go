// Package server assembles the gRPC server for the quote service: codec,
// interceptor chain, service registration, and lifecycle.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/keepalive"

	"marketd/internal/quoteapi"
	"marketd/internal/server/interceptor"
)

// Config holds the gRPC server configuration.
type Config struct {
	Addr      string
	AuthToken string
}

// Server is the gRPC front of the quote service.
type Server struct {
	cfg    Config
	grpc   *grpc.Server
	logger *slog.Logger
}

// New builds a Server with the call pipeline installed for all four call
// shapes in fixed order: trace propagation, authentication, call logging.
// A call rejected by authentication never reaches the call logger.
func New(cfg Config, svc quoteapi.QuoteServiceServer, logger *slog.Logger) *Server {
	hooks := []interceptor.Hook{
		interceptor.TraceID(),
		interceptor.Auth(cfg.AuthToken),
		interceptor.Logging(logger),
	}

	gs := grpc.NewServer(
		grpc.ForceServerCodec(quoteapi.Codec{}),
		grpc.ChainUnaryInterceptor(interceptor.ChainUnary(hooks...)),
		grpc.ChainStreamInterceptor(interceptor.ChainStream(hooks...)),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             10 * time.Second,
			PermitWithoutStream: true,
		}),
	)
	quoteapi.RegisterQuoteServiceServer(gs, svc)

	return &Server{
		cfg:    cfg,
		grpc:   gs,
		logger: logger.With(slog.String("component", "server")),
	}
}

// Run listens on the configured address and serves until ctx is cancelled,
// then stops gracefully so in-flight streams finish their final writes.
func (s *Server) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", s.cfg.Addr, err)
	}

	go func() {
		<-ctx.Done()
		s.logger.Info("stopping grpc server")
		s.grpc.GracefulStop()
	}()

	s.logger.Info("grpc server listening", slog.String("addr", lis.Addr().String()))
	return s.Serve(lis)
}

// Serve serves on the given listener until the server is stopped.
func (s *Server) Serve(lis net.Listener) error {
	if err := s.grpc.Serve(lis); err != nil {
		return fmt.Errorf("server: serve: %w", err)
	}
	return nil
}

// Stop gracefully stops the server, waiting for in-flight calls.
func (s *Server) Stop() {
	s.grpc.GracefulStop()
}
