package grpcserver

import (
	"context"
	"net"
	"time"

	"google.golang.org/grpc"

	ddmv1 "github.com/solanafuns/ddmonitor/api/ddmonitor/v1"
	"github.com/solanafuns/ddmonitor/internal/runtime"
	"github.com/solanafuns/ddmonitor/pkg/log"
)

// Server owns the gRPC server instance and runtime.
type Server struct {
	rt     *runtime.Runtime
	grpc   *grpc.Server
	lis    net.Listener
	logger log.Logger
}

// New constructs a gRPC server and registers the Ledger service. Metrics
// and request logging interceptors run ahead of any caller options.
func New(rt *runtime.Runtime, opts ...grpc.ServerOption) *Server {
	logger := rt.Logger().WithComponent("grpc")
	base := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(rt.Metrics().UnaryInterceptor(), logUnary(logger)),
		grpc.ChainStreamInterceptor(rt.Metrics().StreamInterceptor()),
	}
	s := &Server{rt: rt, grpc: grpc.NewServer(append(base, opts...)...), logger: logger}
	ddmv1.RegisterLedgerServer(s.grpc, &ledgerSvc{rt: rt, logger: logger})
	return s
}

// ListenAndServe binds to addr and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.lis = l
	s.logger.Info("listening", log.Str("addr", l.Addr().String()))
	errCh := make(chan error, 1)
	go func() { errCh <- s.grpc.Serve(l) }()
	select {
	case <-ctx.Done():
		s.stop()
		return nil
	case err := <-errCh:
		return err
	}
}

// Serve serves on an existing listener until Close.
func (s *Server) Serve(lis net.Listener) error { return s.grpc.Serve(lis) }

// Close stops the server and closes the listener.
func (s *Server) Close() {
	if s.grpc != nil {
		s.stop()
	}
	if s.lis != nil {
		_ = s.lis.Close()
	}
}

// shutdownGrace bounds how long open subscription streams may hold up a
// graceful stop.
const shutdownGrace = 5 * time.Second

func (s *Server) stop() {
	done := make(chan struct{})
	go func() {
		s.grpc.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(shutdownGrace):
		s.grpc.Stop()
		<-done
	}
}

func logUnary(logger log.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		resp, err := handler(ctx, req)
		if err != nil {
			logger.Debug("call failed", log.Str("method", info.FullMethod), log.Err(err))
		}
		return resp, err
	}
}
