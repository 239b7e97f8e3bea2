package rpcstatus

import (
	"context"
	"net"

	"github.com/dmitrijs2005/funnel/internal/auth"
	"github.com/dmitrijs2005/funnel/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Server is the gRPC endpoint. Every unary call passes through
// IdentityInterceptor and ErrorInterceptor; services attach via Register.
type Server struct {
	address  string
	logger   logging.Logger
	auth     *auth.Authenticator
	register []func(*grpc.Server)
}

func NewServer(address string, a *auth.Authenticator, l logging.Logger) *Server {
	return &Server{
		address: address,
		logger:  l.With("module", "grpc_server"),
		auth:    a,
	}
}

// Register queues fn to attach a service before the server starts.
func (s *Server) Register(fn func(*grpc.Server)) {
	s.register = append(s.register, fn)
}

// Run listens on the configured address and serves until ctx ends.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx ends, then stops gracefully.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		IdentityInterceptor(s.auth, s.logger),
		ErrorInterceptor(s.logger),
	))

	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	for _, fn := range s.register {
		fn(srv)
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		hs.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())
	return srv.Serve(lis)
}
