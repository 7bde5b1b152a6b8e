// Package grpc exposes the gateway services over gRPC with the JSON codec.
package grpc

import (
	"context"
	"errors"
	"net"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/dmitrijs2005/gophgate/internal/api"
	"github.com/dmitrijs2005/gophgate/internal/logging"
	"github.com/dmitrijs2005/gophgate/internal/server/models"
)

// maxMessageSize bounds an upload after base64 expansion.
const maxMessageSize = 32 << 20

type UserService interface {
	Login(ctx context.Context, email, password string) (*models.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error)
	Logout(ctx context.Context, userID, accessToken string) error
	LogoutAll(ctx context.Context, userID string) (int64, error)
}

type AssetService interface {
	Upload(ctx context.Context, data []byte, mimeType, ownerScope string) (string, error)
	Delete(ctx context.Context, assetID string) error
	Get(ctx context.Context, assetID, filename string) (*models.FileAsset, error)
}

type TokenValidator interface {
	Validate(ctx context.Context, accessToken string) (string, error)
}

type GRPCServer struct {
	address string
	users   UserService
	assets  AssetService
	tokens  TokenValidator
	limiter *rate.Limiter
	health  *health.Server
	logger  logging.Logger
}

// NewGRPCServer wires the handlers. limit and burst configure the shared
// limiter of Login and RefreshToken.
func NewGRPCServer(address string, l logging.Logger, us UserService, as AssetService, tv TokenValidator,
	limit rate.Limit, burst int) *GRPCServer {
	return &GRPCServer{
		address: address,
		users:   us,
		assets:  as,
		tokens:  tv,
		limiter: rate.NewLimiter(limit, burst),
		health:  health.NewServer(),
		logger:  l.With("module", "grpc_server"),
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(s.rateLimitInterceptor, s.accessTokenInterceptor),
		grpc.MaxRecvMsgSize(maxMessageSize),
	)

	api.RegisterGatewayServer(srv, &handler{server: s})
	healthpb.RegisterHealthServer(srv, s.health)
	s.health.SetServingStatus(api.ServiceName, healthpb.HealthCheckResponse_SERVING)

	return srv
}

// Serve runs on an existing listener until ctx is done, then marks the
// service NOT_SERVING and stops gracefully.
func (s *GRPCServer) Serve(ctx context.Context, listen net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}
