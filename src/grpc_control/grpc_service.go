package grpc_control

import (
	context "context"
	"errors"
	"fmt"
	"net"
	"sync/atomic"

	"stock-data-service/src/auth"
	"stock-data-service/src/config"
	"stock-data-service/src/health"
	"stock-data-service/src/logger"

	"golang.org/x/sync/errgroup"
	grpc "google.golang.org/grpc"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// -----------------------------------------------------------------------------
// GRPCService handles gRPC server lifecycle
// -----------------------------------------------------------------------------

// Services bundles what the server registers and how calls are gated.
type Services struct {
	Stock  *StockServiceImpl
	Auth   *AuthServiceImpl
	Health *health.Registry
	Gate   *auth.Gate
}

// -----------------------------------------------------------------------------

type GRPCService struct {
	server   *grpc.Server
	listener net.Listener
	config   *config.Config
	logger   *logger.Logger
	running  atomic.Bool
}

// -----------------------------------------------------------------------------

// NewGRPCService listens on the configured address and registers every service.
func NewGRPCService(config *config.Config, logger *logger.Logger, services *Services) (*GRPCService, error) {
	address := config.GRPCAddress()

	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	return NewGRPCServiceWithListener(config, logger, services, listener), nil
}

// -----------------------------------------------------------------------------

// NewGRPCServiceWithListener serves on an existing listener, used by in-memory tests.
func NewGRPCServiceWithListener(config *config.Config, logger *logger.Logger, services *Services, listener net.Listener) *GRPCService {
	serverOptions := []grpc.ServerOption{
		grpc.MaxRecvMsgSize(10 * 1024 * 1024), // 10MB
		grpc.MaxSendMsgSize(10 * 1024 * 1024), // 10MB
		grpc.ChainUnaryInterceptor(
			accessLogUnaryInterceptor(logger),
			services.Gate.UnaryServerInterceptor(),
		),
		grpc.ChainStreamInterceptor(
			accessLogStreamInterceptor(logger),
			services.Gate.StreamServerInterceptor(),
		),
	}

	server := grpc.NewServer(serverOptions...)

	RegisterAuthServiceServer(server, services.Auth)
	RegisterStockServiceServer(server, services.Stock)
	grpc_health_v1.RegisterHealthServer(server, services.Health)

	return &GRPCService{
		server:   server,
		listener: listener,
		config:   config,
		logger:   logger,
	}
}

// -----------------------------------------------------------------------------

// Start serves until ctx is cancelled, then stops gracefully within the
// configured shutdown timeout.
func (g *GRPCService) Start(ctx context.Context) error {
	g.logger.Info("Starting gRPC service on %s", g.listener.Addr().String())

	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		g.running.Store(true)
		defer g.running.Store(false)

		if err := g.server.Serve(g.listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			g.logger.Error("gRPC server failed: %v", err)
			return err
		}
		return nil
	})

	eg.Go(func() error {
		<-ctx.Done()
		g.logger.Info("Received shutdown signal, stopping gRPC service...")

		stopCtx, cancel := context.WithTimeout(context.Background(), g.config.ShutdownTimeout)
		defer cancel()
		return g.Stop(stopCtx)
	})

	return eg.Wait()
}

// -----------------------------------------------------------------------------

// Stop gracefully stops the gRPC server
func (g *GRPCService) Stop(ctx context.Context) error {
	g.logger.Info("Stopping gRPC service...")

	if g.server != nil {
		// Graceful stop
		done := make(chan struct{})
		go func() {
			g.server.GracefulStop()
			close(done)
		}()

		select {
		case <-ctx.Done():
			g.logger.Warning("gRPC graceful shutdown timeout, forcing stop...")
			g.server.Stop()
		case <-done:
			g.logger.Info("gRPC service stopped gracefully")
		}
	}

	g.running.Store(false)
	g.logger.Info("gRPC service stopped")
	return nil
}

// -----------------------------------------------------------------------------

// IsRunning returns whether the gRPC server is running
func (g *GRPCService) IsRunning() bool {
	return g.running.Load()
}

// -----------------------------------------------------------------------------

// Addr returns the listening address.
func (g *GRPCService) Addr() net.Addr {
	return g.listener.Addr()
}
