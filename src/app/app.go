package app

import (
	"context"
	"fmt"
	"net"

	"stock-data-service/src/auth"
	"stock-data-service/src/catalog"
	"stock-data-service/src/config"
	"stock-data-service/src/grpc_control"
	"stock-data-service/src/health"
	"stock-data-service/src/logger"
	"stock-data-service/src/metrics"
	"stock-data-service/src/publishers"
	"stock-data-service/src/rest"
	"stock-data-service/src/sampler"
	"stock-data-service/src/serializers"
	"stock-data-service/src/streaming"

	"golang.org/x/sync/errgroup"
)

// -----------------------------------------------------------------------------

// App owns every component of the stock data service and runs them together.
type App struct {
	Name   string
	config *config.Config
	logger *logger.Logger

	Catalog    *catalog.Catalog
	Engine     *streaming.Engine
	Registry   *health.Registry
	Aggregator *health.Aggregator
	Updater    *health.Updater
	Gate       *auth.Gate
	Stock      *grpc_control.StockServiceImpl
	Auth       *grpc_control.AuthServiceImpl
	Publisher  *publishers.NATSPublisher

	GRPC *grpc_control.GRPCService
	HTTP *rest.HTTPServer
	API  *rest.APIHandler
}

// -----------------------------------------------------------------------------

// New builds the application and opens its listeners.
func New(config *config.Config, logger *logger.Logger) (*App, error) {
	grpcListener, err := net.Listen("tcp", config.GRPCAddress())
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", config.GRPCAddress(), err)
	}
	httpListener, err := net.Listen("tcp", config.HTTPAddress())
	if err != nil {
		grpcListener.Close()
		return nil, fmt.Errorf("failed to listen on %s: %w", config.HTTPAddress(), err)
	}

	a, err := NewWithListeners(config, logger, grpcListener, httpListener)
	if err != nil {
		grpcListener.Close()
		httpListener.Close()
		return nil, err
	}
	return a, nil
}

// -----------------------------------------------------------------------------

// NewWithListeners builds the application on existing listeners.
func NewWithListeners(config *config.Config, logger *logger.Logger, grpcListener, httpListener net.Listener) (*App, error) {
	metrics.Init()

	a := &App{
		Name:   config.Name,
		config: config,
		logger: logger,
	}

	// 1. Catalog, sampler and the fan-in engine
	var err error
	if len(config.Stocks) > 0 {
		a.Catalog, err = catalog.New(config.Stocks)
		if err != nil {
			return nil, fmt.Errorf("invalid stock catalog: %w", err)
		}
	} else {
		a.Catalog = catalog.NewSeeded()
	}

	priceSampler := sampler.New(config.Sampler)
	a.Engine = streaming.NewEngine(config.Stream, a.Catalog, priceSampler, logger.Named("FanInEngine"))

	// 2. Authentication
	a.Gate = auth.NewGate(auth.NewValidator(config.Auth), config.IsPublicMethod, logger.Named("TokenGate"))
	authenticator := auth.NewAuthenticator(config.Auth, logger.Named("Authenticator"))

	// 3. RPC handlers
	a.Stock = grpc_control.NewStockService(config.Stream, a.Catalog, priceSampler, a.Engine, logger.Named("StockService"))
	a.Auth = grpc_control.NewAuthService(authenticator, logger.Named("AuthService"))

	// 4. Health
	a.Registry = health.NewRegistry(logger.Named("HealthRegistry"))
	a.Aggregator = health.NewAggregator(config.Health.CheckTimeout)
	a.Aggregator.Register("catalog", func(ctx context.Context) error {
		if a.Catalog.Len() == 0 {
			return fmt.Errorf("stock catalog is empty")
		}
		return nil
	})
	a.Updater = health.NewUpdater(a.Registry, a.Aggregator, config.Health.ServiceName, config.Health.PollPeriod, logger.Named("HealthUpdater"))

	// 5. Optional sample tap
	if config.NATS.Enabled {
		serializer, err := serializers.New(config.NATS.Encoding)
		if err != nil {
			return nil, fmt.Errorf("invalid NATS encoding: %w", err)
		}
		a.Publisher = publishers.NewNATSPublisher(&config.NATS, logger.Named("NATSPublisher"), serializer)
		if err := a.Publisher.Connect(); err != nil {
			logger.Warning("%s : NATS publisher unavailable: %v", a.Name, err)
		}
		a.Stock.SetPublisher(a.Publisher)
		a.Aggregator.Register("nats", a.Publisher.Probe)
	}

	// 6. Servers
	a.GRPC = grpc_control.NewGRPCServiceWithListener(config, logger.Named("GRPCService"), &grpc_control.Services{
		Stock:  a.Stock,
		Auth:   a.Auth,
		Health: a.Registry,
		Gate:   a.Gate,
	}, grpcListener)

	routes := rest.Routes{
		Health:   a.Aggregator.HTTPHandler(),
		Metrics:  metrics.Handler(),
		Gateway:  rest.NewGateway(a.Engine, a.Gate, serializers.NewJSONSerializer(), logger.Named("WebSocketGateway")),
		Sessions: rest.NewSessionsHandler(a.Engine, logger.Named("SessionsHandler")),
	}
	if config.Rest.Enabled {
		a.API, err = rest.NewAPIHandler(config, logger.Named("RESTBridge"))
		if err != nil {
			return nil, fmt.Errorf("failed to create REST bridge: %w", err)
		}
		routes.API = a.API
	}
	a.HTTP = rest.NewHTTPServerWithListener(config, logger.Named("HTTPServer"), rest.NewRouter(routes), httpListener)

	return a, nil
}

// -----------------------------------------------------------------------------

// Run serves gRPC and HTTP and polls health until ctx is cancelled or one of
// them fails.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("%s : running. HTTP: %s, gRPC: %s", a.Name, a.HTTP.Addr(), a.GRPC.Addr())

	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error { return a.GRPC.Start(ctx) })
	eg.Go(func() error { return a.HTTP.Start(ctx) })
	eg.Go(func() error { return a.Updater.Run(ctx) })

	err := eg.Wait()
	a.close()
	return err
}

// -----------------------------------------------------------------------------

func (a *App) close() {
	if a.API != nil {
		if err := a.API.Close(); err != nil {
			a.logger.Warning("%s : failed to close REST bridge: %v", a.Name, err)
		}
	}
	if a.Publisher != nil {
		if err := a.Publisher.Disconnect(); err != nil {
			a.logger.Warning("%s : failed to disconnect NATS publisher: %v", a.Name, err)
		}
	}
	a.logger.Info("%s : stopped", a.Name)
}
