package grpc_control

import (
	context "context"
	"errors"
	"io"
	"time"

	"stock-data-service/src/auth"
	"stock-data-service/src/catalog"
	"stock-data-service/src/interfaces"
	"stock-data-service/src/logger"
	"stock-data-service/src/metrics"
	"stock-data-service/src/models"
	"stock-data-service/src/sampler"
	"stock-data-service/src/streaming"
	"stock-data-service/src/utils"

	grpc "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// -----------------------------------------------------------------------------
// StockService Implementation
// -----------------------------------------------------------------------------

type StockServiceImpl struct {
	UnimplementedStockServiceServer
	Name      string
	config    models.MStreamConfig
	catalog   *catalog.Catalog
	sampler   *sampler.Sampler
	engine    *streaming.Engine
	publisher interfaces.IPublisher
	now       func() time.Time
	logger    *logger.Logger
}

// -----------------------------------------------------------------------------

// NewStockService creates the market data service. The fan-in engine shares
// catalog, sampler and stream settings with the other call shapes.
func NewStockService(config models.MStreamConfig, catalog *catalog.Catalog, sampler *sampler.Sampler, engine *streaming.Engine, logger *logger.Logger) *StockServiceImpl {
	return &StockServiceImpl{
		Name:    "StockService",
		config:  config,
		catalog: catalog,
		sampler: sampler,
		engine:  engine,
		now:     time.Now,
		logger:  logger,
	}
}

// -----------------------------------------------------------------------------

// SetPublisher attaches the sample tap to every call shape.
func (s *StockServiceImpl) SetPublisher(publisher interfaces.IPublisher) {
	s.publisher = publisher
	s.engine.SetPublisher(publisher)
}

// SetClock replaces the time source of sample timestamps.
func (s *StockServiceImpl) SetClock(now func() time.Time) {
	s.now = now
	s.engine.SetClock(now)
}

// -----------------------------------------------------------------------------
// Unary
// -----------------------------------------------------------------------------

// GetStockListings implements the gRPC GetStockListings method
func (s *StockServiceImpl) GetStockListings(ctx context.Context, _ *emptypb.Empty) (*models.StockListing, error) {
	s.logger.Debug("%s : received GetStockListings request", s.Name)

	return &models.StockListing{Stocks: s.catalog.List()}, nil
}

// -----------------------------------------------------------------------------

// GetStockPrice implements the gRPC GetStockPrice method. An unknown identifier
// yields a sample without stock.
func (s *StockServiceImpl) GetStockPrice(ctx context.Context, req *models.Stock) (*models.StockPrice, error) {
	s.logger.Debug("%s : received GetStockPrice request for '%s'", s.Name, req.StockId)

	sample := s.sample("GetStockPrice", req.StockId)
	s.delivered("GetStockPrice", sample)
	return sample, nil
}

// -----------------------------------------------------------------------------
// Server streaming
// -----------------------------------------------------------------------------

// GetStockPriceStream implements the gRPC GetStockPriceStream method: one
// sample per catalog entry per round, rounds spaced by the sample interval.
func (s *StockServiceImpl) GetStockPriceStream(_ *emptypb.Empty, stream grpc.ServerStreamingServer[models.StockPrice]) error {
	ctx := stream.Context()
	s.logger.Debug("%s : GetStockPriceStream opened", s.Name)

	stocks := s.catalog.List()
	for round := 0; round < s.config.SampleCount; round++ {
		if round > 0 && !utils.SleepContext(ctx, s.config.SampleInterval) {
			s.logger.Info("%s : GetStockPriceStream cancelled after %d rounds", s.Name, round)
			return nil
		}

		for _, stock := range stocks {
			sample := s.sampler.Sample(stock, s.now())
			if err := stream.Send(sample); err != nil {
				return s.sendError(ctx, "GetStockPriceStream", err)
			}
			s.delivered("GetStockPriceStream", sample)
		}
	}

	return nil
}

// -----------------------------------------------------------------------------
// Client streaming
// -----------------------------------------------------------------------------

// GetStocksPrices implements the gRPC GetStocksPrices method. Nothing is sent
// before the caller completes its stream, then all samples go in one response.
func (s *StockServiceImpl) GetStocksPrices(stream grpc.ClientStreamingServer[models.Stock, models.StockPriceList]) error {
	ctx := stream.Context()

	var ids []string
	for {
		req, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				s.logger.Info("%s : GetStocksPrices cancelled after %d requests", s.Name, len(ids))
				return nil
			}
			s.logger.Error("%s : GetStocksPrices failed to read request stream: %v", s.Name, err)
			return status.Error(codes.Internal, "failed to read request stream")
		}
		ids = append(ids, req.StockId)
	}

	prices := make([]*models.StockPrice, 0, len(ids))
	for _, id := range ids {
		prices = append(prices, s.sample("GetStocksPrices", id))
	}

	if err := stream.SendAndClose(&models.StockPriceList{Prices: prices}); err != nil {
		return s.sendError(ctx, "GetStocksPrices", err)
	}
	for _, sample := range prices {
		s.delivered("GetStocksPrices", sample)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Bidirectional streaming
// -----------------------------------------------------------------------------

// GetCompanyStockPriceStream implements the gRPC GetCompanyStockPriceStream
// method on top of the fan-in engine.
func (s *StockServiceImpl) GetCompanyStockPriceStream(stream grpc.BidiStreamingServer[models.Stock, models.StockPrice]) error {
	ctx := stream.Context()
	clientID, _ := auth.ClientIDFromContext(ctx)

	_, err := s.engine.Serve(ctx, clientID, &stockRequests{stream: stream}, stream)
	if err != nil {
		s.logger.Error("%s : GetCompanyStockPriceStream for '%s' failed: %v", s.Name, clientID, err)
		return status.Error(codes.Unavailable, "response stream unavailable")
	}
	return nil
}

// stockRequests exposes the inbound stock messages as identifiers.
type stockRequests struct {
	stream grpc.BidiStreamingServer[models.Stock, models.StockPrice]
}

func (r *stockRequests) Recv() (string, error) {
	req, err := r.stream.Recv()
	if err != nil {
		return "", err
	}
	return req.StockId, nil
}

// -----------------------------------------------------------------------------

func (s *StockServiceImpl) sample(rpc, stockID string) *models.StockPrice {
	stock, ok := s.catalog.Lookup(stockID)
	if !ok {
		metrics.UnknownStock(rpc)
		s.logger.Warning("%s : %s requested unknown stock '%s'", s.Name, rpc, stockID)
	}
	return s.sampler.Sample(stock, s.now())
}

func (s *StockServiceImpl) delivered(rpc string, sample *models.StockPrice) {
	metrics.SampleSent(rpc)
	if s.publisher != nil && s.publisher.IsConnected() {
		s.publisher.OnPriceSample(sample)
	}
}

// sendError maps a failed write. A caller that went away is not an error.
func (s *StockServiceImpl) sendError(ctx context.Context, rpc string, err error) error {
	if ctx.Err() != nil {
		s.logger.Info("%s : %s cancelled by caller", s.Name, rpc)
		return nil
	}
	s.logger.Error("%s : %s failed to send: %v", s.Name, rpc, err)
	return status.Error(codes.Unavailable, "response stream unavailable")
}

// -----------------------------------------------------------------------------
// AuthService Implementation
// -----------------------------------------------------------------------------

type AuthServiceImpl struct {
	UnimplementedAuthServiceServer
	Name          string
	authenticator *auth.Authenticator
	logger        *logger.Logger
}

// -----------------------------------------------------------------------------

func NewAuthService(authenticator *auth.Authenticator, logger *logger.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{
		Name:          "AuthService",
		authenticator: authenticator,
		logger:        logger,
	}
}

// -----------------------------------------------------------------------------

// Authenticate implements the gRPC Authenticate method
func (s *AuthServiceImpl) Authenticate(ctx context.Context, req *models.AuthRequest) (*models.AuthResponse, error) {
	token, expiresAt, err := s.authenticator.Authenticate(req.ClientId, req.ClientSecret)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		return nil, status.Error(codes.Unauthenticated, "unauthenticated")
	}
	if err != nil {
		s.logger.Error("%s : failed to issue token: %v", s.Name, err)
		return nil, status.Error(codes.Internal, "failed to issue token")
	}

	s.logger.Info("%s : client '%s' authenticated (token %s)", s.Name, req.ClientId, utils.MaskToken(token))
	return &models.AuthResponse{
		AccessToken: token,
		ExpiresAt:   timestamppb.New(expiresAt),
	}, nil
}
