package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"stock-data-service/src/auth"
	"stock-data-service/src/grpc_control"
	"stock-data-service/src/logger"
	"stock-data-service/src/models"
	"stock-data-service/src/utils"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
)

// Operation is one remote call made with the context carrying the current token.
// It may run twice and must tolerate that.
type Operation func(ctx context.Context) error

// -----------------------------------------------------------------------------

// StockClient calls the stock service and re-authenticates once whenever a
// call is rejected as unauthenticated.
type StockClient struct {
	Name     string
	conn     *grpc.ClientConn
	auth     grpc_control.AuthServiceClient
	stock    grpc_control.StockServiceClient
	health   grpc_health_v1.HealthClient
	clientID string
	secret   string
	logger   *logger.Logger

	mu        sync.RWMutex
	token     string
	expiresAt time.Time
}

// -----------------------------------------------------------------------------

// Dial connects to target without transport security.
func Dial(target, clientID, secret string, logger *logger.Logger, opts ...grpc.DialOption) (*StockClient, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)

	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC client for %s: %w", target, err)
	}

	c := NewStockClient(conn, clientID, secret, logger)
	c.conn = conn
	return c, nil
}

// -----------------------------------------------------------------------------

// NewStockClient wraps an existing connection. The caller keeps ownership of cc.
func NewStockClient(cc grpc.ClientConnInterface, clientID, secret string, logger *logger.Logger) *StockClient {
	return &StockClient{
		Name:     "StockClient",
		auth:     grpc_control.NewAuthServiceClient(cc),
		stock:    grpc_control.NewStockServiceClient(cc),
		health:   grpc_health_v1.NewHealthClient(cc),
		clientID: clientID,
		secret:   secret,
		logger:   logger,
	}
}

// -----------------------------------------------------------------------------

// Close releases the connection opened by Dial.
func (c *StockClient) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// -----------------------------------------------------------------------------

// Login authenticates and stores the fresh token.
func (c *StockClient) Login(ctx context.Context) error {
	resp, err := c.auth.Authenticate(ctx, &models.AuthRequest{ClientId: c.clientID, ClientSecret: c.secret})
	if err != nil {
		c.logger.Warning("%s : authentication as '%s' failed: %v", c.Name, c.clientID, err)
		return err
	}

	c.mu.Lock()
	c.token = resp.AccessToken
	c.expiresAt = resp.ExpiresAt.AsTime()
	c.mu.Unlock()

	c.logger.Debug("%s : authenticated as '%s', token %s valid until %s",
		c.Name, c.clientID, utils.MaskToken(resp.AccessToken), c.expiresAt.Format(time.RFC3339))
	return nil
}

// -----------------------------------------------------------------------------

// Token returns the current token and its expiry, empty before the first login.
func (c *StockClient) Token() (string, time.Time) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token, c.expiresAt
}

// SetToken replaces the stored token.
func (c *StockClient) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// -----------------------------------------------------------------------------

// Invoke runs op with the current token. When op fails as unauthenticated the
// client logs in once and runs op a second time; that result is final.
func (c *StockClient) Invoke(ctx context.Context, op Operation) error {
	err := op(c.withToken(ctx))
	if status.Code(err) != codes.Unauthenticated {
		return err
	}

	c.logger.Info("%s : call rejected as unauthenticated, refreshing token", c.Name)
	if err := c.Login(ctx); err != nil {
		return err
	}
	return op(c.withToken(ctx))
}

// -----------------------------------------------------------------------------

func (c *StockClient) withToken(ctx context.Context) context.Context {
	token, _ := c.Token()
	if token == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, auth.AuthorizationHeader, "Bearer "+token)
}

// -----------------------------------------------------------------------------
// Call shapes
// -----------------------------------------------------------------------------

// Listings returns the catalog in service order.
func (c *StockClient) Listings(ctx context.Context) ([]*models.Stock, error) {
	var stocks []*models.Stock
	err := c.Invoke(ctx, func(ctx context.Context) error {
		resp, err := c.stock.GetStockListings(ctx, &emptypb.Empty{})
		if err != nil {
			return err
		}
		stocks = resp.Stocks
		return nil
	})
	return stocks, err
}

// -----------------------------------------------------------------------------

// Price returns one sample for stockID.
func (c *StockClient) Price(ctx context.Context, stockID string) (*models.StockPrice, error) {
	var price *models.StockPrice
	err := c.Invoke(ctx, func(ctx context.Context) error {
		resp, err := c.stock.GetStockPrice(ctx, &models.Stock{StockId: stockID})
		if err != nil {
			return err
		}
		price = resp
		return nil
	})
	return price, err
}

// -----------------------------------------------------------------------------

// PriceStream delivers every sample of the server stream to onSample.
func (c *StockClient) PriceStream(ctx context.Context, onSample func(*models.StockPrice)) error {
	return c.Invoke(ctx, func(ctx context.Context) error {
		stream, err := c.stock.GetStockPriceStream(ctx, &emptypb.Empty{})
		if err != nil {
			return err
		}
		return drain(stream.Recv, onSample)
	})
}

// -----------------------------------------------------------------------------

// BatchPrices sends every identifier, completes the stream and returns the single batch.
func (c *StockClient) BatchPrices(ctx context.Context, stockIDs []string) ([]*models.StockPrice, error) {
	var prices []*models.StockPrice
	err := c.Invoke(ctx, func(ctx context.Context) error {
		stream, err := c.stock.GetStocksPrices(ctx)
		if err != nil {
			return err
		}
		for _, id := range stockIDs {
			if err := stream.Send(&models.Stock{StockId: id}); err != nil {
				// The real cause is reported by CloseAndRecv.
				if errors.Is(err, io.EOF) {
					break
				}
				return err
			}
		}
		resp, err := stream.CloseAndRecv()
		if err != nil {
			return err
		}
		prices = resp.Prices
		return nil
	})
	return prices, err
}

// -----------------------------------------------------------------------------

// CompanyStream sends stockIDs spaced by gap on the bidirectional stream and
// delivers every sample to onSample until the server closes the stream.
func (c *StockClient) CompanyStream(ctx context.Context, stockIDs []string, gap time.Duration, onSample func(*models.StockPrice)) error {
	return c.Invoke(ctx, func(ctx context.Context) error {
		// The sender stops with the attempt.
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		stream, err := c.stock.GetCompanyStockPriceStream(ctx)
		if err != nil {
			return err
		}

		sendDone := make(chan error, 1)
		go func() {
			defer close(sendDone)
			for i, id := range stockIDs {
				if i > 0 && !utils.SleepContext(ctx, gap) {
					return
				}
				if err := stream.Send(&models.Stock{StockId: id}); err != nil {
					// Receiving side reports the status.
					return
				}
				c.logger.Debug("%s : requested stock '%s'", c.Name, id)
			}
			sendDone <- stream.CloseSend()
		}()

		if err := drain(stream.Recv, onSample); err != nil {
			cancel()
			<-sendDone
			return err
		}
		return <-sendDone
	})
}

// -----------------------------------------------------------------------------

// Health returns the serving status of service, "" asks for the whole server.
func (c *StockClient) Health(ctx context.Context, service string) (grpc_health_v1.HealthCheckResponse_ServingStatus, error) {
	var s grpc_health_v1.HealthCheckResponse_ServingStatus
	err := c.Invoke(ctx, func(ctx context.Context) error {
		resp, err := c.health.Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: service})
		if err != nil {
			return err
		}
		s = resp.Status
		return nil
	})
	return s, err
}

// -----------------------------------------------------------------------------

func drain(recv func() (*models.StockPrice, error), onSample func(*models.StockPrice)) error {
	for {
		sample, err := recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if onSample != nil {
			onSample(sample)
		}
	}
}
