package rest

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"testing"
	"time"

	"stock-data-service/src/auth"
	"stock-data-service/src/catalog"
	"stock-data-service/src/client"
	"stock-data-service/src/config"
	"stock-data-service/src/grpc_control"
	"stock-data-service/src/health"
	"stock-data-service/src/logger"
	"stock-data-service/src/models"
	"stock-data-service/src/sampler"
	"stock-data-service/src/streaming"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

// newBridge serves the gRPC API in memory and returns a REST router in front of it.
func newBridge(t *testing.T, secret string) (http.Handler, *health.Registry) {
	t.Helper()

	cfg := config.Default()
	log := logger.NewNopLogger()
	lis := bufconn.Listen(1 << 20)

	stocks := catalog.NewSeeded()
	prices := sampler.New(cfg.Sampler)
	registry := health.NewRegistry(log)

	service := grpc_control.NewGRPCServiceWithListener(cfg, log, &grpc_control.Services{
		Stock:  grpc_control.NewStockService(cfg.Stream, stocks, prices, streaming.NewEngine(cfg.Stream, stocks, prices, log), log),
		Auth:   grpc_control.NewAuthService(auth.NewAuthenticator(cfg.Auth, log), log),
		Health: registry,
		Gate:   auth.NewGate(auth.NewValidator(cfg.Auth), cfg.IsPublicMethod, log),
	}, lis)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- service.Start(ctx) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		conn.Close()
		cancel()
		<-done
	})

	api := NewAPIHandlerWithClient(client.NewStockClient(conn, "clientId1", secret, log), log)
	return NewRouter(Routes{API: api}), registry
}

func TestAPIHandler_ListStocks(t *testing.T) {
	router, _ := newBridge(t, "secret1")

	rec := get(t, router, http.MethodGet, "/rest/stocks")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		Stocks []models.Stock `json:"stocks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Stocks, 7)
	assert.Equal(t, "FB", body.Stocks[0].StockId)
	assert.Equal(t, "GOOG", body.Stocks[6].StockId)
}

func TestAPIHandler_GetPrice(t *testing.T) {
	router, _ := newBridge(t, "secret1")

	rec := get(t, router, http.MethodGet, "/rest/stocks/price?id=AMZN")
	require.Equal(t, http.StatusOK, rec.Code)

	var sample models.StockPrice
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sample))
	assert.Equal(t, "AMZN", sample.GetStockId())
	assert.WithinDuration(t, time.Now(), sample.Time(), 5*time.Second)

	assert.Equal(t, http.StatusNotFound, get(t, router, http.MethodGet, "/rest/stocks/price?id=XXX").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, router, http.MethodGet, "/rest/stocks/price").Code)
}

func TestAPIHandler_HealthCheck(t *testing.T) {
	router, registry := newBridge(t, "secret1")

	assert.Equal(t, http.StatusNotFound, get(t, router, http.MethodGet, "/rest/health").Code)

	registry.Set(health.Overall, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	rec := get(t, router, http.MethodGet, "/rest/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"NOT_SERVING"}`, rec.Body.String())
}

func TestAPIHandler_BadCredentials(t *testing.T) {
	router, _ := newBridge(t, "wrong")

	rec := get(t, router, http.MethodGet, "/rest/stocks")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
