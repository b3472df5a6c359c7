package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"stock-data-service/src/client"
	"stock-data-service/src/config"
	"stock-data-service/src/logger"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const callTimeout = 10 * time.Second

// -----------------------------------------------------------------------------

// APIHandler serves REST endpoints by calling the gRPC API as a regular client
// (pure gRPC client mode) with the service credentials from the config.
type APIHandler struct {
	Name   string
	client *client.StockClient
	logger *logger.Logger
}

// -----------------------------------------------------------------------------

// NewAPIHandler dials the local gRPC endpoint.
func NewAPIHandler(config *config.Config, logger *logger.Logger) (*APIHandler, error) {
	target := fmt.Sprintf("%s:%d", dialHost(config.GRPC_Host), config.GRPC_Port)

	stockClient, err := client.Dial(target, config.Rest.ClientID, config.Rest.ClientSecret, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC client: %w", err)
	}

	return NewAPIHandlerWithClient(stockClient, logger), nil
}

// -----------------------------------------------------------------------------

// NewAPIHandlerWithClient serves the REST endpoints through an existing client.
func NewAPIHandlerWithClient(stockClient *client.StockClient, logger *logger.Logger) *APIHandler {
	return &APIHandler{
		Name:   "RESTBridge",
		client: stockClient,
		logger: logger,
	}
}

// -----------------------------------------------------------------------------

// Close releases the gRPC connection
func (h *APIHandler) Close() error {
	return h.client.Close()
}

// -----------------------------------------------------------------------------

// ListStocks handles GET /rest/stocks
func (h *APIHandler) ListStocks(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), callTimeout)
	defer cancel()

	stocks, err := h.client.Listings(ctx)
	if err != nil {
		h.writeGRPCError(w, "GetStockListings", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"stocks": stocks})
}

// -----------------------------------------------------------------------------

// GetPrice handles GET /rest/stocks/price?id=FB
func (h *APIHandler) GetPrice(w http.ResponseWriter, r *http.Request) {
	stockID := strings.TrimSpace(r.URL.Query().Get("id"))
	if stockID == "" {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing query parameter 'id'"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), callTimeout)
	defer cancel()

	price, err := h.client.Price(ctx, stockID)
	if err != nil {
		h.writeGRPCError(w, "GetStockPrice", err)
		return
	}
	if price.Stock == nil {
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": fmt.Sprintf("unknown stock '%s'", stockID)})
		return
	}
	h.writeJSON(w, http.StatusOK, price)
}

// -----------------------------------------------------------------------------

// HealthCheck handles GET /rest/health with the gRPC health status of the server.
func (h *APIHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), callTimeout)
	defer cancel()

	serving, err := h.client.Health(ctx, r.URL.Query().Get("service"))
	if err != nil {
		h.writeGRPCError(w, "Health/Check", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": serving.String()})
}

// -----------------------------------------------------------------------------

func (h *APIHandler) writeGRPCError(w http.ResponseWriter, method string, err error) {
	h.logger.Error("%s : %s failed: %v", h.Name, method, err)

	code := http.StatusBadGateway
	switch status.Code(err) {
	case codes.Unauthenticated:
		code = http.StatusUnauthorized
	case codes.NotFound:
		code = http.StatusNotFound
	case codes.DeadlineExceeded:
		code = http.StatusGatewayTimeout
	case codes.Unavailable:
		code = http.StatusServiceUnavailable
	}
	if errors.Is(err, context.DeadlineExceeded) {
		code = http.StatusGatewayTimeout
	}

	h.writeJSON(w, code, map[string]string{"error": status.Convert(err).Message()})
}

func (h *APIHandler) writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("%s : failed to encode response: %v", h.Name, err)
	}
}

// -----------------------------------------------------------------------------

// dialHost maps a wildcard listen host to loopback.
func dialHost(host string) string {
	switch host {
	case "", "0.0.0.0", "::", "[::]":
		return "127.0.0.1"
	}
	return host
}
