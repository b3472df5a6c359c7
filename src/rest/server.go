package rest

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"stock-data-service/src/config"
	"stock-data-service/src/logger"

	"golang.org/x/sync/errgroup"
)

// RootMessage is returned on "/" to plain HTTP callers.
const RootMessage = "Communication with gRPC endpoints must be made through a gRPC client."

// -----------------------------------------------------------------------------

// Routes are the handlers mounted on the status server. Nil entries are not mounted.
type Routes struct {
	Health   http.Handler
	Metrics  http.Handler
	Gateway  http.Handler
	Sessions http.Handler
	API      *APIHandler
}

// -----------------------------------------------------------------------------

// NewRouter builds the HTTP routing table.
func NewRouter(routes Routes) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(RootMessage))
	})
	if routes.Health != nil {
		mux.Handle("GET /health", routes.Health)
	}
	if routes.Metrics != nil {
		mux.Handle("GET /metrics", routes.Metrics)
	}
	if routes.Gateway != nil {
		mux.Handle("GET /ws/prices", routes.Gateway)
	}
	if routes.Sessions != nil {
		mux.Handle("GET /sessions", routes.Sessions)
	}
	if routes.API != nil {
		mux.HandleFunc("GET /rest/stocks", routes.API.ListStocks)
		mux.HandleFunc("GET /rest/stocks/price", routes.API.GetPrice)
		mux.HandleFunc("GET /rest/health", routes.API.HealthCheck)
	}

	return mux
}

// -----------------------------------------------------------------------------

// HTTPServer is the plain HTTP status server.
type HTTPServer struct {
	Name     string
	server   *http.Server
	listener net.Listener
	config   *config.Config
	logger   *logger.Logger
}

// -----------------------------------------------------------------------------

// NewHTTPServer listens on the configured application port.
func NewHTTPServer(config *config.Config, logger *logger.Logger, handler http.Handler) (*HTTPServer, error) {
	address := config.HTTPAddress()

	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	return NewHTTPServerWithListener(config, logger, handler, listener), nil
}

// -----------------------------------------------------------------------------

// NewHTTPServerWithListener serves on an existing listener.
func NewHTTPServerWithListener(config *config.Config, logger *logger.Logger, handler http.Handler, listener net.Listener) *HTTPServer {
	return &HTTPServer{
		Name:     "HTTPServer",
		server:   &http.Server{Handler: handler},
		listener: listener,
		config:   config,
		logger:   logger,
	}
}

// -----------------------------------------------------------------------------

// Start serves until ctx is cancelled. Requests inherit ctx so long-lived
// websocket sessions end with the server.
func (s *HTTPServer) Start(ctx context.Context) error {
	s.logger.Info("%s : listening on %s", s.Name, s.listener.Addr().String())
	base := ctx
	s.server.BaseContext = func(net.Listener) context.Context { return base }

	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		if err := s.server.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("%s : server failed: %v", s.Name, err)
			return err
		}
		return nil
	})

	eg.Go(func() error {
		<-ctx.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()

		if err := s.server.Shutdown(stopCtx); err != nil {
			s.logger.Warning("%s : graceful shutdown timeout, forcing close: %v", s.Name, err)
			return s.server.Close()
		}
		s.logger.Info("%s : stopped", s.Name)
		return nil
	})

	return eg.Wait()
}

// -----------------------------------------------------------------------------

// Addr returns the listening address.
func (s *HTTPServer) Addr() net.Addr {
	return s.listener.Addr()
}
