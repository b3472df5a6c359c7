package health

import (
	"context"
	"sync"

	"stock-data-service/src/logger"
	"stock-data-service/src/metrics"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// Overall is the wildcard key describing the whole server.
const Overall = ""

// -----------------------------------------------------------------------------

// Registry is the process-wide serving status table. Every key is read and
// written atomically. It serves the grpc.health.v1.Health protocol.
type Registry struct {
	grpc_health_v1.UnimplementedHealthServer

	Name     string
	mu       sync.RWMutex
	statuses map[string]grpc_health_v1.HealthCheckResponse_ServingStatus
	watchers map[string]map[chan grpc_health_v1.HealthCheckResponse_ServingStatus]struct{}
	logger   *logger.Logger
}

// -----------------------------------------------------------------------------

// NewRegistry creates an empty registry.
func NewRegistry(logger *logger.Logger) *Registry {
	return &Registry{
		Name:     "HealthRegistry",
		statuses: make(map[string]grpc_health_v1.HealthCheckResponse_ServingStatus),
		watchers: make(map[string]map[chan grpc_health_v1.HealthCheckResponse_ServingStatus]struct{}),
		logger:   logger,
	}
}

// -----------------------------------------------------------------------------

// Get returns the status of name, ok is false when it was never set.
func (r *Registry) Get(name string) (grpc_health_v1.HealthCheckResponse_ServingStatus, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.statuses[name]
	return s, ok
}

// -----------------------------------------------------------------------------

// Set records the status of name and notifies its watchers.
func (r *Registry) Set(name string, s grpc_health_v1.HealthCheckResponse_ServingStatus) {
	r.SetAll(s, name)
}

// -----------------------------------------------------------------------------

// SetAll records s for every name in one step, readers never observe a
// partial update.
func (r *Registry) SetAll(s grpc_health_v1.HealthCheckResponse_ServingStatus, names ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, name := range names {
		r.setLocked(name, s)
	}
}

// -----------------------------------------------------------------------------

func (r *Registry) setLocked(name string, s grpc_health_v1.HealthCheckResponse_ServingStatus) {
	previous, known := r.statuses[name]
	r.statuses[name] = s
	metrics.SetHealthStatus(name, s == grpc_health_v1.HealthCheckResponse_SERVING)

	if known && previous == s {
		return
	}
	r.logger.Info("%s : '%s' is now %s", r.Name, name, s)

	for ch := range r.watchers[name] {
		// Watchers only care about the latest value.
		select {
		case <-ch:
		default:
		}
		ch <- s
	}
}

// -----------------------------------------------------------------------------

// subscribe returns a channel receiving every status change of name.
func (r *Registry) subscribe(name string) (chan grpc_health_v1.HealthCheckResponse_ServingStatus, func()) {
	ch := make(chan grpc_health_v1.HealthCheckResponse_ServingStatus, 1)

	r.mu.Lock()
	if r.watchers[name] == nil {
		r.watchers[name] = make(map[chan grpc_health_v1.HealthCheckResponse_ServingStatus]struct{})
	}
	r.watchers[name][ch] = struct{}{}
	current, ok := r.statuses[name]
	if !ok {
		current = grpc_health_v1.HealthCheckResponse_SERVICE_UNKNOWN
	}
	ch <- current
	r.mu.Unlock()

	return ch, func() {
		r.mu.Lock()
		delete(r.watchers[name], ch)
		if len(r.watchers[name]) == 0 {
			delete(r.watchers, name)
		}
		r.mu.Unlock()
	}
}

// -----------------------------------------------------------------------------

// Check implements grpc_health_v1.HealthServer.
func (r *Registry) Check(ctx context.Context, req *grpc_health_v1.HealthCheckRequest) (*grpc_health_v1.HealthCheckResponse, error) {
	s, ok := r.Get(req.GetService())
	if !ok {
		return nil, status.Errorf(codes.NotFound, "unknown service %q", req.GetService())
	}
	return &grpc_health_v1.HealthCheckResponse{Status: s}, nil
}

// -----------------------------------------------------------------------------

// Watch implements grpc_health_v1.HealthServer. The current status is sent
// first, then every change until the client goes away.
func (r *Registry) Watch(req *grpc_health_v1.HealthCheckRequest, stream grpc_health_v1.Health_WatchServer) error {
	updates, unsubscribe := r.subscribe(req.GetService())
	defer unsubscribe()

	for {
		select {
		case s := <-updates:
			if err := stream.Send(&grpc_health_v1.HealthCheckResponse{Status: s}); err != nil {
				return status.Error(codes.Canceled, "stream has ended")
			}
		case <-stream.Context().Done():
			return status.Error(codes.Canceled, "stream has ended")
		}
	}
}
