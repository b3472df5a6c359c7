package health

import (
	"context"
	"time"

	"stock-data-service/src/logger"

	"google.golang.org/grpc/health/grpc_health_v1"
)

// Checker is the aggregate check polled by the Updater.
type Checker interface {
	Check(ctx context.Context) error
}

// -----------------------------------------------------------------------------

// Updater periodically runs the aggregate check and writes the result into the
// registry under the service name and the wildcard key.
type Updater struct {
	Name     string
	registry *Registry
	checker  Checker
	service  string
	period   time.Duration
	logger   *logger.Logger
}

// -----------------------------------------------------------------------------

func NewUpdater(registry *Registry, checker Checker, service string, period time.Duration, logger *logger.Logger) *Updater {
	return &Updater{
		Name:     "HealthUpdater",
		registry: registry,
		checker:  checker,
		service:  service,
		period:   period,
		logger:   logger,
	}
}

// -----------------------------------------------------------------------------

// Run updates immediately, then once per period until ctx is cancelled.
func (u *Updater) Run(ctx context.Context) error {
	ticker := time.NewTicker(u.period)
	defer ticker.Stop()

	u.logger.Info("%s : started, polling every %s", u.Name, u.period)
	u.Update(ctx)

	for {
		select {
		case <-ticker.C:
			u.Update(ctx)
		case <-ctx.Done():
			u.logger.Info("%s : stopping", u.Name)
			return nil
		}
	}
}

// -----------------------------------------------------------------------------

// Update runs one check. A failing check marks the service NOT_SERVING.
func (u *Updater) Update(ctx context.Context) {
	s := grpc_health_v1.HealthCheckResponse_SERVING
	if err := u.checker.Check(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		u.logger.Warning("%s : health check failed: %v", u.Name, err)
		s = grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}

	u.registry.SetAll(s, u.service, Overall)
}
