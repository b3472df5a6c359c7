package health

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"
)

// Probe reports a problem of one dependency, nil means healthy.
type Probe func(ctx context.Context) error

// -----------------------------------------------------------------------------

// Aggregator runs every registered probe and combines the results.
// With no probes the service is healthy.
type Aggregator struct {
	mu      sync.RWMutex
	probes  map[string]Probe
	timeout time.Duration
}

// -----------------------------------------------------------------------------

func NewAggregator(timeout time.Duration) *Aggregator {
	return &Aggregator{
		probes:  make(map[string]Probe),
		timeout: timeout,
	}
}

// -----------------------------------------------------------------------------

// Register adds or replaces the probe called name.
func (a *Aggregator) Register(name string, probe Probe) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.probes[name] = probe
}

// -----------------------------------------------------------------------------

// Check runs all probes concurrently under the aggregator timeout.
func (a *Aggregator) Check(ctx context.Context) error {
	a.mu.RLock()
	names := make([]string, 0, len(a.probes))
	for name := range a.probes {
		names = append(names, name)
	}
	probes := make([]Probe, len(names))
	sort.Strings(names)
	for i, name := range names {
		probes[i] = a.probes[name]
	}
	a.mu.RUnlock()

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	errs := make([]error, len(probes))
	var wg sync.WaitGroup
	for i := range probes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := probes[i](ctx); err != nil {
				errs[i] = fmt.Errorf("%s: %w", names[i], err)
			}
		}(i)
	}
	wg.Wait()

	return errors.Join(errs...)
}

// -----------------------------------------------------------------------------

// HTTPHandler serves the live aggregate check as a plain status path.
func (a *Aggregator) HTTPHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if err := a.Check(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("Unhealthy"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("Healthy"))
	}
}
