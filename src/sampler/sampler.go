package sampler

import (
	"math/rand"
	"sync"
	"time"

	"stock-data-service/src/models"

	"google.golang.org/protobuf/types/known/timestamppb"
)

// -----------------------------------------------------------------------------

// Rand is the random source of the sampler, injectable for deterministic tests.
type Rand interface {
	Int31n(n int32) int32
}

// -----------------------------------------------------------------------------

// Sampler produces synthetic price samples in [min, max).
// One generator is shared by every caller and guarded by a mutex.
type Sampler struct {
	min int32
	max int32

	mu  sync.Mutex
	rnd Rand
}

// -----------------------------------------------------------------------------

// New creates a sampler from config. A zero seed seeds from the clock.
func New(config models.MSamplerConfig) *Sampler {
	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return NewWithRand(config.MinPrice, config.MaxPrice, rand.New(rand.NewSource(seed)))
}

// -----------------------------------------------------------------------------

// NewWithRand creates a sampler over an explicit random source.
func NewWithRand(min, max int32, rnd Rand) *Sampler {
	if max <= min {
		max = min + 1
	}
	return &Sampler{min: min, max: max, rnd: rnd}
}

// -----------------------------------------------------------------------------

// Sample returns a fresh sample for stock at instant now. stock may be nil when
// the requested identifier could not be resolved.
func (s *Sampler) Sample(stock *models.Stock, now time.Time) *models.StockPrice {
	return &models.StockPrice{
		Stock:         stock,
		Price:         s.price(),
		DateTimeStamp: timestamppb.New(now.UTC()),
	}
}

// -----------------------------------------------------------------------------

func (s *Sampler) price() int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.min + s.rnd.Int31n(s.max-s.min)
}
