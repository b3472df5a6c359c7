package streaming

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"stock-data-service/src/catalog"
	"stock-data-service/src/interfaces"
	"stock-data-service/src/logger"
	"stock-data-service/src/metrics"
	"stock-data-service/src/models"
	"stock-data-service/src/sampler"
	"stock-data-service/src/utils"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// RPCName labels the metrics of the bidirectional stream.
const RPCName = "GetCompanyStockPriceStream"

// ErrResponseStream is returned when samples can no longer be written to the caller.
var ErrResponseStream = errors.New("response stream broken")

// -----------------------------------------------------------------------------

// RequestStream is the inbound side of a session. Recv returns io.EOF once the
// caller completed its stream.
type RequestStream interface {
	Recv() (string, error)
}

// ResponseStream is the outbound side of a session.
type ResponseStream interface {
	Send(sample *models.StockPrice) error
}

// -----------------------------------------------------------------------------

// Engine merges the output of one worker per inbound request into a single
// response stream. Each Serve call is an independent session.
type Engine struct {
	Name      string
	config    models.MStreamConfig
	catalog   *catalog.Catalog
	sampler   *sampler.Sampler
	publisher interfaces.IPublisher
	now       func() time.Time
	logger    *logger.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// -----------------------------------------------------------------------------

// NewEngine creates the fan-in engine.
func NewEngine(config models.MStreamConfig, catalog *catalog.Catalog, sampler *sampler.Sampler, logger *logger.Logger) *Engine {
	if config.QueueCapacity < 1 {
		config.QueueCapacity = 1
	}
	if config.SampleCount < 1 {
		config.SampleCount = 1
	}

	return &Engine{
		Name:     "FanInEngine",
		config:   config,
		catalog:  catalog,
		sampler:  sampler,
		now:      time.Now,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// -----------------------------------------------------------------------------

// SetPublisher attaches the sample tap, nil disables it.
func (e *Engine) SetPublisher(publisher interfaces.IPublisher) {
	e.publisher = publisher
}

// SetClock replaces the time source used for sample timestamps.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// -----------------------------------------------------------------------------

// Sessions returns a snapshot of the sessions currently open, oldest first.
func (e *Engine) Sessions() []*models.MSessionStatus {
	e.mu.Lock()
	statuses := make([]*models.MSessionStatus, 0, len(e.sessions))
	for _, s := range e.sessions {
		statuses = append(statuses, s.Status())
	}
	e.mu.Unlock()

	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].StartedAt.Before(statuses[j].StartedAt)
	})
	return statuses
}

// -----------------------------------------------------------------------------

// Serve runs one session until the inbound stream is complete and every sample
// has been written, or until ctx is cancelled. Cancellation is not an error.
//
// The response stream is released only after all workers have finished and
// everything they enqueued has been written.
func (e *Engine) Serve(parent context.Context, clientID string, in RequestStream, out ResponseStream) (*models.MSessionStatus, error) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	session := newSession(uuid.NewString(), clientID, e.now())
	e.track(session)
	defer e.untrack(session.ID)
	defer metrics.SessionOpened()()

	e.logger.Debug("%s : session %s opened for client '%s'", e.Name, session.ID, clientID)

	queue := make(chan *models.StockPrice, e.config.QueueCapacity)

	consumerDone := make(chan error, 1)
	go func() {
		consumerDone <- e.consume(ctx, cancel, session, queue, out)
	}()

	var sem *semaphore.Weighted
	if e.config.MaxWorkers > 0 {
		sem = semaphore.NewWeighted(int64(e.config.MaxWorkers))
	}

	readerDone := make(chan error, 1)
	go func() {
		readerDone <- e.read(workerCtx, session, sem, in, queue)
	}()

	// OPEN -> DRAINING
	select {
	case err := <-readerDone:
		if err != nil && ctx.Err() == nil {
			e.logger.Error("%s : session %s failed to read request stream: %v", e.Name, session.ID, err)
			if e.config.CancelWorkersOnReadError {
				cancelWorkers()
			}
		}
	case <-ctx.Done():
	}
	session.advance(StateDraining)

	// DRAINING -> FLUSHING
	session.wg.Wait()
	close(queue)
	session.advance(StateFlushing)

	// FLUSHING -> CLOSED
	consumerErr := <-consumerDone
	session.advance(StateClosed)

	if parent.Err() != nil {
		session.markCancelled()
	}
	status := session.Status()
	e.logger.Info("%s : session %s closed: requests=%d skipped=%d samples=%d cancelled=%t",
		e.Name, status.SessionID, status.Requests, status.SkippedStocks, status.SamplesSent, status.Cancelled)

	if status.Cancelled {
		return status, nil
	}
	if consumerErr != nil {
		return status, fmt.Errorf("%w: %v", ErrResponseStream, consumerErr)
	}
	return status, nil
}

// -----------------------------------------------------------------------------

// read consumes the request stream in arrival order and spawns one worker per
// request. It returns nil on completion and the read error otherwise.
func (e *Engine) read(ctx context.Context, session *Session, sem *semaphore.Weighted, in RequestStream, queue chan<- *models.StockPrice) error {
	for {
		stockID, err := in.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		release := func() {}
		if sem != nil {
			if err := sem.Acquire(ctx, 1); err != nil {
				return nil
			}
			release = func() { sem.Release(1) }
		}

		if !session.admit() {
			release()
			return nil
		}
		go e.work(ctx, session, stockID, queue, release)
	}
}

// -----------------------------------------------------------------------------

// work produces the samples of one request. Unknown identifiers produce nothing.
func (e *Engine) work(ctx context.Context, session *Session, stockID string, queue chan<- *models.StockPrice, release func()) {
	defer session.wg.Done()
	defer release()
	defer metrics.WorkerStarted()()

	stock, ok := e.catalog.Lookup(stockID)
	if !ok {
		session.skip()
		metrics.UnknownStock(RPCName)
		e.logger.Warning("%s : session %s skipped unknown stock '%s'", e.Name, session.ID, stockID)
		return
	}

	for i := 0; i < e.config.SampleCount; i++ {
		if i > 0 && !utils.SleepContext(ctx, e.config.SampleInterval) {
			return
		}

		select {
		case queue <- e.sampler.Sample(stock, e.now()):
		case <-ctx.Done():
			return
		}
	}
}

// -----------------------------------------------------------------------------

// consume is the single writer of the response stream.
func (e *Engine) consume(ctx context.Context, cancel context.CancelFunc, session *Session, queue <-chan *models.StockPrice, out ResponseStream) error {
	for {
		select {
		case sample, ok := <-queue:
			if !ok {
				return nil
			}
			if err := out.Send(sample); err != nil {
				cancel()
				return err
			}
			session.delivered()
			metrics.SampleSent(RPCName)
			e.publish(sample)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// -----------------------------------------------------------------------------

func (e *Engine) publish(sample *models.StockPrice) {
	if e.publisher != nil && e.publisher.IsConnected() {
		e.publisher.OnPriceSample(sample)
	}
}

func (e *Engine) track(session *Session) {
	e.mu.Lock()
	e.sessions[session.ID] = session
	e.mu.Unlock()
}

func (e *Engine) untrack(id string) {
	e.mu.Lock()
	delete(e.sessions, id)
	e.mu.Unlock()
}
