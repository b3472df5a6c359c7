package streaming

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"stock-data-service/src/catalog"
	"stock-data-service/src/logger"
	"stock-data-service/src/models"
	"stock-data-service/src/sampler"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type fakeRequests struct {
	ch  chan string
	err error
}

func newFakeRequests() *fakeRequests {
	return &fakeRequests{ch: make(chan string, 16)}
}

func (f *fakeRequests) Recv() (string, error) {
	id, ok := <-f.ch
	if !ok {
		if f.err != nil {
			return "", f.err
		}
		return "", io.EOF
	}
	return id, nil
}

type fakeResponses struct {
	mu      sync.Mutex
	samples []*models.StockPrice
	failing bool
	sent    chan struct{}
}

func newFakeResponses() *fakeResponses {
	return &fakeResponses{sent: make(chan struct{}, 1024)}
}

func (f *fakeResponses) Send(sample *models.StockPrice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errors.New("connection reset")
	}
	f.samples = append(f.samples, sample)
	f.sent <- struct{}{}
	return nil
}

func (f *fakeResponses) Samples() []*models.StockPrice {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*models.StockPrice(nil), f.samples...)
}

func countByStock(samples []*models.StockPrice) map[string]int {
	counts := make(map[string]int)
	for _, s := range samples {
		counts[s.GetStockId()]++
	}
	return counts
}

type recordingPublisher struct {
	mu      sync.Mutex
	samples []*models.StockPrice
}

func (p *recordingPublisher) OnPriceSample(sample *models.StockPrice) {
	p.mu.Lock()
	p.samples = append(p.samples, sample)
	p.mu.Unlock()
}
func (p *recordingPublisher) Connect() error    { return nil }
func (p *recordingPublisher) Disconnect() error { return nil }
func (p *recordingPublisher) IsConnected() bool { return true }

func newTestEngine(config models.MStreamConfig) *Engine {
	if config.SampleCount == 0 {
		config.SampleCount = 10
	}
	if config.QueueCapacity == 0 {
		config.QueueCapacity = 64
	}
	s := sampler.New(models.MSamplerConfig{MinPrice: 100, MaxPrice: 500, Seed: 42})
	return NewEngine(config, catalog.NewSeeded(), s, logger.NewNopLogger())
}

func serveAsync(e *Engine, ctx context.Context, in RequestStream, out ResponseStream) (<-chan *models.MSessionStatus, <-chan error) {
	statusCh := make(chan *models.MSessionStatus, 1)
	errCh := make(chan error, 1)
	go func() {
		status, err := e.Serve(ctx, "clientId1", in, out)
		statusCh <- status
		errCh <- err
	}()
	return statusCh, errCh
}

// --- tests ---

func TestServe_TwoRequestsProduceExactCounts(t *testing.T) {
	e := newTestEngine(models.MStreamConfig{SampleInterval: 10 * time.Millisecond})
	in, out := newFakeRequests(), newFakeResponses()

	statusCh, errCh := serveAsync(e, context.Background(), in, out)
	in.ch <- "AAPL"
	time.Sleep(15 * time.Millisecond)
	in.ch <- "MSFT"
	close(in.ch)

	require.NoError(t, <-errCh)
	status := <-statusCh

	samples := out.Samples()
	assert.Len(t, samples, 20)
	assert.Equal(t, map[string]int{"AAPL": 10, "MSFT": 10}, countByStock(samples))
	for _, s := range samples {
		assert.GreaterOrEqual(t, s.Price, int32(100))
		assert.Less(t, s.Price, int32(500))
		assert.NotNil(t, s.DateTimeStamp)
	}

	assert.Equal(t, "CLOSED", status.State)
	assert.Equal(t, 2, status.Requests)
	assert.Equal(t, 2, status.Workers)
	assert.Equal(t, 20, status.SamplesSent)
	assert.Equal(t, "clientId1", status.ClientID)
	assert.NotEmpty(t, status.SessionID)
	assert.False(t, status.Cancelled)
}

func TestServe_EmptyRequestStream(t *testing.T) {
	e := newTestEngine(models.MStreamConfig{})
	in, out := newFakeRequests(), newFakeResponses()
	close(in.ch)

	status, err := e.Serve(context.Background(), "clientId1", in, out)
	require.NoError(t, err)
	assert.Empty(t, out.Samples())
	assert.Equal(t, "CLOSED", status.State)
}

func TestServe_WaitsForWorkersAfterInboundCompletion(t *testing.T) {
	e := newTestEngine(models.MStreamConfig{SampleCount: 5, SampleInterval: 20 * time.Millisecond})
	in, out := newFakeRequests(), newFakeResponses()
	in.ch <- "GOOG"
	close(in.ch)

	start := time.Now()
	_, err := e.Serve(context.Background(), "clientId1", in, out)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
	assert.Len(t, out.Samples(), 5)
}

func TestServe_UnknownStockIsSkipped(t *testing.T) {
	e := newTestEngine(models.MStreamConfig{SampleCount: 3})
	in, out := newFakeRequests(), newFakeResponses()
	in.ch <- "XXX"
	in.ch <- "FB"
	close(in.ch)

	status, err := e.Serve(context.Background(), "clientId1", in, out)
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"FB": 3}, countByStock(out.Samples()))
	assert.Equal(t, 1, status.SkippedStocks)
	assert.Equal(t, 2, status.Requests)
}

func TestServe_CancellationIsGraceful(t *testing.T) {
	interval := 50 * time.Millisecond
	e := newTestEngine(models.MStreamConfig{SampleInterval: interval})
	in, out := newFakeRequests(), newFakeResponses()

	ctx, cancel := context.WithCancel(context.Background())
	statusCh, errCh := serveAsync(e, ctx, in, out)
	in.ch <- "AAPL"
	in.ch <- "MSFT"

	<-out.sent
	<-out.sent
	cancel()
	cancelledAt := time.Now()

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("session did not stop after cancellation")
	}
	assert.Less(t, time.Since(cancelledAt), interval)

	status := <-statusCh
	assert.True(t, status.Cancelled)
	assert.Equal(t, "CLOSED", status.State)

	delivered := len(out.Samples())
	assert.Less(t, delivered, 20)
	time.Sleep(2 * interval)
	assert.Len(t, out.Samples(), delivered, "no output after the session closed")
}

func TestServe_ReadErrorIsLenient(t *testing.T) {
	e := newTestEngine(models.MStreamConfig{SampleCount: 4, SampleInterval: 10 * time.Millisecond})
	in, out := newFakeRequests(), newFakeResponses()
	in.err = errors.New("malformed frame")
	in.ch <- "TSLA"
	close(in.ch)

	_, err := e.Serve(context.Background(), "clientId1", in, out)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"TSLA": 4}, countByStock(out.Samples()))
}

func TestServe_ReadErrorCancelsWorkersWhenConfigured(t *testing.T) {
	e := newTestEngine(models.MStreamConfig{
		SampleCount:              10,
		SampleInterval:           50 * time.Millisecond,
		CancelWorkersOnReadError: true,
	})
	in, out := newFakeRequests(), newFakeResponses()
	in.err = errors.New("malformed frame")
	in.ch <- "TSLA"
	close(in.ch)

	start := time.Now()
	_, err := e.Serve(context.Background(), "clientId1", in, out)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 400*time.Millisecond)
	assert.Less(t, len(out.Samples()), 10)
}

func TestServe_WorkerCapSerializesWorkers(t *testing.T) {
	e := newTestEngine(models.MStreamConfig{
		SampleCount:    3,
		SampleInterval: 5 * time.Millisecond,
		MaxWorkers:     1,
	})
	in, out := newFakeRequests(), newFakeResponses()
	in.ch <- "FB"
	in.ch <- "AAPL"
	close(in.ch)

	status, err := e.Serve(context.Background(), "clientId1", in, out)
	require.NoError(t, err)

	samples := out.Samples()
	require.Len(t, samples, 6)
	for i, s := range samples {
		want := "FB"
		if i >= 3 {
			want = "AAPL"
		}
		assert.Equal(t, want, s.GetStockId())
	}
	assert.Equal(t, 2, status.Workers)
}

func TestServe_SmallQueueAppliesBackpressure(t *testing.T) {
	e := newTestEngine(models.MStreamConfig{SampleCount: 5, QueueCapacity: 1})
	in, out := newFakeRequests(), newFakeResponses()
	for _, id := range []string{"FB", "AAPL", "AMZN", "NFLX"} {
		in.ch <- id
	}
	close(in.ch)

	_, err := e.Serve(context.Background(), "clientId1", in, out)
	require.NoError(t, err)
	assert.Len(t, out.Samples(), 20)
}

func TestServe_SendFailure(t *testing.T) {
	e := newTestEngine(models.MStreamConfig{SampleInterval: 10 * time.Millisecond})
	in, out := newFakeRequests(), newFakeResponses()
	out.failing = true
	in.ch <- "FB"

	_, err := e.Serve(context.Background(), "clientId1", in, out)
	assert.ErrorIs(t, err, ErrResponseStream)
}

func TestServe_PublishesDeliveredSamples(t *testing.T) {
	e := newTestEngine(models.MStreamConfig{SampleCount: 2})
	publisher := &recordingPublisher{}
	e.SetPublisher(publisher)

	in, out := newFakeRequests(), newFakeResponses()
	in.ch <- "NFLX"
	close(in.ch)

	_, err := e.Serve(context.Background(), "clientId1", in, out)
	require.NoError(t, err)

	publisher.mu.Lock()
	defer publisher.mu.Unlock()
	assert.Len(t, publisher.samples, 2)
}

func TestServe_TracksOpenSessions(t *testing.T) {
	e := newTestEngine(models.MStreamConfig{})
	in, out := newFakeRequests(), newFakeResponses()

	_, errCh := serveAsync(e, context.Background(), in, out)
	require.Eventually(t, func() bool { return len(e.Sessions()) == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, "OPEN", e.Sessions()[0].State)

	close(in.ch)
	require.NoError(t, <-errCh)
	assert.Empty(t, e.Sessions())
}

func TestServe_UsesInjectedClock(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	e := newTestEngine(models.MStreamConfig{SampleCount: 1})
	e.SetClock(func() time.Time { return at })

	in, out := newFakeRequests(), newFakeResponses()
	in.ch <- "FB"
	close(in.ch)

	status, err := e.Serve(context.Background(), "clientId1", in, out)
	require.NoError(t, err)
	require.Len(t, out.Samples(), 1)
	assert.True(t, at.Equal(out.Samples()[0].Time()))
	assert.True(t, at.Equal(status.StartedAt))
}

func TestSessionState_OnlyMovesForward(t *testing.T) {
	s := newSession("id", "client", time.Now())
	assert.True(t, s.admit())
	assert.True(t, s.advance(StateDraining))
	assert.False(t, s.admit())
	assert.False(t, s.advance(StateOpen))
	assert.False(t, s.advance(StateDraining))
	assert.True(t, s.advance(StateClosed))
	assert.Equal(t, "CLOSED", s.State().String())
	s.wg.Done()
}
