package publishers

import (
	"testing"
	"time"

	"stock-data-service/src/logger"
	"stock-data-service/src/models"
	"stock-data-service/src/serializers"

	natsserver "github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/timestamppb"
)

func runServer(t *testing.T, jetStream bool) string {
	t.Helper()

	opts := natsserver.DefaultTestOptions
	opts.Port = -1
	if jetStream {
		opts.JetStream = true
		opts.StoreDir = t.TempDir()
	}
	srv := natsserver.RunServer(&opts)
	t.Cleanup(srv.Shutdown)
	return srv.ClientURL()
}

func connectPublisher(t *testing.T, url, encoding string, js *models.MJetStreamConfig) *NATSPublisher {
	t.Helper()

	serializer, err := serializers.New(encoding)
	require.NoError(t, err)

	p := NewNATSPublisher(&models.MNATSConfig{
		ClientID:       "StockDataService",
		Servers:        []string{url},
		SubjectPrefix:  "stockdata",
		ConnectTimeout: time.Second,
		ReconnectWait:  10 * time.Millisecond,
		MaxReconnects:  1,
		FlushTimeout:   time.Second,
		JetStream:      js,
	}, logger.NewNopLogger(), serializer)

	require.NoError(t, p.Connect())
	require.Eventually(t, p.IsConnected, 2*time.Second, 5*time.Millisecond)
	t.Cleanup(func() { _ = p.Disconnect() })
	return p
}

func testSample() *models.StockPrice {
	return &models.StockPrice{
		Stock:         &models.Stock{StockId: "FB", StockName: "Facebook"},
		Price:         321,
		DateTimeStamp: timestamppb.New(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)),
	}
}

func TestNATSPublisher_DeliversSamples(t *testing.T) {
	for _, encoding := range []string{"json", "gob"} {
		t.Run(encoding, func(t *testing.T) {
			url := runServer(t, false)
			p := connectPublisher(t, url, encoding, nil)

			nc, err := nats.Connect(url)
			require.NoError(t, err)
			defer nc.Close()
			sub, err := nc.SubscribeSync("stockdata.prices.FB")
			require.NoError(t, err)
			require.NoError(t, nc.Flush())

			require.NoError(t, p.Probe(t.Context()))
			p.OnPriceSample(testSample())
			// No stock, nothing published.
			p.OnPriceSample(&models.StockPrice{Price: 1})

			msg, err := sub.NextMsg(2 * time.Second)
			require.NoError(t, err)

			serializer, _ := serializers.New(encoding)
			var got models.StockPrice
			require.NoError(t, serializer.Unmarshal(msg.Data, &got))
			assert.Equal(t, "FB", got.GetStockId())
			assert.Equal(t, int32(321), got.Price)

			_, err = sub.NextMsg(50 * time.Millisecond)
			assert.ErrorIs(t, err, nats.ErrTimeout)

			require.NoError(t, p.Disconnect())
			assert.False(t, p.IsConnected())
			assert.Error(t, p.Probe(t.Context()))
		})
	}
}

func TestNATSPublisher_JetStreamPersistsSamples(t *testing.T) {
	url := runServer(t, true)
	p := connectPublisher(t, url, "json", &models.MJetStreamConfig{
		Enabled:    true,
		StreamName: "STOCK_PRICES",
		Replicas:   1,
		MaxAge:     time.Hour,
		MaxMsgs:    -1,
		MaxBytes:   -1,
		MaxMsgSize: -1,
	})

	info, err := p.js.StreamInfo("STOCK_PRICES")
	require.NoError(t, err)
	assert.Equal(t, []string{"stockdata.prices.>"}, info.Config.Subjects)

	p.OnPriceSample(testSample())
	p.OnPriceSample(testSample())

	select {
	case <-p.js.PublishAsyncComplete():
	case <-time.After(2 * time.Second):
		t.Fatal("jetstream publishes were not acknowledged")
	}

	info, err = p.js.StreamInfo("STOCK_PRICES")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), info.State.Msgs)

	// Reconnecting keeps the existing stream.
	require.NoError(t, p.Disconnect())
	require.NoError(t, p.Connect())
	info, err = p.js.StreamInfo("STOCK_PRICES")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), info.State.Msgs)
}
