package publishers

import (
	"context"
	"testing"

	"stock-data-service/src/interfaces"
	"stock-data-service/src/logger"
	"stock-data-service/src/models"
	"stock-data-service/src/serializers"

	"github.com/stretchr/testify/assert"
)

func newTestPublisher(prefix string) *NATSPublisher {
	config := &models.MNATSConfig{
		ClientID:      "StockDataService",
		Servers:       []string{"nats://127.0.0.1:4222"},
		SubjectPrefix: prefix,
	}
	return NewNATSPublisher(config, logger.NewNopLogger(), serializers.NewJSONSerializer())
}

func TestNATSPublisher_ImplementsIPublisher(t *testing.T) {
	var _ interfaces.IPublisher = newTestPublisher("")
}

func TestNATSPublisher_Subjects(t *testing.T) {
	assert.Equal(t, "prices.FB", SampleSubject("FB"))
	assert.Equal(t, "stockdata.prices.FB", newTestPublisher("stockdata").getSubject(SampleSubject("FB")))
	assert.Equal(t, "prices.FB", newTestPublisher("").getSubject(SampleSubject("FB")))
}

func TestNATSPublisher_NotConnected(t *testing.T) {
	p := newTestPublisher("stockdata")

	assert.False(t, p.IsConnected())
	assert.Error(t, p.Probe(context.Background()))
	assert.Error(t, p.Publish("prices.FB", []byte("{}")))
	assert.Error(t, p.PublishJetStream("prices.FB", []byte("{}")))
	assert.NoError(t, p.Disconnect())

	// Dropped silently, the caller never waits on the tap.
	p.OnPriceSample(&models.StockPrice{Stock: &models.Stock{StockId: "FB"}, Price: 120})
	p.OnPriceSample(&models.StockPrice{Price: 120})
}

func TestNATSPublisher_ConnectWithoutServers(t *testing.T) {
	p := NewNATSPublisher(&models.MNATSConfig{ClientID: "x"}, logger.NewNopLogger(), serializers.NewJSONSerializer())
	assert.Error(t, p.Connect())
}
