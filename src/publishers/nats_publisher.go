package publishers

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"stock-data-service/src/interfaces"
	"stock-data-service/src/logger"
	"stock-data-service/src/models"

	"github.com/nats-io/nats.go"
)

// -----------------------------------------------------------------------------
// NATSPublisher implements interfaces.IPublisher on NATS core or JetStream
// -----------------------------------------------------------------------------

type NATSPublisher struct {
	name   string
	config *models.MNATSConfig
	logger *logger.Logger

	useJetStream bool

	mu sync.RWMutex

	nc         *nats.Conn             // NATS core connection
	js         nats.JetStreamContext  // JetStream context (if enabled)
	serializer interfaces.ISerializer // serialize message before sending

	connected atomic.Bool
}

// -----------------------------------------------------------------------------

// NewNATSPublisher creates a new NATS publisher instance
func NewNATSPublisher(config *models.MNATSConfig, logger *logger.Logger, serializer interfaces.ISerializer) *NATSPublisher {
	return &NATSPublisher{
		name:       config.ClientID,
		config:     config,
		logger:     logger,
		serializer: serializer,
	}
}

// -----------------------------------------------------------------------------

// OnPriceSample publishes a delivered sample to <prefix>.prices.<STOCKID>.
// Samples without a resolved stock are not published.
func (np *NATSPublisher) OnPriceSample(sample *models.StockPrice) {
	stockID := sample.GetStockId()
	if stockID == "" {
		return
	}
	subject := SampleSubject(stockID)

	dataSerialized, err := np.serializer.Marshal(sample)
	if err != nil {
		np.logger.Error("%s : failed to serialize sample for %s: %v", np.name, subject, err)
		return
	}

	if np.useJetStream {
		err = np.PublishJetStream(subject, dataSerialized)
	} else {
		err = np.Publish(subject, dataSerialized)
	}

	if err != nil {
		np.logger.Error("%s : failed to publish %s sample to NATS subject %s: %v",
			np.name, stockID, np.getSubject(subject), err)
	}
}

// -----------------------------------------------------------------------------

// SampleSubject returns the unprefixed subject of a stock's samples.
func SampleSubject(stockID string) string {
	return "prices." + stockID
}

// -----------------------------------------------------------------------------

// Publish sends raw data to a NATS core subject.
func (np *NATSPublisher) Publish(subject string, data []byte) error {
	if !np.IsConnected() {
		return fmt.Errorf("nats client not connected")
	}
	fullSubject := np.getSubject(subject)

	// This is fire-and-forget; use PublishJetStream for persistence
	return np.nc.Publish(fullSubject, data)
}

// -----------------------------------------------------------------------------

// PublishJetStream sends raw data using JetStream. Acknowledgements are
// collected asynchronously so a slow stream never stalls a client.
func (np *NATSPublisher) PublishJetStream(subject string, data []byte) error {
	if !np.IsConnected() {
		return fmt.Errorf("nats client not connected")
	}
	if np.js == nil {
		return fmt.Errorf("jetstream is not initialized or enabled")
	}

	fullSubject := np.getSubject(subject)

	if _, err := np.js.PublishAsync(fullSubject, data); err != nil {
		np.logger.Error("%s : jetstream publish failed for %s: %v", np.name, fullSubject, err)
		return err
	}
	return nil
}

// -----------------------------------------------------------------------------

// Connect establishes connection to NATS server and sets up JetStream context if configured.
func (np *NATSPublisher) Connect() error {
	np.mu.Lock()
	defer np.mu.Unlock()

	if np.nc != nil && np.nc.IsConnected() {
		return nil
	}
	if len(np.config.Servers) == 0 {
		return fmt.Errorf("no NATS server configured")
	}

	opts := []nats.Option{
		nats.Name(np.config.ClientID),
		nats.Timeout(np.config.ConnectTimeout),
		nats.ReconnectWait(np.config.ReconnectWait),
		nats.MaxReconnects(np.config.MaxReconnects),
		nats.FlusherTimeout(np.config.FlushTimeout),

		// Connection Event Handlers
		nats.RetryOnFailedConnect(true),
		nats.ClosedHandler(func(nc *nats.Conn) {
			np.logger.Warning("%s : NATS connection closed", np.name)
			np.connected.Store(false)
		}),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			np.logger.Warning("%s : NATS disconnected, attempting reconnect: %v", np.name, err)
			np.connected.Store(false)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			np.logger.Info("%s : NATS successfully reconnected to %s", np.name, nc.ConnectedUrl())
			np.connected.Store(true)
		}),
	}

	var err error
	np.nc, err = nats.Connect(strings.Join(np.config.Servers, ","), opts...)
	if err != nil {
		return fmt.Errorf("nats connection failed: %w", err)
	}

	// With RetryOnFailedConnect the first connection may still be pending.
	np.connected.Store(np.nc.IsConnected())
	np.logger.Info("%s : NATS client created for %v (connected: %t)", np.name, np.config.Servers, np.nc.IsConnected())

	if np.config.JetStream != nil && np.config.JetStream.Enabled {
		np.useJetStream = true
		np.logger.Info("%s : publisher using NATS JetStream for persistent sample publishing", np.name)

		np.js, err = np.nc.JetStream()
		if err != nil {
			np.logger.Error("%s : failed to create JetStream context: %v", np.name, err)
			return fmt.Errorf("jetstream context creation failed: %w", err)
		}

		if err := np.ensureStreamExists(); err != nil {
			np.logger.Warning("%s : failed to ensure stream exists: %v (continuing anyway)", np.name, err)
		}
	} else {
		np.useJetStream = false
		np.logger.Info("%s : publisher using NATS Core (fire-and-forget)", np.name)
	}

	return nil
}

// -----------------------------------------------------------------------------

// ensureStreamExists creates the JetStream stream described in the config when missing.
func (np *NATSPublisher) ensureStreamExists() error {
	if np.js == nil || np.config.JetStream == nil {
		return fmt.Errorf("jetstream not initialized")
	}

	streamName := np.config.JetStream.StreamName
	if streamName == "" {
		return fmt.Errorf("stream name not configured")
	}

	stream, err := np.js.StreamInfo(streamName)
	if err == nil {
		np.logger.Info("%s : JetStream stream '%s' already exists with %d subjects",
			np.name, streamName, len(stream.Config.Subjects))
		return nil
	}

	np.logger.Info("%s : creating JetStream stream '%s'", np.name, streamName)

	maxAge := np.config.JetStream.MaxAge
	if maxAge == 0 {
		maxAge = 24 * time.Hour
	}

	subjects := np.config.JetStream.Subjects
	if len(subjects) == 0 {
		subjects = []string{np.getSubject("prices.>")}
	}

	streamConfig := &nats.StreamConfig{
		Name:       streamName,
		Subjects:   subjects,
		Retention:  nats.LimitsPolicy,
		Storage:    nats.FileStorage,
		Replicas:   np.config.JetStream.Replicas,
		MaxAge:     maxAge,
		MaxMsgs:    np.config.JetStream.MaxMsgs,
		MaxBytes:   np.config.JetStream.MaxBytes,
		MaxMsgSize: int32(np.config.JetStream.MaxMsgSize),
		Discard:    nats.DiscardOld,
	}

	if _, err = np.js.AddStream(streamConfig); err != nil {
		return fmt.Errorf("failed to create stream '%s': %w", streamName, err)
	}

	np.logger.Info("%s : successfully created JetStream stream '%s' with subjects: %v",
		np.name, streamName, subjects)
	return nil
}

// -----------------------------------------------------------------------------

// Disconnect drains pending messages and closes the NATS connection.
func (np *NATSPublisher) Disconnect() error {
	np.mu.Lock()
	defer np.mu.Unlock()

	if np.nc == nil || np.nc.IsClosed() {
		return nil
	}

	if err := np.nc.FlushTimeout(np.config.FlushTimeout); err != nil {
		np.logger.Warning("%s : flush before close failed: %v", np.name, err)
	}
	np.nc.Close()
	np.connected.Store(false)
	np.logger.Info("%s : NATS connection closed successfully", np.name)
	return nil
}

// -----------------------------------------------------------------------------

// IsConnected returns connection status
func (np *NATSPublisher) IsConnected() bool {
	return np.connected.Load()
}

// -----------------------------------------------------------------------------

// Probe is the health check of the publisher.
func (np *NATSPublisher) Probe(ctx context.Context) error {
	if !np.IsConnected() {
		return fmt.Errorf("nats publisher %s not connected", np.name)
	}
	return nil
}

// -----------------------------------------------------------------------------

// GetName returns client identifier
func (np *NATSPublisher) GetName() string {
	return np.name
}

// -----------------------------------------------------------------------------

// getSubject prepends the configured subject prefix if it exists.
func (np *NATSPublisher) getSubject(subject string) string {
	if np.config.SubjectPrefix != "" {
		return fmt.Sprintf("%s.%s", np.config.SubjectPrefix, subject)
	}
	return subject
}
