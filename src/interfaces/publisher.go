package interfaces

import "stock-data-service/src/models"

// -----------------------------------------------------------------------------

// IPublisher defines the interface for publishing price samples
type IPublisher interface {
	// OnPriceSample publishes a sample that was just delivered to a client
	OnPriceSample(sample *models.StockPrice)

	// Connect establishes connection to the message broker
	Connect() error

	// Disconnect closes the connection to the message broker
	Disconnect() error

	// IsConnected returns the current connection status
	IsConnected() bool
}
