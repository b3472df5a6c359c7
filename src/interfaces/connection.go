package interfaces

import (
	"context"

	"stock-data-service/src/models"
)

// -----------------------------------------------------------------------------

// ISessionTransport carries one fan-in streaming session over a transport
// other than gRPC (the websocket gateway).
type ISessionTransport interface {
	// GetName returns the transport instance name
	GetName() string

	// GetType returns the transport type
	GetType() string

	// Context ends when the peer went away
	Context() context.Context

	// Recv returns the next requested stock identifier, io.EOF on completion
	Recv() (string, error)

	// Send writes one sample to the peer
	Send(sample *models.StockPrice) error

	// Close ends the session with a transport specific code and reason
	Close(code int, reason string) error
}
