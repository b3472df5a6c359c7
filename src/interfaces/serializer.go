package interfaces

// -----------------------------------------------------------------------------

// ISerializer defines the contract for marshaling and unmarshaling data.
// The gRPC codec and the NATS publisher are agnostic about the actual format.
type ISerializer interface {
	// Marshal converts a Go object (struct) into a byte slice.
	Marshal(obj any) ([]byte, error)

	// Unmarshal converts a byte slice back into a Go object.
	Unmarshal(data []byte, obj any) error

	// Name returns the content subtype of the format ("json").
	Name() string
}
