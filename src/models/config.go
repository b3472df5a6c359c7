package models

import "time"

// -----------------------------------------------------------------------------

// MConfig is the root of the YAML configuration file.
type MConfig struct {
	Name      string `yaml:"name"`
	Port      int    `yaml:"port"` // plain HTTP status port (/health, /metrics, /ws/prices, /rest)
	GRPC_Host string `yaml:"grpc_host"`
	GRPC_Port int    `yaml:"grpc_port"`

	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	Logger  MLoggerConfig  `yaml:"logger"`
	Auth    MAuthConfig    `yaml:"auth"`
	Stream  MStreamConfig  `yaml:"stream"`
	Sampler MSamplerConfig `yaml:"sampler"`
	Health  MHealthConfig  `yaml:"health"`
	Rest    MRestConfig    `yaml:"rest"`
	NATS    MNATSConfig    `yaml:"nats"`

	// Stocks overrides the seeded catalog when not empty.
	Stocks []*Stock `yaml:"stocks"`
}

// -----------------------------------------------------------------------------

// MLoggerConfig selects level, encoding and destination of the application log.
type MLoggerConfig struct {
	Level  string `yaml:"level"`  // debug, info, warning, error
	Format string `yaml:"format"` // json or console
	Output string `yaml:"output"` // stdout, stderr or a file path
	MaxAge int    `yaml:"max_age"`
	// MaxSize is the rotation threshold in megabytes for file output.
	MaxSize int `yaml:"max_size"`
}

// -----------------------------------------------------------------------------

// MAuthConfig holds the token signing settings and the registered client credentials.
type MAuthConfig struct {
	TokenKey      string            `yaml:"token_key"`
	TokenLifetime time.Duration     `yaml:"token_lifetime"`
	ClockSkew     time.Duration     `yaml:"clock_skew"`
	Clients       map[string]string `yaml:"clients"`
	PublicMethods []string          `yaml:"public_methods"`
}

// -----------------------------------------------------------------------------

// MStreamConfig drives the sample cadence of every streaming RPC.
type MStreamConfig struct {
	SampleCount    int           `yaml:"sample_count"`
	SampleInterval time.Duration `yaml:"sample_interval"`
	QueueCapacity  int           `yaml:"queue_capacity"`
	// MaxWorkers caps concurrent workers of one session, 0 means unlimited.
	MaxWorkers               int  `yaml:"max_workers"`
	CancelWorkersOnReadError bool `yaml:"cancel_workers_on_read_error"`
}

// -----------------------------------------------------------------------------

// MSamplerConfig bounds synthetic prices, MaxPrice is exclusive.
type MSamplerConfig struct {
	MinPrice int32 `yaml:"min_price"`
	MaxPrice int32 `yaml:"max_price"`
	Seed     int64 `yaml:"seed"`
}

// -----------------------------------------------------------------------------

// MHealthConfig configures the serving-status updater loop.
type MHealthConfig struct {
	ServiceName  string        `yaml:"service_name"`
	PollPeriod   time.Duration `yaml:"poll_period"`
	CheckTimeout time.Duration `yaml:"check_timeout"`
}

// -----------------------------------------------------------------------------

// MRestConfig holds the credentials the REST bridge uses against the gRPC API.
type MRestConfig struct {
	Enabled      bool   `yaml:"enabled"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}

// -----------------------------------------------------------------------------

// MNATSConfig configures the optional sample tap publisher.
type MNATSConfig struct {
	Enabled        bool          `yaml:"enabled"`
	Servers        []string      `yaml:"servers"`
	ClientID       string        `yaml:"client_id"`
	SubjectPrefix  string        `yaml:"subject_prefix"`
	Encoding       string        `yaml:"encoding"` // json or gob
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	ReconnectWait  time.Duration `yaml:"reconnect_wait"`
	MaxReconnects  int           `yaml:"max_reconnects"`
	FlushTimeout   time.Duration `yaml:"flush_timeout"`

	JetStream *MJetStreamConfig `yaml:"jetstream"`
}

// -----------------------------------------------------------------------------

// MJetStreamConfig describes the stream created when JetStream publishing is on.
type MJetStreamConfig struct {
	Enabled    bool          `yaml:"enabled"`
	StreamName string        `yaml:"stream_name"`
	Subjects   []string      `yaml:"subjects"`
	Replicas   int           `yaml:"replicas"`
	MaxAge     time.Duration `yaml:"max_age"`
	MaxMsgs    int64         `yaml:"max_msgs"`
	MaxBytes   int64         `yaml:"max_bytes"`
	MaxMsgSize int           `yaml:"max_msg_size"`
}
