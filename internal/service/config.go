package service

import (
	"time"

	"github.com/rs/zerolog"

	"sentirec/internal/embedding"
	"sentirec/internal/vectorstore"
)

// Defaults applied when corresponding Config fields are unset.
const (
	defaultTopK             = 5
	defaultMaxTopK          = 50
	defaultFailureThreshold = 5
	defaultOpenTimeout      = 30 * time.Second
	defaultPingTimeout      = 2 * time.Second
	defaultPingInterval     = 5 * time.Second
)

// Config wires components and tunables into a Service.
type Config struct {
	Classifier Classifier
	Embedder   embedding.Embedder
	Store      vectorstore.Store

	// ClassifierBackend is reported in /status, e.g. "onnx".
	ClassifierBackend string
	// LoadErrors records why a component could not be built, keyed by component name.
	LoadErrors map[string]error

	DefaultTopK int
	MaxTopK     int

	// Consecutive failures that open a breaker.
	FailureThreshold uint32
	// How long an open breaker rejects calls before probing again.
	OpenTimeout time.Duration

	// Bound on a single vector store ping made for readiness.
	PingTimeout time.Duration
	// How long a ping result is reused. Negative pings on every check.
	PingInterval time.Duration

	Logger zerolog.Logger
}

func (c *Config) applyDefaults() {
	if c.DefaultTopK <= 0 {
		c.DefaultTopK = defaultTopK
	}
	if c.MaxTopK <= 0 {
		c.MaxTopK = defaultMaxTopK
	}
	if c.DefaultTopK > c.MaxTopK {
		c.DefaultTopK = c.MaxTopK
	}
	if c.FailureThreshold == 0 {
		c.FailureThreshold = defaultFailureThreshold
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = defaultOpenTimeout
	}
	if c.PingTimeout <= 0 {
		c.PingTimeout = defaultPingTimeout
	}
	if c.PingInterval == 0 {
		c.PingInterval = defaultPingInterval
	}
}
