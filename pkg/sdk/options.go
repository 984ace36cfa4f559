package lostfound

import (
	"time"

	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	addrs    []string
	username string
	password string
	db       int

	keyPrefix       string
	deleteBatchSize int
	storeTimeout    time.Duration

	oracleAPIKey      string
	oracleBaseURL     string
	oracleModel       string
	oracleVisionModel string
	oracleTimeout     time.Duration

	logger *zap.Logger
}

// WithRedis configures the client to connect to a Redis Stack instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithKeyPrefix sets the key namespace for records, keywords and the index.
// Default: "lostfound:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithDeleteBatchSize sets the batch size for bulk deletes. Default: 100.
func WithDeleteBatchSize(size int) Option {
	return optionFunc(func(c *clientConfig) {
		c.deleteBatchSize = size
	})
}

// WithStoreTimeout bounds every store operation. Zero (the default)
// leaves operations unbounded.
func WithStoreTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.storeTimeout = d
	})
}

// WithOracle configures the classification oracle (OpenAI-compatible chat
// completion API). Without it, fuzzy criteria matching, image classification
// and keyword selection are unavailable.
func WithOracle(apiKey, baseURL, model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.oracleAPIKey = apiKey
		c.oracleBaseURL = baseURL
		c.oracleModel = model
	})
}

// WithVisionModel overrides the model used for image classification.
// Defaults to the oracle model.
func WithVisionModel(model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.oracleVisionModel = model
	})
}

// WithOracleTimeout bounds every oracle call. Zero means no client-side bound.
func WithOracleTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.oracleTimeout = d
	})
}

// WithLogger enables structured logging for client operations.
// Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}
