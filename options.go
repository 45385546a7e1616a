package eventqueue

import "time"

const (
	// DefaultStorageKey is the key the serialized queue is stored under.
	DefaultStorageKey = "@expo-plausible/queue"
	// DefaultAPIHost is the collector host used when none is configured.
	DefaultAPIHost = "https://plausible.io"

	defaultFlushInterval = 30 * time.Second
)

// Config defines how queues, flushers and trackers behave.
// Each constructor reads only the fields relevant to it.
type Config struct {
	StorageKey        string
	Consent           *Consent
	Client            DeliveryClient
	noTransport       bool
	FailureClassifier FailureClassifier
	FlushInterval     time.Duration
	Batch             bool
	APIHost           string
	Domain            string
	OfflineQueue      bool
	offlineQueueSet   bool
	Clock             Clock
	Logger            Logger
	Metrics           Metrics
}

func (c Config) withDefaults() Config {
	if c.StorageKey == "" {
		c.StorageKey = DefaultStorageKey
	}
	if c.Consent == nil {
		c.Consent = NewConsent()
	}
	if c.Client == nil && !c.noTransport {
		c.Client = NewHTTPClient(nil)
	}
	if c.FailureClassifier == nil {
		c.FailureClassifier = defaultFailureClassifier
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = defaultFlushInterval
	}
	if c.APIHost == "" {
		c.APIHost = DefaultAPIHost
	}
	if !c.offlineQueueSet {
		c.OfflineQueue = true
	}
	if c.Clock == nil {
		c.Clock = SystemClock{}
	}
	if c.Logger == nil {
		c.Logger = NopLogger{}
	}
	if c.Metrics == nil {
		c.Metrics = NopMetrics{}
	}

	return c
}

func newConfig(opts []Option) Config {
	var cfg Config
	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg.withDefaults()
}

// Option configures Queue, Flusher and Tracker behavior.
type Option func(*Config)

// WithStorageKey sets the key the queue is persisted under.
func WithStorageKey(key string) Option {
	return func(c *Config) {
		c.StorageKey = key
	}
}

// WithConsent sets the consent gate shared by flushers and trackers.
func WithConsent(consent *Consent) Option {
	return func(c *Config) {
		c.Consent = consent
	}
}

// WithDeliveryClient sets the ambient client used when a flush does not supply one.
func WithDeliveryClient(client DeliveryClient) Option {
	return func(c *Config) {
		c.Client = client
		c.noTransport = client == nil
	}
}

// WithoutTransport leaves the flusher without an ambient client.
// Flushes that do not pass their own client then keep the queue intact.
func WithoutTransport() Option {
	return func(c *Config) {
		c.Client = nil
		c.noTransport = true
	}
}

// WithFailureClassifier sets the retry/drop decision for failed deliveries.
func WithFailureClassifier(classifier FailureClassifier) Option {
	return func(c *Config) {
		c.FailureClassifier = classifier
	}
}

// WithFlushInterval sets the delay between flushes in Flusher.Run.
func WithFlushInterval(interval time.Duration) Option {
	return func(c *Config) {
		c.FlushInterval = interval
	}
}

// WithBatch makes Flusher.Run flush in batch mode.
func WithBatch(enabled bool) Option {
	return func(c *Config) {
		c.Batch = enabled
	}
}

// WithAPIHost sets the collector host trackers send to.
func WithAPIHost(host string) Option {
	return func(c *Config) {
		c.APIHost = host
	}
}

// WithDomain sets the default domain for tracked events.
func WithDomain(domain string) Option {
	return func(c *Config) {
		c.Domain = domain
	}
}

// WithOfflineQueue enables or disables queueing of failed sends. The default is enabled.
func WithOfflineQueue(enabled bool) Option {
	return func(c *Config) {
		c.OfflineQueue = enabled
		c.offlineQueueSet = true
	}
}

// WithClock sets the clock used for flush timing.
func WithClock(clock Clock) Option {
	return func(c *Config) {
		c.Clock = clock
	}
}

// WithLogger sets the logger.
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(metrics Metrics) Option {
	return func(c *Config) {
		c.Metrics = metrics
	}
}
