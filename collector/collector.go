// Package collector is a minimal event collector that accepts the payloads the
// queue delivers. It backs the CLI's collector command and end-to-end tests.
package collector

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/velmie/eventqueue"
)

// EventPath is the route events are POSTed to.
const EventPath = "/api/event"

var (
	errEmptyBatch     = errors.New("at least one event required")
	errURLRequired    = errors.New("url required")
	errDomainRequired = errors.New("domain required")
)

// Received is an accepted event with the ID assigned on arrival.
type Received struct {
	ID         string           `json:"id"`
	ReceivedAt time.Time        `json:"received_at"`
	Event      eventqueue.Event `json:"event"`
}

// Config defines collector behavior.
type Config struct {
	Clock  eventqueue.Clock
	Logger eventqueue.Logger
}

// Option configures the collector.
type Option func(*Config)

// WithClock sets the time source for ReceivedAt.
func WithClock(clock eventqueue.Clock) Option {
	return func(c *Config) {
		c.Clock = clock
	}
}

// WithLogger sets the collector logger.
func WithLogger(logger eventqueue.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

func (c Config) withDefaults() Config {
	if c.Clock == nil {
		c.Clock = eventqueue.SystemClock{}
	}
	if c.Logger == nil {
		c.Logger = eventqueue.NopLogger{}
	}

	return c
}

// Collector stores accepted events in memory.
type Collector struct {
	cfg Config

	mu      sync.Mutex
	events  []Received
	failing int
}

// New constructs a Collector.
func New(opts ...Option) *Collector {
	var cfg Config
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Collector{cfg: cfg.withDefaults()}
}

// Events returns a snapshot of accepted events in arrival order.
func (c *Collector) Events() []Received {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Received, len(c.events))
	copy(out, c.events)

	return out
}

// SetFailing makes the event route answer with status until reset with 0.
func (c *Collector) SetFailing(status int) {
	c.mu.Lock()
	c.failing = status
	c.mu.Unlock()
}

// Router wires the collector routes.
// Public: /health, /api/event
func (c *Collector) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.POST(EventPath, c.handleEvents)

	return r
}

func (c *Collector) handleEvents(ctx *gin.Context) {
	if status := c.failingStatus(); status != 0 {
		ctx.JSON(status, gin.H{"error": http.StatusText(status)})
		return
	}

	raw, err := ctx.GetRawData()
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	events, err := decodeEvents(raw)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.accept(events)
	c.cfg.Logger.Debug("collector accepted events", "count", len(events))

	ctx.JSON(http.StatusAccepted, gin.H{"accepted": len(events)})
}

func (c *Collector) failingStatus() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.failing
}

func (c *Collector) accept(events []eventqueue.Event) {
	now := c.cfg.Clock.Now().UTC()

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, event := range events {
		c.events = append(c.events, Received{
			ID:         uuid.New().String(),
			ReceivedAt: now,
			Event:      event,
		})
	}
}

// decodeEvents accepts a single event object or a JSON array of events.
func decodeEvents(raw []byte) ([]eventqueue.Event, error) {
	raw = bytes.TrimSpace(raw)

	var events []eventqueue.Event
	if len(raw) > 0 && raw[0] == '[' {
		if err := json.Unmarshal(raw, &events); err != nil {
			return nil, errors.New("invalid JSON payload")
		}
		if len(events) == 0 {
			return nil, errEmptyBatch
		}
	} else {
		var event eventqueue.Event
		if err := json.Unmarshal(raw, &event); err != nil {
			return nil, errors.New("invalid JSON payload")
		}
		events = []eventqueue.Event{event}
	}

	for i, event := range events {
		if err := validate(event); err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
	}

	return events, nil
}

func validate(event eventqueue.Event) error {
	if err := event.Validate(); err != nil {
		return err
	}
	if event.URL == "" {
		return errURLRequired
	}
	if event.Domain == "" {
		return errDomainRequired
	}

	return nil
}
