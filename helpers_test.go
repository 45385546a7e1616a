package eventqueue

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

const testEndpoint = "https://plausible.io/api/event"

var errBackend = errors.New("backend failure")

type failingStorage struct {
	*MemoryStorage
	getErr    error
	setErr    error
	removeErr error
}

func (s *failingStorage) Get(ctx context.Context, key string) (string, bool, error) {
	if s.getErr != nil {
		return "", false, s.getErr
	}
	return s.MemoryStorage.Get(ctx, key)
}

func (s *failingStorage) Set(ctx context.Context, key, value string) error {
	if s.setErr != nil {
		return s.setErr
	}
	return s.MemoryStorage.Set(ctx, key, value)
}

func (s *failingStorage) Remove(ctx context.Context, key string) error {
	if s.removeErr != nil {
		return s.removeErr
	}
	return s.MemoryStorage.Remove(ctx, key)
}

type sentRequest struct {
	endpoint string
	req      Request
}

// recordingClient answers every request with respond and records what it saw.
type recordingClient struct {
	mu      sync.Mutex
	sent    []sentRequest
	respond func(endpoint string, body []byte) (*Response, error)
}

func (c *recordingClient) Deliver(_ context.Context, endpoint string, req Request) (*Response, error) {
	c.mu.Lock()
	c.sent = append(c.sent, sentRequest{endpoint: endpoint, req: req})
	c.mu.Unlock()
	if c.respond == nil {
		return &Response{StatusCode: 202, Status: "Accepted"}, nil
	}
	return c.respond(endpoint, req.Body)
}

func (c *recordingClient) calls() []sentRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]sentRequest, len(c.sent))
	copy(out, c.sent)
	return out
}

func okClient() *recordingClient {
	return &recordingClient{}
}

func failingEndpointClient(failing string) *recordingClient {
	return &recordingClient{respond: func(endpoint string, _ []byte) (*Response, error) {
		if endpoint == failing {
			return &Response{StatusCode: 503, Status: "Service Unavailable"}, nil
		}
		return &Response{StatusCode: 202, Status: "Accepted"}, nil
	}}
}

// failingNamesClient fails single-event requests whose event name is listed.
func failingNamesClient(names ...string) *recordingClient {
	return &recordingClient{respond: func(_ string, payload []byte) (*Response, error) {
		var event Event
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, err
		}
		for _, name := range names {
			if event.Name == name {
				return nil, errors.New("offline")
			}
		}
		return &Response{StatusCode: 202, Status: "Accepted"}, nil
	}}
}

func delivery(endpoint, name string) Delivery {
	return Delivery{
		Endpoint: endpoint,
		Body: Event{
			Name:   name,
			URL:    "https://app.example.com/" + strings.ToLower(name),
			Domain: "example.com",
		},
	}
}

func newTestQueue(t *testing.T, opts ...Option) (*Queue, *MemoryStorage) {
	t.Helper()
	storage := NewMemoryStorage()
	queue := NewQueue(NewResolver(StaticProvider(storage), nil), opts...)
	return queue, storage
}

func enqueueAll(t *testing.T, queue *Queue, deliveries ...Delivery) {
	t.Helper()
	for _, d := range deliveries {
		if err := queue.Enqueue(context.Background(), d); err != nil {
			t.Fatalf("enqueue %s: %v", d.Body.Name, err)
		}
	}
}

func eventNames(deliveries []Delivery) []string {
	names := make([]string, len(deliveries))
	for i, d := range deliveries {
		names[i] = d.Body.Name
	}
	return names
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

type countingMetrics struct {
	NopMetrics
	mu        sync.Mutex
	delivered int
	requeued  int
	dropped   int
	enqueued  int
	pending   int
}

func (m *countingMetrics) AddDelivered(n int) { m.mu.Lock(); m.delivered += n; m.mu.Unlock() }
func (m *countingMetrics) AddRequeued(n int)  { m.mu.Lock(); m.requeued += n; m.mu.Unlock() }
func (m *countingMetrics) AddDropped(n int)   { m.mu.Lock(); m.dropped += n; m.mu.Unlock() }
func (m *countingMetrics) AddEnqueued(n int)  { m.mu.Lock(); m.enqueued += n; m.mu.Unlock() }
func (m *countingMetrics) SetPending(n int)   { m.mu.Lock(); m.pending = n; m.mu.Unlock() }
