package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/vitos/spot_arbitrage_bot/internal/domain"
)

// MockFeed returns scripted snapshots. When Gate is set, FetchPrices blocks
// until a value is received from it.
type MockFeed struct {
	FeedName string

	mu       sync.Mutex
	Snapshot domain.PriceSnapshot
	Err      error
	Panic    bool
	Calls    int
	Entered  chan struct{}
	Gate     chan struct{}
}

func (m *MockFeed) Name() string { return m.FeedName }

func (m *MockFeed) FetchPrices(ctx context.Context) (domain.PriceSnapshot, error) {
	m.mu.Lock()
	m.Calls++
	entered, gate := m.Entered, m.Gate
	snap, err, panics := m.Snapshot, m.Err, m.Panic
	m.mu.Unlock()

	if entered != nil {
		select {
		case entered <- struct{}{}:
		default:
		}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if panics {
		panic("feed exploded")
	}
	if err != nil {
		return nil, err
	}
	out := make(domain.PriceSnapshot, len(snap))
	for k, v := range snap {
		out[k] = v
	}
	return out, nil
}

func (m *MockFeed) Set(snap domain.PriceSnapshot, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Snapshot, m.Err = snap, err
}

func (m *MockFeed) SetPanic(v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Panic = v
}

func (m *MockFeed) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls
}

// RecordingNotifier captures every alert it is handed.
type RecordingNotifier struct {
	mu     sync.Mutex
	Alerts []domain.Alert
	Err    error
}

func (n *RecordingNotifier) Notify(ctx context.Context, alert domain.Alert) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Alerts = append(n.Alerts, alert)
	return n.Err
}

func (n *RecordingNotifier) Snapshot() []domain.Alert {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.Alert(nil), n.Alerts...)
}

type memStore struct {
	mu       sync.Mutex
	data     map[string]map[string]time.Time
	failSave bool
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string]map[string]time.Time)}
}

func (s *memStore) LoadCooldowns(ctx context.Context, namespace string) (map[string]time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]time.Time)
	for k, v := range s.data[namespace] {
		out[k] = v
	}
	return out, nil
}

func (s *memStore) SaveCooldown(ctx context.Context, namespace, key string, sentAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSave {
		return errors.New("disk full")
	}
	if s.data[namespace] == nil {
		s.data[namespace] = make(map[string]time.Time)
	}
	s.data[namespace][key] = sentAt
	return nil
}

func (s *memStore) DeleteCooldownsBefore(ctx context.Context, namespace string, cutoff time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range s.data[namespace] {
		if !v.After(cutoff) {
			delete(s.data[namespace], k)
		}
	}
	return nil
}

func (s *memStore) Close() error { return nil }
