package store

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"botadmin/internal/database"
)

// memDocuments keeps documents as encoded JSON so tests see the persisted shape.
type memDocuments struct {
	mu      sync.Mutex
	data    map[string][]byte
	saves   map[string]int
	loadErr error
	saveErr error
}

func newMemDocuments() *memDocuments {
	return &memDocuments{
		data:  make(map[string][]byte),
		saves: make(map[string]int),
	}
}

func (m *memDocuments) Load(_ context.Context, name string, v interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return m.loadErr
	}
	data, ok := m.data[name]
	if !ok {
		return database.ErrNotFound
	}
	return json.Unmarshal(data, v)
}

func (m *memDocuments) Save(_ context.Context, name string, v interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.data[name] = data
	m.saves[name]++
	return nil
}

func (m *memDocuments) put(name, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[name] = []byte(body)
}

func (m *memDocuments) saved(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves[name]
}

var errBroken = errors.New("broken storage")

// fakeClock is a movable clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
