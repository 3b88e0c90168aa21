package store

import (
	"context"
	"maps"
	"sync"

	"github.com/roamnz/travelgo/model"
)

// Memory is a map-backed Store used by tests and local development.
// Items keep their insertion order, which stands in for the remote
// store's natural order.
type Memory struct {
	mu       sync.Mutex
	tables   map[string][]model.Item
	failures []error
	refreshN int
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{tables: make(map[string][]model.Item)}
}

// Seed loads items into a table, preserving order.
func (m *Memory) Seed(table string, items ...model.Item) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range items {
		m.tables[table] = append(m.tables[table], maps.Clone(item))
	}
}

// FailNext queues errors to be returned by subsequent store operations,
// one per call, before any data access happens.
func (m *Memory) FailNext(errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, errs...)
}

// Refresh satisfies Refresher. It only counts invocations; queued
// failures decide whether the retried operation succeeds.
func (m *Memory) Refresh(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshN++
	return nil
}

// RefreshCount reports how many times Refresh has been called.
func (m *Memory) RefreshCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshN
}

func (m *Memory) popFailure() error {
	if len(m.failures) == 0 {
		return nil
	}
	err := m.failures[0]
	m.failures = m.failures[1:]
	return err
}

// GetItem returns the first item whose key attribute equals the key
// value, or nil when no such item exists.
func (m *Memory) GetItem(ctx context.Context, table string, key model.Key) (model.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.popFailure(); err != nil {
		return nil, err
	}
	for _, item := range m.tables[table] {
		if v, ok := item.String(key.Name); ok && v == key.Value {
			return maps.Clone(item), nil
		}
	}
	return nil, nil
}

// Query returns all items whose key attribute equals the key value, in
// insertion order. The index argument is accepted for interface parity;
// the in-memory store answers every key attribute directly.
func (m *Memory) Query(ctx context.Context, table string, key model.Key, index string) ([]model.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.popFailure(); err != nil {
		return nil, err
	}
	var items []model.Item
	for _, item := range m.tables[table] {
		if v, ok := item.String(key.Name); ok && v == key.Value {
			items = append(items, maps.Clone(item))
		}
	}
	return items, nil
}

// Scan returns all items matching the predicate, in insertion order.
func (m *Memory) Scan(ctx context.Context, table string, pred model.Predicate) ([]model.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.popFailure(); err != nil {
		return nil, err
	}
	var items []model.Item
	for _, item := range m.tables[table] {
		if pred.Matches(item) {
			items = append(items, maps.Clone(item))
		}
	}
	return items, nil
}

// Put appends one item to the table.
func (m *Memory) Put(ctx context.Context, table string, item model.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.popFailure(); err != nil {
		return err
	}
	m.tables[table] = append(m.tables[table], maps.Clone(item))
	return nil
}

// Items returns a copy of a table's contents, for test assertions.
func (m *Memory) Items(table string) []model.Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]model.Item, 0, len(m.tables[table]))
	for _, item := range m.tables[table] {
		items = append(items, maps.Clone(item))
	}
	return items
}
