package gateway

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Memory is an in-memory Gateway for tests and development.
//
// Error injection mirrors how the rest of the codebase stubs
// collaborators: set a per-entity error on the matching map and the
// next matching call returns it. Call counters are exported for
// assertions.
type Memory struct {
	mu     sync.Mutex
	tables map[string][]Record

	// Error injection per entity.
	FindErr   map[string]error
	CreateErr map[string]error
	UpdateErr map[string]error
	DeleteErr map[string]error

	// Call tracking.
	FindCalls   int
	CreateCalls int
	UpdateCalls int
	DeleteCalls int
}

// NewMemory creates an empty in-memory gateway.
func NewMemory() *Memory {
	return &Memory{
		tables:    make(map[string][]Record),
		FindErr:   make(map[string]error),
		CreateErr: make(map[string]error),
		UpdateErr: make(map[string]error),
		DeleteErr: make(map[string]error),
	}
}

// FindByKey scans the entity's rows for the first key match.
func (g *Memory) FindByKey(ctx context.Context, entity string, key Key) (Record, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.FindCalls++

	if err := validateEntity(entity, nil, &key); err != nil {
		return nil, err
	}
	if err := g.FindErr[entity]; err != nil {
		return nil, err
	}

	for _, rec := range g.tables[entity] {
		if rec[key.Field] == key.Value {
			return cloneRecord(rec), nil
		}
	}
	return nil, ErrNotFound
}

// Create appends a row, assigning a UUID id when absent.
func (g *Memory) Create(ctx context.Context, entity string, fields Record) (Record, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.CreateCalls++

	if err := validateEntity(entity, fields, nil); err != nil {
		return nil, err
	}
	if err := g.CreateErr[entity]; err != nil {
		return nil, err
	}

	stored := cloneRecord(fields)
	if _, ok := stored["id"]; !ok {
		stored["id"] = uuid.NewString()
	}
	g.tables[entity] = append(g.tables[entity], stored)
	return cloneRecord(stored), nil
}

// Update patches every row matching the key.
func (g *Memory) Update(ctx context.Context, entity string, key Key, fields Record) (Record, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.UpdateCalls++

	if err := validateEntity(entity, fields, &key); err != nil {
		return nil, err
	}
	if err := g.UpdateErr[entity]; err != nil {
		return nil, err
	}

	for _, rec := range g.tables[entity] {
		if rec[key.Field] == key.Value {
			for k, v := range fields {
				rec[k] = v
			}
		}
	}
	return cloneRecord(fields), nil
}

// Delete removes every row matching the key. Idempotent.
func (g *Memory) Delete(ctx context.Context, entity string, key Key) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.DeleteCalls++

	if err := validateEntity(entity, nil, &key); err != nil {
		return err
	}
	if err := g.DeleteErr[entity]; err != nil {
		return err
	}

	rows := g.tables[entity][:0]
	for _, rec := range g.tables[entity] {
		if rec[key.Field] != key.Value {
			rows = append(rows, rec)
		}
	}
	g.tables[entity] = rows
	return nil
}

// Records returns a copy of an entity's rows, for test assertions.
func (g *Memory) Records(entity string) []Record {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]Record, 0, len(g.tables[entity]))
	for _, rec := range g.tables[entity] {
		out = append(out, cloneRecord(rec))
	}
	return out
}

// Seed inserts rows directly, bypassing counters and error injection.
func (g *Memory) Seed(entity string, rows ...Record) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, rec := range rows {
		stored := cloneRecord(rec)
		if _, ok := stored["id"]; !ok {
			stored["id"] = uuid.NewString()
		}
		g.tables[entity] = append(g.tables[entity], stored)
	}
}

// FindRecord returns the first row whose field matches, for test
// assertions. The bool reports whether a row matched.
func (g *Memory) FindRecord(entity, field string, value any) (Record, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, rec := range g.tables[entity] {
		if rec[field] == value {
			return cloneRecord(rec), true
		}
	}
	return nil, false
}

func cloneRecord(rec Record) Record {
	out := make(Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}
