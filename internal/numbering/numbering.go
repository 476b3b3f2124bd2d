// Package numbering issues contract numbers.
//
// Numbers are unique per contract type, formatted
// "<TIPO>-<year>-<counter>", e.g. "CM-2026-0042". The Postgres
// implementation backs the counter with a sequence table so a value is
// never issued twice for a type, even across processes.
package numbering

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/norsao/frotaportal/internal/domain"
)

// Generator issues the next contract number for a type. Implementations
// must never repeat a value for the same type.
type Generator interface {
	Next(ctx context.Context, tipo domain.ContractType) (string, error)
}

func format(tipo domain.ContractType, year, n int64) string {
	return fmt.Sprintf("%s-%d-%04d", tipo, year, n)
}

// =============================================================================
// Postgres
// =============================================================================

// Postgres allocates numbers from the contract_sequences table.
type Postgres struct {
	db  *sql.DB
	now func() time.Time
}

// NewPostgres creates a Postgres-backed generator.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db, now: time.Now}
}

// Next increments the type's counter atomically and formats the number.
func (g *Postgres) Next(ctx context.Context, tipo domain.ContractType) (string, error) {
	const query = `
		INSERT INTO contract_sequences (tipo, last_value)
		VALUES ($1, 1)
		ON CONFLICT (tipo)
		DO UPDATE SET last_value = contract_sequences.last_value + 1
		RETURNING last_value`

	var n int64
	if err := g.db.QueryRowContext(ctx, query, tipo.String()).Scan(&n); err != nil {
		return "", fmt.Errorf("numbering: next %s: %w", tipo, err)
	}
	return format(tipo, int64(g.now().Year()), n), nil
}

// =============================================================================
// Memory
// =============================================================================

// Memory is an in-process generator for tests and development. Err, if
// set, is returned by every call.
type Memory struct {
	mu       sync.Mutex
	counters map[domain.ContractType]int64
	now      func() time.Time

	Err   error
	Calls int
}

// NewMemory creates an in-memory generator.
func NewMemory() *Memory {
	return &Memory{
		counters: make(map[domain.ContractType]int64),
		now:      time.Now,
	}
}

// Next increments the in-process counter for the type.
func (g *Memory) Next(ctx context.Context, tipo domain.ContractType) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Calls++

	if g.Err != nil {
		return "", g.Err
	}
	g.counters[tipo]++
	return format(tipo, int64(g.now().Year()), g.counters[tipo]), nil
}
