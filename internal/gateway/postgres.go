package gateway

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// Postgres implements Gateway over database/sql with the pgx stdlib
// driver. Statements are assembled from the per-entity column
// whitelist only; no caller-supplied identifier ever reaches the SQL
// text.
type Postgres struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgres creates a Postgres gateway.
func NewPostgres(db *sql.DB, logger *slog.Logger) *Postgres {
	return &Postgres{db: db, logger: logger}
}

// FindByKey returns the first row matching the key, or ErrNotFound.
func (g *Postgres) FindByKey(ctx context.Context, entity string, key Key) (Record, error) {
	if err := validateEntity(entity, nil, &key); err != nil {
		return nil, err
	}

	cols := entityColumns[entity]
	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s = $1 LIMIT 1",
		strings.Join(cols, ", "), entity, key.Field,
	)

	row := g.db.QueryRowContext(ctx, query, key.Value)
	values := make([]any, len(cols))
	dest := make([]any, len(cols))
	for i := range values {
		dest[i] = &values[i]
	}
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("gateway: find %s by %s: %w", entity, key.Field, err)
	}

	rec := make(Record, len(cols))
	for i, c := range cols {
		rec[c] = values[i]
	}
	return rec, nil
}

// Create inserts a row, assigning a UUID id when the caller did not,
// and returns the stored fields.
func (g *Postgres) Create(ctx context.Context, entity string, fields Record) (Record, error) {
	if err := validateEntity(entity, fields, nil); err != nil {
		return nil, err
	}

	stored := make(Record, len(fields)+1)
	for k, v := range fields {
		stored[k] = v
	}
	if _, ok := stored["id"]; !ok {
		stored["id"] = uuid.NewString()
	}

	// Walk the whitelist for a stable column order.
	var cols []string
	var args []any
	var marks []string
	for _, c := range entityColumns[entity] {
		v, ok := stored[c]
		if !ok {
			continue
		}
		cols = append(cols, c)
		args = append(args, v)
		marks = append(marks, fmt.Sprintf("$%d", len(args)))
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		entity, strings.Join(cols, ", "), strings.Join(marks, ", "),
	)
	if _, err := g.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("gateway: create %s: %w", entity, err)
	}

	g.logger.Debug("row created", "entity", entity, "id", stored["id"])
	return stored, nil
}

// Update patches the row addressed by key and returns the patch.
func (g *Postgres) Update(ctx context.Context, entity string, key Key, fields Record) (Record, error) {
	if err := validateEntity(entity, fields, &key); err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return fields, nil
	}

	var sets []string
	var args []any
	for _, c := range entityColumns[entity] {
		v, ok := fields[c]
		if !ok {
			continue
		}
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", c, len(args)))
	}
	args = append(args, key.Value)

	query := fmt.Sprintf(
		"UPDATE %s SET %s, updated_at = now() WHERE %s = $%d",
		entity, strings.Join(sets, ", "), key.Field, len(args),
	)
	if entity == EntityContacts || entity == EntityContractVehicles {
		// No updated_at column on these tables.
		query = fmt.Sprintf(
			"UPDATE %s SET %s WHERE %s = $%d",
			entity, strings.Join(sets, ", "), key.Field, len(args),
		)
	}
	if _, err := g.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("gateway: update %s: %w", entity, err)
	}

	return fields, nil
}

// Delete removes the rows addressed by key. Idempotent: deleting a
// missing row is not an error.
func (g *Postgres) Delete(ctx context.Context, entity string, key Key) error {
	if err := validateEntity(entity, nil, &key); err != nil {
		return err
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", entity, key.Field)
	if _, err := g.db.ExecContext(ctx, query, key.Value); err != nil {
		return fmt.Errorf("gateway: delete %s: %w", entity, err)
	}
	return nil
}
