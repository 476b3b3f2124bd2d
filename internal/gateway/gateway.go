// Package gateway provides the persistence gateway the submission
// sequence writes through.
//
// The gateway is deliberately generic: entities are addressed by name
// and rows travel as field maps, mirroring the row-store API the
// portal persists into. Two implementations exist:
//   - Postgres: database/sql over the pgx driver
//   - Memory: in-memory tables for tests and development
package gateway

import (
	"context"
	"errors"
)

// Entity names. The gateway rejects anything else.
const (
	EntityClients          = "clientes"
	EntityContacts         = "responsaveis"
	EntityVehicles         = "viaturas"
	EntityContracts        = "contratos"
	EntityContractVehicles = "contrato_viaturas"
)

// ErrNotFound signals a missing row from FindByKey. Callers treat it
// as the find-or-create trigger; every other error is fatal to the
// operation in progress.
var ErrNotFound = errors.New("gateway: record not found")

// Record is one row as a field map. Column names follow the store
// schema (snake_case Portuguese).
type Record = map[string]any

// Key addresses a row by one column, typically the entity's business
// key (nif, vin) or its surrogate id.
type Key struct {
	Field string
	Value any
}

// ByID builds a surrogate-id key.
func ByID(id any) Key { return Key{Field: "id", Value: id} }

// Gateway is the persistence collaborator. FindByKey must return
// ErrNotFound for a missing row, distinct from transport failures.
// Delete exists to support compensating actions after a partial
// failure and is idempotent.
type Gateway interface {
	FindByKey(ctx context.Context, entity string, key Key) (Record, error)
	Create(ctx context.Context, entity string, fields Record) (Record, error)
	Update(ctx context.Context, entity string, key Key, fields Record) (Record, error)
	Delete(ctx context.Context, entity string, key Key) error
}

// entityColumns whitelists the writable columns per entity. Anything
// outside the list is rejected before touching the store.
var entityColumns = map[string][]string{
	EntityClients: {
		"id", "nif", "nome_empresa", "provincia", "morada", "email_empresa",
	},
	EntityContacts: {
		"id", "cliente_id", "nome", "cargo", "email", "telefone", "is_primary",
	},
	EntityVehicles: {
		"id", "cliente_id", "vin", "matricula", "marca", "modelo",
		"ano_fabrico", "tipo_operacao", "km_atual", "km_mensal_estimado",
		"contrato_ativo_id", "status",
	},
	EntityContracts: {
		"id", "numero_contrato", "tipo", "cliente_id", "data_inicio",
		"data_fim", "duracao_meses", "km_total", "status",
	},
	EntityContractVehicles: {
		"id", "contrato_id", "viatura_id", "km_contrato",
	},
}

// validateEntity checks the entity name and, when fields or a key are
// given, their column names against the whitelist.
func validateEntity(entity string, fields Record, key *Key) error {
	cols, ok := entityColumns[entity]
	if !ok {
		return errors.New("gateway: unknown entity " + entity)
	}
	allowed := make(map[string]bool, len(cols))
	for _, c := range cols {
		allowed[c] = true
	}
	for name := range fields {
		if !allowed[name] {
			return errors.New("gateway: unknown column " + entity + "." + name)
		}
	}
	if key != nil && !allowed[key.Field] {
		return errors.New("gateway: unknown key column " + entity + "." + key.Field)
	}
	return nil
}
