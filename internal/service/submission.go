// Package service contains the business logic layer.
//
// This file implements the submission service: the sequence that turns
// a validated contract request draft into persisted entities — client,
// primary contact, contract, vehicles and contract-vehicle links —
// using find-or-create semantics and an externally generated contract
// number.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/norsao/frotaportal/internal/domain"
	"github.com/norsao/frotaportal/internal/gateway"
	"github.com/norsao/frotaportal/internal/metrics"
	"github.com/norsao/frotaportal/internal/numbering"
)

// =============================================================================
// Interface Definition
// =============================================================================

// SubmissionService persists a contract request draft.
//
// Submit is not idempotent: re-invocation with the same draft reuses
// the client and vehicles it finds by business key but always creates
// a new contract and new links.
type SubmissionService interface {
	// Submit runs the persistence sequence for a validated draft.
	// Orchestration failures come back as an unsuccessful SubmitResult
	// carrying the underlying error text; the error return is reserved
	// for precondition violations (empty vehicle list).
	Submit(ctx context.Context, draft *domain.Draft, tipo domain.ContractType) (*domain.SubmitResult, error)
}

// =============================================================================
// Implementation
// =============================================================================

// submissionService implements the SubmissionService interface.
type submissionService struct {
	gw      gateway.Gateway
	numbers numbering.Generator
	logger  *slog.Logger
}

// NewSubmissionService creates a new SubmissionService.
func NewSubmissionService(
	gw gateway.Gateway,
	numbers numbering.Generator,
	logger *slog.Logger,
) SubmissionService {
	return &submissionService{
		gw:      gw,
		numbers: numbers,
		logger:  logger,
	}
}

// compensation is one recorded undo action for an already-committed
// write, run in reverse order when a later step fails.
type compensation struct {
	desc string
	run  func(context.Context) error
}

// Submit executes the submission sequence. Every gateway call is
// awaited before the next step starts; there is no parallel fan-out
// across vehicles.
//
// A vehicle found by VIN keeps its stored technical fields; only its
// active-contract reference is updated. A client found by NIF is
// reused entirely unchanged.
func (s *submissionService) Submit(ctx context.Context, draft *domain.Draft, tipo domain.ContractType) (*domain.SubmitResult, error) {
	const op = "submission.submit"

	if len(draft.Vehicles) == 0 {
		return nil, domain.Invalid(op, "o pedido deve incluir pelo menos uma viatura")
	}

	start := time.Now()
	defer func() {
		metrics.SubmissionDuration.WithLabelValues(tipo.String()).Observe(time.Since(start).Seconds())
	}()

	var undo []compensation
	fail := func(step string, err error) *domain.SubmitResult {
		s.logger.Error("submission failed",
			"tipo", tipo.String(),
			"step", step,
			"error", err,
		)
		s.compensate(ctx, undo)
		metrics.SubmissionsTotal.WithLabelValues(tipo.String(), "failure").Inc()
		return &domain.SubmitResult{Success: false, ErrorMessage: err.Error()}
	}

	// Step 1: resolve the client by NIF. Found clients are reused
	// without any field refresh, even when the draft disagrees.
	clientID, created, err := s.resolveClient(ctx, &draft.Client)
	if err != nil {
		return fail("cliente", err), nil
	}
	if created {
		s.logger.Info("client created", "nif", draft.Client.TaxID, "cliente_id", clientID)
	}

	// Step 2: contract number. A failure here aborts before any
	// contract or vehicle write.
	numero, err := s.numbers.Next(ctx, tipo)
	if err != nil {
		return fail("numero_contrato", err), nil
	}

	// Step 3: the contract window comes from the first vehicle only.
	// Other vehicles' durations do not move the contract-level dates.
	first := draft.Vehicles[0]
	startDate, err := domain.ParseStartDate(first.StartDate)
	if err != nil {
		return fail("data_inicio", err), nil
	}
	months := atoiOrZero(first.DurationMonths)
	endDate := domain.ContractEndDate(startDate, months)

	// Step 4: aggregate contracted distance across every vehicle,
	// blank or unparseable values counting as zero.
	kmTotal := 0
	for _, v := range draft.Vehicles {
		kmTotal += atoiOrZero(v.TotalKm)
	}

	// Step 5: the contract row.
	contractRec, err := s.gw.Create(ctx, gateway.EntityContracts, gateway.Record{
		"numero_contrato": numero,
		"tipo":            tipo.String(),
		"cliente_id":      clientID,
		"data_inicio":     first.StartDate,
		"data_fim":        endDate.Format(domain.StartDateLayout),
		"duracao_meses":   months,
		"km_total":        kmTotal,
		"status":          domain.ContractStatusAtivo,
	})
	if err != nil {
		return fail("contrato", err), nil
	}
	contractID := contractRec["id"]
	undo = append(undo, compensation{
		desc: "delete contract " + numero,
		run: func(ctx context.Context) error {
			return s.gw.Delete(ctx, gateway.EntityContracts, gateway.ByID(contractID))
		},
	})

	// Step 6: resolve and link each vehicle, in draft order.
	for i := range draft.Vehicles {
		v := &draft.Vehicles[i]
		vehicleID, comp, err := s.resolveVehicle(ctx, v, clientID, contractID)
		if err != nil {
			return fail("viatura "+v.VIN, err), nil
		}
		undo = append(undo, comp)

		linkRec, err := s.gw.Create(ctx, gateway.EntityContractVehicles, gateway.Record{
			"contrato_id": contractID,
			"viatura_id":  vehicleID,
			"km_contrato": atoiOrZero(v.TotalKm),
		})
		if err != nil {
			return fail("contrato_viatura "+v.VIN, err), nil
		}
		linkID := linkRec["id"]
		undo = append(undo, compensation{
			desc: "delete contract-vehicle link " + v.VIN,
			run: func(ctx context.Context) error {
				return s.gw.Delete(ctx, gateway.EntityContractVehicles, gateway.ByID(linkID))
			},
		})
	}

	s.logger.Info("contract created",
		"tipo", tipo.String(),
		"numero_contrato", numero,
		"cliente_id", clientID,
		"viaturas", len(draft.Vehicles),
		"km_total", kmTotal,
	)
	metrics.SubmissionsTotal.WithLabelValues(tipo.String(), "success").Inc()

	return &domain.SubmitResult{
		Success:        true,
		ContractID:     recordID(contractID),
		ContractNumber: numero,
		Message:        "Contrato " + tipo.String() + " " + numero + " criado!",
	}, nil
}

// resolveClient finds the client by NIF or creates it together with
// its primary contact. The bool reports whether a client was created.
//
// A created client (and contact) is deliberately not compensated on a
// later failure: it is reusable master data keyed by NIF, and deleting
// it could race a concurrent submission for the same client.
func (s *submissionService) resolveClient(ctx context.Context, c *domain.ClientDraft) (any, bool, error) {
	rec, err := s.gw.FindByKey(ctx, gateway.EntityClients, gateway.Key{Field: "nif", Value: c.TaxID})
	if err == nil {
		return rec["id"], false, nil
	}
	if !errors.Is(err, gateway.ErrNotFound) {
		return nil, false, err
	}

	rec, err = s.gw.Create(ctx, gateway.EntityClients, gateway.Record{
		"nif":           c.TaxID,
		"nome_empresa":  c.CompanyName,
		"provincia":     c.Province,
		"morada":        c.Address,
		"email_empresa": nullable(c.CompanyEmail),
	})
	if err != nil {
		return nil, false, err
	}

	_, err = s.gw.Create(ctx, gateway.EntityContacts, gateway.Record{
		"cliente_id": rec["id"],
		"nome":       c.ContactName,
		"cargo":      nullable(c.ContactRole),
		"email":      c.ContactEmail,
		"telefone":   nullable(c.ContactPhone),
		"is_primary": true,
	})
	if err != nil {
		return nil, false, err
	}

	return rec["id"], true, nil
}

// resolveVehicle finds the vehicle by VIN or creates it, pointing its
// active-contract reference at the new contract either way. For a
// found vehicle nothing but that reference is touched. Returns the
// vehicle id and the recorded compensation for the write performed.
func (s *submissionService) resolveVehicle(ctx context.Context, v *domain.VehicleDraft, clientID, contractID any) (any, compensation, error) {
	rec, err := s.gw.FindByKey(ctx, gateway.EntityVehicles, gateway.Key{Field: "vin", Value: v.VIN})
	if err == nil {
		vehicleID := rec["id"]
		previous := rec["contrato_ativo_id"]
		_, err = s.gw.Update(ctx, gateway.EntityVehicles, gateway.ByID(vehicleID), gateway.Record{
			"contrato_ativo_id": contractID,
		})
		if err != nil {
			return nil, compensation{}, err
		}
		return vehicleID, compensation{
			desc: "revert active contract of vehicle " + v.VIN,
			run: func(ctx context.Context) error {
				_, err := s.gw.Update(ctx, gateway.EntityVehicles, gateway.ByID(vehicleID), gateway.Record{
					"contrato_ativo_id": previous,
				})
				return err
			},
		}, nil
	}
	if !errors.Is(err, gateway.ErrNotFound) {
		return nil, compensation{}, err
	}

	rec, err = s.gw.Create(ctx, gateway.EntityVehicles, gateway.Record{
		"cliente_id":         clientID,
		"vin":                v.VIN,
		"matricula":          v.Plate,
		"marca":              v.Make,
		"modelo":             v.Model,
		"ano_fabrico":        atoiOrZero(v.Year),
		"tipo_operacao":      v.OperationType,
		"km_atual":           atoiOrZero(v.Odometer),
		"km_mensal_estimado": atoiOrZero(v.MonthlyKm),
		"contrato_ativo_id":  contractID,
		"status":             domain.VehicleStatusAtivo,
	})
	if err != nil {
		return nil, compensation{}, err
	}
	vehicleID := rec["id"]
	return vehicleID, compensation{
		desc: "delete vehicle " + v.VIN,
		run: func(ctx context.Context) error {
			return s.gw.Delete(ctx, gateway.EntityVehicles, gateway.ByID(vehicleID))
		},
	}, nil
}

// compensate runs the recorded undo actions in reverse order. Undo
// failures are logged and counted but do not mask the original error.
func (s *submissionService) compensate(ctx context.Context, undo []compensation) {
	for i := len(undo) - 1; i >= 0; i-- {
		metrics.SubmissionCompensations.Inc()
		if err := undo[i].run(ctx); err != nil {
			s.logger.Error("compensation failed", "action", undo[i].desc, "error", err)
		} else {
			s.logger.Info("compensated", "action", undo[i].desc)
		}
	}
}

// atoiOrZero parses an integer-valued form field, blank or malformed
// values counting as zero.
func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// nullable maps an empty optional field to NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// recordID renders a gateway id value for the result payload.
func recordID(id any) string {
	if s, ok := id.(string); ok {
		return s
	}
	if id == nil {
		return ""
	}
	if str, ok := id.(interface{ String() string }); ok {
		return str.String()
	}
	return ""
}
