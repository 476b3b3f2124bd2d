// Package handler contains HTTP handlers for the contract request API.
package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/norsao/frotaportal/internal/domain"
	"github.com/norsao/frotaportal/internal/export"
	"github.com/norsao/frotaportal/internal/form"
	"github.com/norsao/frotaportal/internal/metrics"
	"github.com/norsao/frotaportal/internal/service"
)

// ContractHandler handles contract request submissions and exports.
type ContractHandler struct {
	submissions service.SubmissionService
	exporter    *export.Exporter
	logger      *slog.Logger
	now         func() time.Time
}

// NewContractHandler creates a new ContractHandler.
func NewContractHandler(
	submissions service.SubmissionService,
	exporter *export.Exporter,
	logger *slog.Logger,
) *ContractHandler {
	return &ContractHandler{
		submissions: submissions,
		exporter:    exporter,
		logger:      logger,
		now:         time.Now,
	}
}

// Submit handles a contract request submission.
// POST /api/contratos/{tipo}
//
// The body is a full draft. Validation runs server-side before any
// write: a draft with invalid fields comes back as a 422 with the
// field→message map keyed the same way the form keys its errors.
func (h *ContractHandler) Submit(w http.ResponseWriter, r *http.Request) {
	tipo, err := domain.ParseContractType(r.PathValue("tipo"))
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("handler.submit", "tipo de contrato inválido"))
		return
	}

	draft, err := decodeDraft(r)
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("handler.submit", err.Error()))
		return
	}

	ctrl := form.New(h.submissions, h.logger)
	ctrl.ReplaceDraft(draft)

	result, err := ctrl.Submit(r.Context(), tipo)
	if err != nil {
		ValidationErrorResponse(w, r, h.logger, err)
		return
	}

	status := http.StatusCreated
	if !result.Success {
		status = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(result)
}

// Export streams the draft as an xlsx workbook.
// POST /api/exportar
//
// Export shares the submission's validation: an incomplete draft is
// rejected instead of producing a half-filled sheet.
func (h *ContractHandler) Export(w http.ResponseWriter, r *http.Request) {
	draft, err := decodeDraft(r)
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("handler.export", err.Error()))
		return
	}

	ctrl := form.New(h.submissions, h.logger)
	ctrl.ReplaceDraft(draft)
	if ok, _ := ctrl.ValidateAll(); !ok {
		ValidationErrorResponse(w, r, h.logger, domain.NewValidationError("handler.export", ctrl.Errors()))
		return
	}

	snapshot := ctrl.Snapshot()
	filename := export.Filename(snapshot.Client.CompanyName, h.now())

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if _, err := h.exporter.Generate(r.Context(), snapshot, w); err != nil {
		// Headers are already out; all we can do is log.
		h.logger.Error("export failed", "error", err, "filename", filename)
		return
	}

	metrics.ExportsTotal.Inc()
	h.logger.Info("draft exported", "filename", filename, "vehicles", len(snapshot.Vehicles))
}

// Health handles health check requests.
// GET /health
func (h *ContractHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func decodeDraft(r *http.Request) (*domain.Draft, error) {
	defer r.Body.Close()

	var draft domain.Draft
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&draft); err != nil {
		return nil, fmt.Errorf("corpo do pedido inválido: %w", err)
	}
	return &draft, nil
}
