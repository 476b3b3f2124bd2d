package domain

import "fmt"

// ContractType is one of the two contract categories. It governs
// numbering and downstream workflow; the core treats it as opaque.
type ContractType string

const (
	ContractTypeCM  ContractType = "CM"  // Contrato de Manutenção
	ContractTypeAPV ContractType = "APV" // Contrato Após-Venda
)

// ParseContractType validates a raw contract type value.
func ParseContractType(s string) (ContractType, error) {
	switch ContractType(s) {
	case ContractTypeCM, ContractTypeAPV:
		return ContractType(s), nil
	}
	return "", fmt.Errorf("unknown contract type %q", s)
}

func (t ContractType) String() string { return string(t) }

// Contract status values. New contracts are always created active.
const (
	ContractStatusAtivo    = "Ativo"
	ContractStatusPendente = "Pendente"
	ContractStatusFechado  = "Fechado"
	ContractStatusCortesia = "Cortesia"
)

// Vehicle status values.
const (
	VehicleStatusAtivo      = "Ativo"
	VehicleStatusInativo    = "Inativo"
	VehicleStatusVendido    = "Vendido"
	VehicleStatusSinistrado = "Sinistrado"
)

// SubmitResult is the outcome of a submission surfaced to the caller.
// Exactly one of Message or ErrorMessage is meaningful, selected by
// Success.
type SubmitResult struct {
	Success        bool   `json:"success"`
	ContractID     string `json:"contrato_id,omitempty"`
	ContractNumber string `json:"numero_contrato,omitempty"`
	Message        string `json:"message,omitempty"`
	ErrorMessage   string `json:"error,omitempty"`
}
