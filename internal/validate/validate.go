// Package validate implements the field validation engine for the
// contract request form.
//
// Validators are pure functions from (field identifier, raw value) to
// an error message, "" meaning valid. They never look at the rest of
// the draft; date checks take the reference day as an explicit
// parameter so validation stays deterministic under test.
package validate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// VINLength is the required length of a vehicle identification number.
const VINLength = 17

// Duration bounds in months. There is no input widget in front of this
// engine, so the range is enforced here rather than delegated to the UI.
const (
	MinDurationMonths = 1
	MaxDurationMonths = 60
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// requiredClientFields are the client fields that must be non-blank.
// responsavelEmail is handled separately because it also carries the
// shape check.
var requiredClientFields = map[string]bool{
	"nomeEmpresa":         true,
	"nif":                 true,
	"provincia":           true,
	"morada":              true,
	"responsavelNome":     true,
	"responsavelCargo":    true,
	"responsavelTelefone": true,
}

// requiredVehicleSpecs are the vehicle technical fields that must be
// non-blank. VIN, duration and start date have dedicated rules.
var requiredVehicleSpecs = map[string]bool{
	"marca":         true,
	"modelo":        true,
	"matricula":     true,
	"anoFabrico":    true,
	"quilometragem": true,
	"tipoOperacao":  true,
	"kmMensal":      true,
}

// ClientField validates a single client field. Returns "" when valid.
func ClientField(name, value string) string {
	if requiredClientFields[name] && strings.TrimSpace(value) == "" {
		return "Este campo é obrigatório"
	}

	switch name {
	case "responsavelEmail":
		if strings.TrimSpace(value) == "" {
			return "Este campo é obrigatório"
		}
		if !emailPattern.MatchString(value) {
			return "Por favor, insira um email válido"
		}
	case "emailEmpresa":
		// Optional, but must be well-formed when present.
		if strings.TrimSpace(value) != "" && !emailPattern.MatchString(value) {
			return "Por favor, insira um email válido"
		}
	}

	return ""
}

// VehicleField validates a single vehicle field against the given
// reference day. Returns "" when valid. The notes field is never
// validated.
func VehicleField(field, value string, today time.Time) string {
	switch field {
	case "vin":
		if strings.TrimSpace(value) == "" {
			return "VIN é obrigatório"
		}
		if len(value) != VINLength {
			return fmt.Sprintf("O VIN deve ter %d caracteres (Atual: %d)", VINLength, len(value))
		}

	case "duracaoMeses":
		if strings.TrimSpace(value) == "" {
			return "Este campo é obrigatório"
		}
		months, err := strconv.Atoi(value)
		if err != nil {
			return "A duração deve ser um número inteiro de meses"
		}
		if months < MinDurationMonths || months > MaxDurationMonths {
			return fmt.Sprintf("A duração deve estar entre %d e %d meses", MinDurationMonths, MaxDurationMonths)
		}

	case "dataInicio":
		if strings.TrimSpace(value) == "" {
			return "Este campo é obrigatório"
		}
		selected, err := time.Parse("2006-01-02", value)
		if err != nil {
			return "Data inválida"
		}
		day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
		if selected.Before(day) {
			return "A data não pode ser no passado"
		}

	default:
		if requiredVehicleSpecs[field] && strings.TrimSpace(value) == "" {
			return "Este campo é obrigatório"
		}
	}

	return ""
}
