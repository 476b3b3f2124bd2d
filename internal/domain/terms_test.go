package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEstimatedTotalKm(t *testing.T) {
	tests := []struct {
		name     string
		duration string
		want     string
	}{
		{"twelve months is one annual allowance", "12", "80000"},
		{"twenty four months", "24", "160000"},
		{"six months rounds to half", "6", "40000"},
		{"one month", "1", "6667"},
		{"sixty months", "60", "400000"},
		{"empty duration", "", ""},
		{"zero duration", "0", ""},
		{"negative duration", "-3", ""},
		{"non-numeric duration", "abc", ""},
		{"decimal duration is not integer-like", "12.5", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EstimatedTotalKm(tt.duration))
		})
	}
}

func TestContractEndDate(t *testing.T) {
	tests := []struct {
		name   string
		start  string
		months int
		want   string
	}{
		{"six months", "2026-09-01", 6, "2027-03-01"},
		{"one year", "2026-01-15", 12, "2027-01-15"},
		{"crosses year end", "2026-11-30", 3, "2027-03-02"},
		{"month end normalizes forward", "2026-08-31", 1, "2026-10-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, err := ParseStartDate(tt.start)
			assert.NoError(t, err)
			got := ContractEndDate(start, tt.months)
			assert.Equal(t, tt.want, got.Format(StartDateLayout))
		})
	}
}

func TestModelsForMake(t *testing.T) {
	assert.Contains(t, ModelsForMake("Volvo"), "Volvo FMX 440")
	assert.Contains(t, ModelsForMake("Dongfeng"), "Captan 125")
	assert.Empty(t, ModelsForMake(""))
	assert.Empty(t, ModelsForMake("Scania"))
}

func TestDraftClone(t *testing.T) {
	d := NewDraft()
	d.Client.CompanyName = "Transportes Kwanza"
	d.Vehicles[0].VIN = "YV2RT40A8EB123456"

	snap := d.Clone()
	d.Client.CompanyName = "changed"
	d.Vehicles[0].VIN = "changed"
	d.Vehicles = append(d.Vehicles, NewVehicleDraft())

	assert.Equal(t, "Transportes Kwanza", snap.Client.CompanyName)
	assert.Equal(t, "YV2RT40A8EB123456", snap.Vehicles[0].VIN)
	assert.Len(t, snap.Vehicles, 1)
}

func TestVehicleDraftFieldRoundTrip(t *testing.T) {
	v := NewVehicleDraft()
	for _, f := range VehicleFields {
		v.SetField(f, "x-"+f)
	}
	for _, f := range VehicleFields {
		assert.Equal(t, "x-"+f, v.Field(f), f)
	}
}

func TestClientDraftFieldRoundTrip(t *testing.T) {
	var c ClientDraft
	for _, f := range ClientFields {
		c.SetField(f, "x-"+f)
	}
	for _, f := range ClientFields {
		assert.Equal(t, "x-"+f, c.Field(f), f)
	}
}

func TestParseContractType(t *testing.T) {
	for _, raw := range []string{"CM", "APV"} {
		got, err := ParseContractType(raw)
		assert.NoError(t, err)
		assert.Equal(t, raw, got.String())
	}
	_, err := ParseContractType("cm")
	assert.Error(t, err)
	_, err = ParseContractType("")
	assert.Error(t, err)
}

func TestEndDateMatchesJSMonthArithmetic(t *testing.T) {
	// Duration differences among later vehicles never move the window;
	// only the first vehicle's term is used by the orchestrator, which
	// relies on this helper.
	start := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	end := ContractEndDate(start, 6)
	assert.Equal(t, time.Date(2027, 3, 3, 0, 0, 0, 0, time.UTC), end)
}
