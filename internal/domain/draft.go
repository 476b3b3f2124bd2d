package domain

import "github.com/google/uuid"

// =============================================================================
// Draft Types
// =============================================================================

// ClientDraft holds the client section of the request form. All values
// stay string-typed until the submission persists them.
//
// JSON tags match the field identifiers used by the form UI, the
// validation engine and the error map.
type ClientDraft struct {
	CompanyName  string `json:"nomeEmpresa"`
	TaxID        string `json:"nif"` // business key
	Province     string `json:"provincia"`
	Address      string `json:"morada"`
	ContactName  string `json:"responsavelNome"`
	ContactRole  string `json:"responsavelCargo"`
	ContactEmail string `json:"responsavelEmail"`
	ContactPhone string `json:"responsavelTelefone"`
	CompanyEmail string `json:"emailEmpresa"` // optional
}

// VehicleDraft holds one vehicle's technical and contractual fields.
// The ID is assigned when the vehicle is added to the draft and keys
// the error map; it never reaches the persistence layer.
type VehicleDraft struct {
	ID             uuid.UUID `json:"id"`
	Make           string    `json:"marca"`
	Model          string    `json:"modelo"` // valid only relative to Make
	VIN            string    `json:"vin"`    // business key, 17 chars
	Plate          string    `json:"matricula"`
	Year           string    `json:"anoFabrico"`
	Odometer       string    `json:"quilometragem"`
	OperationType  string    `json:"tipoOperacao"`
	MonthlyKm      string    `json:"kmMensal"`
	DurationMonths string    `json:"duracaoMeses"`
	TotalKm        string    `json:"quilometragemTotal"`
	TotalKmAuto    bool      `json:"quilometragemTotalAuto,omitempty"`
	StartDate      string    `json:"dataInicio"` // YYYY-MM-DD
	Notes          string    `json:"observacoes"`
}

// Draft is the in-memory, not-yet-persisted form state: one client and
// an ordered list of vehicles.
type Draft struct {
	Client   ClientDraft    `json:"client"`
	Vehicles []VehicleDraft `json:"vehicles"`
}

// NewVehicleDraft returns an empty vehicle with a fresh stable ID.
func NewVehicleDraft() VehicleDraft {
	return VehicleDraft{ID: uuid.New()}
}

// NewDraft returns an empty draft seeded with one blank vehicle.
func NewDraft() *Draft {
	return &Draft{Vehicles: []VehicleDraft{NewVehicleDraft()}}
}

// Clone deep-copies the draft so a submission can work from a snapshot
// while the controller keeps accepting edits.
func (d *Draft) Clone() *Draft {
	out := &Draft{Client: d.Client}
	out.Vehicles = make([]VehicleDraft, len(d.Vehicles))
	copy(out.Vehicles, d.Vehicles)
	return out
}

// =============================================================================
// Field Access by Identifier
// =============================================================================

// ClientFields lists the client field identifiers in form order.
var ClientFields = []string{
	"nomeEmpresa", "nif", "provincia", "morada",
	"responsavelNome", "responsavelCargo", "responsavelEmail",
	"responsavelTelefone", "emailEmpresa",
}

// Field returns the value of the named client field, or "" for an
// unknown name.
func (c *ClientDraft) Field(name string) string {
	switch name {
	case "nomeEmpresa":
		return c.CompanyName
	case "nif":
		return c.TaxID
	case "provincia":
		return c.Province
	case "morada":
		return c.Address
	case "responsavelNome":
		return c.ContactName
	case "responsavelCargo":
		return c.ContactRole
	case "responsavelEmail":
		return c.ContactEmail
	case "responsavelTelefone":
		return c.ContactPhone
	case "emailEmpresa":
		return c.CompanyEmail
	}
	return ""
}

// SetField sets the named client field. Unknown names are ignored.
func (c *ClientDraft) SetField(name, value string) {
	switch name {
	case "nomeEmpresa":
		c.CompanyName = value
	case "nif":
		c.TaxID = value
	case "provincia":
		c.Province = value
	case "morada":
		c.Address = value
	case "responsavelNome":
		c.ContactName = value
	case "responsavelCargo":
		c.ContactRole = value
	case "responsavelEmail":
		c.ContactEmail = value
	case "responsavelTelefone":
		c.ContactPhone = value
	case "emailEmpresa":
		c.CompanyEmail = value
	}
}

// VehicleFields lists the vehicle field identifiers in form order.
// The stable ID is not a field; "observacoes" is last and never
// validated.
var VehicleFields = []string{
	"marca", "modelo", "vin", "matricula", "anoFabrico",
	"quilometragem", "tipoOperacao", "kmMensal",
	"duracaoMeses", "quilometragemTotal", "dataInicio", "observacoes",
}

// Field returns the value of the named vehicle field, or "" for an
// unknown name.
func (v *VehicleDraft) Field(name string) string {
	switch name {
	case "marca":
		return v.Make
	case "modelo":
		return v.Model
	case "vin":
		return v.VIN
	case "matricula":
		return v.Plate
	case "anoFabrico":
		return v.Year
	case "quilometragem":
		return v.Odometer
	case "tipoOperacao":
		return v.OperationType
	case "kmMensal":
		return v.MonthlyKm
	case "duracaoMeses":
		return v.DurationMonths
	case "quilometragemTotal":
		return v.TotalKm
	case "dataInicio":
		return v.StartDate
	case "observacoes":
		return v.Notes
	}
	return ""
}

// SetField sets the named vehicle field. Unknown names are ignored.
func (v *VehicleDraft) SetField(name, value string) {
	switch name {
	case "marca":
		v.Make = value
	case "modelo":
		v.Model = value
	case "vin":
		v.VIN = value
	case "matricula":
		v.Plate = value
	case "anoFabrico":
		v.Year = value
	case "quilometragem":
		v.Odometer = value
	case "tipoOperacao":
		v.OperationType = value
	case "kmMensal":
		v.MonthlyKm = value
	case "duracaoMeses":
		v.DurationMonths = value
	case "quilometragemTotal":
		v.TotalKm = value
	case "dataInicio":
		v.StartDate = value
	case "observacoes":
		v.Notes = value
	}
}
