// Package form owns the contract request draft: field edits, the
// field-path error map, full-form validation and the hand-off to the
// submission service.
package form

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/norsao/frotaportal/internal/domain"
	"github.com/norsao/frotaportal/internal/validate"
)

// Submitter turns a validated draft snapshot into persisted entities.
// Implemented by service.SubmissionService.
type Submitter interface {
	Submit(ctx context.Context, draft *domain.Draft, tipo domain.ContractType) (*domain.SubmitResult, error)
}

// Controller owns one form instance: the current draft and its error
// map. Error map keys are bare client field names, or
// "<vehicleID>.<field>" for vehicle fields. Keying by the vehicle's
// stable ID instead of its list position means removing or reordering
// vehicles never rewrites keys.
type Controller struct {
	mu       sync.Mutex
	draft    *domain.Draft
	errors   map[string]string
	inFlight map[domain.ContractType]bool

	submitter Submitter
	logger    *slog.Logger
	now       func() time.Time
}

// New creates a controller with an empty draft holding one blank
// vehicle.
func New(submitter Submitter, logger *slog.Logger) *Controller {
	return &Controller{
		draft:     domain.NewDraft(),
		errors:    make(map[string]string),
		inFlight:  make(map[domain.ContractType]bool),
		submitter: submitter,
		logger:    logger,
		now:       time.Now,
	}
}

// vehicleErrorKey builds the error map key for one vehicle field.
func vehicleErrorKey(id uuid.UUID, field string) string {
	return id.String() + "." + field
}

// =============================================================================
// Client Fields
// =============================================================================

// SetClientField updates a client field. An existing error for the
// field is cleared as soon as the new value validates; errors are never
// added on change, only on blur or full validation.
func (c *Controller) SetClientField(name, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.draft.Client.SetField(name, value)
	if _, ok := c.errors[name]; ok {
		if validate.ClientField(name, value) == "" {
			delete(c.errors, name)
		}
	}
}

// BlurClientField validates a client field in place and records or
// clears its error map entry, touching no other entry.
func (c *Controller) BlurClientField(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	msg := validate.ClientField(name, c.draft.Client.Field(name))
	if msg != "" {
		c.errors[name] = msg
	} else {
		delete(c.errors, name)
	}
}

// =============================================================================
// Vehicles
// =============================================================================

// AddVehicle appends a blank vehicle and returns its stable ID.
func (c *Controller) AddVehicle() uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := domain.NewVehicleDraft()
	c.draft.Vehicles = append(c.draft.Vehicles, v)
	return v.ID
}

// RemoveVehicle deletes a vehicle and purges every error map entry
// scoped to it. The last remaining vehicle cannot be removed. Returns
// false if the vehicle was not found or was the last one.
func (c *Controller) RemoveVehicle(id uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.draft.Vehicles) <= 1 {
		return false
	}

	idx := c.vehicleIndex(id)
	if idx < 0 {
		return false
	}
	c.draft.Vehicles = append(c.draft.Vehicles[:idx], c.draft.Vehicles[idx+1:]...)

	prefix := id.String() + "."
	for key := range c.errors {
		if strings.HasPrefix(key, prefix) {
			delete(c.errors, key)
		}
	}
	return true
}

// SetVehicleField updates one vehicle field and applies the two
// cross-field effects:
//
//   - editing the make clears the dependent model selection (and its
//     error), since the model list is a function of the make;
//   - editing the duration pushes the derived total contracted
//     distance, overwriting whatever was there. Editing the total
//     distance directly marks it user-overridden; it is only ever
//     overwritten again by another duration edit.
func (c *Controller) SetVehicleField(id uuid.UUID, field, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.vehicleIndex(id)
	if idx < 0 {
		return
	}
	v := &c.draft.Vehicles[idx]

	v.SetField(field, value)
	switch field {
	case "marca":
		v.Model = ""
		delete(c.errors, vehicleErrorKey(id, "modelo"))
	case "duracaoMeses":
		v.TotalKm = domain.EstimatedTotalKm(value)
		v.TotalKmAuto = true
	case "quilometragemTotal":
		v.TotalKmAuto = false
	}

	key := vehicleErrorKey(id, field)
	if _, ok := c.errors[key]; ok {
		if validate.VehicleField(field, value, c.now()) == "" {
			delete(c.errors, key)
		}
	}
}

// BlurVehicleField validates one vehicle field and records or clears
// its error map entry.
func (c *Controller) BlurVehicleField(id uuid.UUID, field string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.vehicleIndex(id)
	if idx < 0 {
		return
	}

	msg := validate.VehicleField(field, c.draft.Vehicles[idx].Field(field), c.now())
	key := vehicleErrorKey(id, field)
	if msg != "" {
		c.errors[key] = msg
	} else {
		delete(c.errors, key)
	}
}

// vehicleIndex returns the current position of a vehicle, -1 if absent.
// Callers hold c.mu.
func (c *Controller) vehicleIndex(id uuid.UUID) int {
	for i := range c.draft.Vehicles {
		if c.draft.Vehicles[i].ID == id {
			return i
		}
	}
	return -1
}

// =============================================================================
// Full-Form Validation
// =============================================================================

// ValidateAll revalidates every client field and every vehicle field
// (except notes), replacing the error map wholesale. It returns the
// validity flag and, when invalid, the ID of the first vehicle in list
// order carrying an error, for the UI to expand and scroll to.
func (c *Controller) ValidateAll() (bool, uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.validateAllLocked()
}

func (c *Controller) validateAllLocked() (bool, uuid.UUID) {
	errs := make(map[string]string)
	valid := true
	firstInvalid := uuid.Nil
	today := c.now()

	for _, name := range domain.ClientFields {
		if msg := validate.ClientField(name, c.draft.Client.Field(name)); msg != "" {
			errs[name] = msg
			valid = false
		}
	}

	for i := range c.draft.Vehicles {
		v := &c.draft.Vehicles[i]
		for _, field := range domain.VehicleFields {
			if field == "observacoes" {
				continue
			}
			if msg := validate.VehicleField(field, v.Field(field), today); msg != "" {
				errs[vehicleErrorKey(v.ID, field)] = msg
				valid = false
				if firstInvalid == uuid.Nil {
					firstInvalid = v.ID
				}
			}
		}
	}

	c.errors = errs
	return valid, firstInvalid
}

// Errors returns a copy of the current error map.
func (c *Controller) Errors() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]string, len(c.errors))
	for k, v := range c.errors {
		out[k] = v
	}
	return out
}

// =============================================================================
// Snapshot / Reset
// =============================================================================

// Snapshot deep-copies the current draft. Submissions and exports work
// from a snapshot so the persisted or exported data reflects the draft
// at the moment of invocation, regardless of later edits.
func (c *Controller) Snapshot() *domain.Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft.Clone()
}

// ReplaceDraft swaps in an externally assembled draft (e.g. decoded
// from an API request), assigning stable IDs to vehicles lacking one.
func (c *Controller) ReplaceDraft(d *domain.Draft) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range d.Vehicles {
		if d.Vehicles[i].ID == uuid.Nil {
			d.Vehicles[i].ID = uuid.New()
		}
	}
	if len(d.Vehicles) == 0 {
		d.Vehicles = []domain.VehicleDraft{domain.NewVehicleDraft()}
	}
	c.draft = d
	c.errors = make(map[string]string)
}

// Reset clears the draft back to one blank vehicle and empties the
// error map.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}

func (c *Controller) resetLocked() {
	c.draft = domain.NewDraft()
	c.errors = make(map[string]string)
}

// =============================================================================
// Submission
// =============================================================================

// Submit validates the whole form and, if valid, runs the submission
// service against a snapshot of the draft. At most one submission per
// contract type may be in flight for this controller; a second call
// for the same type is rejected before reaching the service. The two
// contract types may be submitted concurrently.
//
// On validation failure a *domain.ValidationError carrying the field
// map is returned. On success the draft is reset.
func (c *Controller) Submit(ctx context.Context, tipo domain.ContractType) (*domain.SubmitResult, error) {
	const op = "form.submit"

	c.mu.Lock()
	if c.inFlight[tipo] {
		c.mu.Unlock()
		return nil, domain.Conflict(op, "já existe uma submissão "+tipo.String()+" em curso")
	}
	if valid, _ := c.validateAllLocked(); !valid {
		fields := make(map[string]string, len(c.errors))
		for k, v := range c.errors {
			fields[k] = v
		}
		c.mu.Unlock()
		return nil, domain.NewValidationError(op, fields)
	}
	c.inFlight[tipo] = true
	snapshot := c.draft.Clone()
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.inFlight, tipo)
		c.mu.Unlock()
	}()

	result, err := c.submitter.Submit(ctx, snapshot, tipo)
	if err != nil {
		return nil, err
	}

	if result.Success {
		c.mu.Lock()
		c.resetLocked()
		c.mu.Unlock()
		c.logger.Info("draft reset after submission",
			"tipo", tipo.String(),
			"numero_contrato", result.ContractNumber,
		)
	}

	return result, nil
}
