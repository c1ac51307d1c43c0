package patient

import (
	"fmt"
	"strings"
	"time"
)

const (
	minAge = 0
	maxAge = 120
)

type DiagnosisInput struct {
	Disease     string
	Condition   string
	DiagnosisOn time.Time // zero means "today"
	Notes       *string
}

type CreatePatientCommand struct {
	ID               string
	Name             string
	City             string
	Age              int
	Gender           Gender
	Height           *float64
	Weight           *float64
	DiagnosesHistory []DiagnosisInput
}

// Validate returns one message per violated field constraint.
func (c *CreatePatientCommand) Validate() []string {
	var errs []string

	if strings.TrimSpace(c.ID) == "" {
		errs = append(errs, "id is required")
	}
	if strings.TrimSpace(c.Name) == "" {
		errs = append(errs, "name is required")
	}
	if strings.TrimSpace(c.City) == "" {
		errs = append(errs, "city is required")
	}
	errs = append(errs, validateAge(c.Age)...)
	if !c.Gender.IsValid() {
		errs = append(errs, "gender must be one of male, female, others")
	}
	errs = append(errs, validateMeasure("height", c.Height)...)
	errs = append(errs, validateMeasure("weight", c.Weight)...)
	errs = append(errs, validateDiagnoses(c.DiagnosesHistory)...)

	return errs
}

// NewPatient builds the record to persist. Caller-supplied values are kept
// exactly as given; doctorID always comes from the authenticated caller.
func (c *CreatePatientCommand) NewPatient(doctorID string, now time.Time) *Patient {
	p := &Patient{
		ID:               c.ID,
		Name:             c.Name,
		City:             c.City,
		Age:              c.Age,
		Gender:           c.Gender,
		Height:           c.Height,
		Weight:           c.Weight,
		DoctorID:         doctorID,
		DiagnosesHistory: buildDiagnoses(c.DiagnosesHistory, now),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	return p.Clone()
}

// UpdatePatientCommand lists only the fields a caller may change. The owner
// and the id are not part of it.
type UpdatePatientCommand struct {
	Name             Field[string]
	City             Field[string]
	Age              Field[int]
	Gender           Field[Gender]
	Height           Field[float64]
	Weight           Field[float64]
	DiagnosesHistory Field[[]DiagnosisInput]
}

func (c *UpdatePatientCommand) IsEmpty() bool {
	return !c.Name.Set && !c.City.Set && !c.Age.Set && !c.Gender.Set &&
		!c.Height.Set && !c.Weight.Set && !c.DiagnosesHistory.Set
}

func (c *UpdatePatientCommand) Validate() []string {
	var errs []string

	if c.Name.IsNull() || (c.Name.Value != nil && strings.TrimSpace(*c.Name.Value) == "") {
		errs = append(errs, "name cannot be empty")
	}
	if c.City.IsNull() || (c.City.Value != nil && strings.TrimSpace(*c.City.Value) == "") {
		errs = append(errs, "city cannot be empty")
	}
	if c.Age.IsNull() {
		errs = append(errs, "age cannot be null")
	} else if c.Age.Value != nil {
		errs = append(errs, validateAge(*c.Age.Value)...)
	}
	if c.Gender.IsNull() || (c.Gender.Value != nil && !c.Gender.Value.IsValid()) {
		errs = append(errs, "gender must be one of male, female, others")
	}
	if c.Height.Value != nil {
		errs = append(errs, validateMeasure("height", c.Height.Value)...)
	}
	if c.Weight.Value != nil {
		errs = append(errs, validateMeasure("weight", c.Weight.Value)...)
	}
	if c.DiagnosesHistory.Value != nil {
		errs = append(errs, validateDiagnoses(*c.DiagnosesHistory.Value)...)
	}

	return errs
}

// Apply merges the supplied fields into a copy of p. Fields that were not
// supplied keep their previous value; height and weight may be cleared with
// an explicit null, and a null history empties it.
func (c *UpdatePatientCommand) Apply(p *Patient, now time.Time) *Patient {
	out := p.Clone()

	if c.Name.Value != nil {
		out.Name = *c.Name.Value
	}
	if c.City.Value != nil {
		out.City = *c.City.Value
	}
	if c.Age.Value != nil {
		out.Age = *c.Age.Value
	}
	if c.Gender.Value != nil {
		out.Gender = *c.Gender.Value
	}
	if c.Height.Set {
		out.Height = copyFloat(c.Height.Value)
	}
	if c.Weight.Set {
		out.Weight = copyFloat(c.Weight.Value)
	}
	if c.DiagnosesHistory.Set {
		var in []DiagnosisInput
		if c.DiagnosesHistory.Value != nil {
			in = *c.DiagnosesHistory.Value
		}
		out.DiagnosesHistory = buildDiagnoses(in, now)
	}

	if !c.IsEmpty() {
		out.UpdatedAt = now
	}
	return out
}

func validateAge(age int) []string {
	if age <= minAge || age >= maxAge {
		return []string{fmt.Sprintf("age must be greater than %d and less than %d", minAge, maxAge)}
	}
	return nil
}

func validateMeasure(name string, v *float64) []string {
	if v != nil && *v <= 0 {
		return []string{name + " must be greater than 0"}
	}
	return nil
}

func validateDiagnoses(in []DiagnosisInput) []string {
	var errs []string
	for i, d := range in {
		if strings.TrimSpace(d.Disease) == "" {
			errs = append(errs, fmt.Sprintf("diagnoses_history[%d].disease is required", i))
		}
		if strings.TrimSpace(d.Condition) == "" {
			errs = append(errs, fmt.Sprintf("diagnoses_history[%d].condition is required", i))
		}
	}
	return errs
}

func buildDiagnoses(in []DiagnosisInput, now time.Time) []DiagnosisEntry {
	out := make([]DiagnosisEntry, 0, len(in))
	for _, d := range in {
		on := d.DiagnosisOn
		if on.IsZero() {
			on = now
		}
		out = append(out, DiagnosisEntry{
			Disease:     d.Disease,
			Condition:   d.Condition,
			DiagnosisOn: DateOnly(on),
			Notes:       d.Notes,
		})
	}
	return out
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	f := *v
	return &f
}
