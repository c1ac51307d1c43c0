package patient

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCreate() *CreatePatientCommand {
	return &CreatePatientCommand{
		ID:     "P001",
		Name:   "Ananya Verma",
		City:   "Guwahati",
		Age:    28,
		Gender: GenderFemale,
		Height: ptr(1.65),
		Weight: ptr(90.0),
	}
}

func TestCreatePatientCommand_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *CreatePatientCommand)
		wantErr string
	}{
		{"valid", func(*CreatePatientCommand) {}, ""},
		{"missing id", func(c *CreatePatientCommand) { c.ID = " " }, "id is required"},
		{"missing name", func(c *CreatePatientCommand) { c.Name = "" }, "name is required"},
		{"missing city", func(c *CreatePatientCommand) { c.City = "" }, "city is required"},
		{"age zero", func(c *CreatePatientCommand) { c.Age = 0 }, "age must be greater than 0 and less than 120"},
		{"age 120", func(c *CreatePatientCommand) { c.Age = 120 }, "age must be greater than 0 and less than 120"},
		{"bad gender", func(c *CreatePatientCommand) { c.Gender = "unknown" }, "gender must be one of male, female, others"},
		{"zero height", func(c *CreatePatientCommand) { c.Height = ptr(0.0) }, "height must be greater than 0"},
		{"negative weight", func(c *CreatePatientCommand) { c.Weight = ptr(-3.0) }, "weight must be greater than 0"},
		{"diagnosis without disease", func(c *CreatePatientCommand) {
			c.DiagnosesHistory = []DiagnosisInput{{Condition: "mild"}}
		}, "diagnoses_history[0].disease is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validCreate()
			tt.mutate(c)
			errs := c.Validate()
			if tt.wantErr == "" {
				assert.Empty(t, errs)
				return
			}
			assert.Contains(t, errs, tt.wantErr)
		})
	}
}

func TestCreatePatientCommand_Validate_OptionalMeasures(t *testing.T) {
	c := validCreate()
	c.Height, c.Weight = nil, nil
	assert.Empty(t, c.Validate())
}

func TestCreatePatientCommand_NewPatient(t *testing.T) {
	now := time.Date(2024, 6, 15, 13, 45, 0, 0, time.UTC)
	c := validCreate()
	c.DiagnosesHistory = []DiagnosisInput{
		{Disease: " flu ", Condition: "mild"},
		{Disease: "asthma", Condition: "chronic", DiagnosisOn: day("2023-02-01")},
	}

	p := c.NewPatient("dr_house", now)

	assert.Equal(t, "dr_house", p.DoctorID)
	assert.Equal(t, now, p.CreatedAt)
	require.Len(t, p.DiagnosesHistory, 2)
	assert.Equal(t, " flu ", p.DiagnosesHistory[0].Disease, "values are stored as supplied")
	assert.Equal(t, day("2024-06-15"), p.DiagnosesHistory[0].DiagnosisOn)
	assert.Equal(t, day("2023-02-01"), p.DiagnosesHistory[1].DiagnosisOn)

	*c.Height = 3
	assert.Equal(t, 1.65, *p.Height, "patient must not alias command input")
}

func TestUpdatePatientCommand_Apply(t *testing.T) {
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	base := validCreate().NewPatient("dr_house", now.Add(-time.Hour))
	base.DiagnosesHistory = []DiagnosisEntry{{Disease: "flu", Condition: "mild", DiagnosisOn: day("2024-01-01")}}

	t.Run("only supplied fields change", func(t *testing.T) {
		cmd := &UpdatePatientCommand{City: Some(" Delhi "), Age: Some(30)}
		out := cmd.Apply(base, now)

		assert.Equal(t, " Delhi ", out.City)
		assert.Equal(t, 30, out.Age)
		assert.Equal(t, base.Name, out.Name)
		assert.Equal(t, base.Height, out.Height)
		assert.Equal(t, base.DiagnosesHistory, out.DiagnosesHistory)
		assert.Equal(t, now, out.UpdatedAt)
		assert.Equal(t, "Guwahati", base.City, "input is not mutated")
	})

	t.Run("null clears height and weight", func(t *testing.T) {
		cmd := &UpdatePatientCommand{Height: Null[float64](), Weight: Null[float64]()}
		out := cmd.Apply(base, now)

		assert.Nil(t, out.Height)
		assert.Nil(t, out.Weight)
		assert.Nil(t, out.BMI())
		assert.Nil(t, out.Verdict())
	})

	t.Run("history is replaced wholesale", func(t *testing.T) {
		cmd := &UpdatePatientCommand{DiagnosesHistory: Some([]DiagnosisInput{{Disease: "cold", Condition: "acute"}})}
		out := cmd.Apply(base, now)

		require.Len(t, out.DiagnosesHistory, 1)
		assert.Equal(t, "cold", out.DiagnosesHistory[0].Disease)
		assert.Equal(t, now, out.DiagnosesHistory[0].DiagnosisOn)
	})

	t.Run("null history empties it", func(t *testing.T) {
		cmd := &UpdatePatientCommand{DiagnosesHistory: Null[[]DiagnosisInput]()}
		out := cmd.Apply(base, now)
		assert.Empty(t, out.DiagnosesHistory)
	})

	t.Run("empty command keeps timestamps", func(t *testing.T) {
		cmd := &UpdatePatientCommand{}
		assert.True(t, cmd.IsEmpty())
		out := cmd.Apply(base, now)
		assert.Equal(t, base.UpdatedAt, out.UpdatedAt)
	})
}

func TestUpdatePatientCommand_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cmd     UpdatePatientCommand
		wantErr string
	}{
		{"empty is valid", UpdatePatientCommand{}, ""},
		{"null name", UpdatePatientCommand{Name: Null[string]()}, "name cannot be empty"},
		{"blank city", UpdatePatientCommand{City: Some("  ")}, "city cannot be empty"},
		{"null age", UpdatePatientCommand{Age: Null[int]()}, "age cannot be null"},
		{"age out of range", UpdatePatientCommand{Age: Some(150)}, "age must be greater than 0 and less than 120"},
		{"bad gender", UpdatePatientCommand{Gender: Some(Gender("x"))}, "gender must be one of male, female, others"},
		{"null height allowed", UpdatePatientCommand{Height: Null[float64]()}, ""},
		{"negative height", UpdatePatientCommand{Height: Some(-1.0)}, "height must be greater than 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := tt.cmd.Validate()
			if tt.wantErr == "" {
				assert.Empty(t, errs)
				return
			}
			assert.Contains(t, errs, tt.wantErr)
		})
	}
}

func TestField_UnmarshalJSON(t *testing.T) {
	var body struct {
		Name   Field[string]  `json:"name"`
		Height Field[float64] `json:"height"`
		Age    Field[int]     `json:"age"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Ravi","height":null}`), &body))

	assert.True(t, body.Name.Set)
	assert.Equal(t, "Ravi", *body.Name.Value)
	assert.True(t, body.Height.IsNull())
	assert.False(t, body.Age.Set)

	require.Error(t, json.Unmarshal([]byte(`{"age":"old"}`), &body))
}
