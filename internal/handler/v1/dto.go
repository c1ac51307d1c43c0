package v1

import (
	"fmt"
	"time"

	"github.com/dmehra2102/prod-golang-projects/medix/internal/domain/patient"
)

const dateLayout = "2006-01-02"

type credentialsRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type diagnosisRequest struct {
	Disease     string  `json:"disease"`
	Condition   string  `json:"condition"`
	DiagnosisOn string  `json:"diagnosis_on"`
	Notes       *string `json:"notes"`
}

// createPatientRequest has no doctor_id: the owner always comes from the token.
type createPatientRequest struct {
	ID               string             `json:"id"`
	Name             string             `json:"name"`
	City             string             `json:"city"`
	Age              int                `json:"age"`
	Gender           string             `json:"gender"`
	Height           *float64           `json:"height"`
	Weight           *float64           `json:"weight"`
	DiagnosesHistory []diagnosisRequest `json:"diagnoses_history"`
}

func (r *createPatientRequest) toCommand() (*patient.CreatePatientCommand, []string) {
	diagnoses, errs := toDiagnosisInputs(r.DiagnosesHistory)
	return &patient.CreatePatientCommand{
		ID:               r.ID,
		Name:             r.Name,
		City:             r.City,
		Age:              r.Age,
		Gender:           patient.Gender(r.Gender),
		Height:           r.Height,
		Weight:           r.Weight,
		DiagnosesHistory: diagnoses,
	}, errs
}

type updatePatientRequest struct {
	Name             patient.Field[string]             `json:"name"`
	City             patient.Field[string]             `json:"city"`
	Age              patient.Field[int]                `json:"age"`
	Gender           patient.Field[patient.Gender]     `json:"gender"`
	Height           patient.Field[float64]            `json:"height"`
	Weight           patient.Field[float64]            `json:"weight"`
	DiagnosesHistory patient.Field[[]diagnosisRequest] `json:"diagnoses_history"`
}

func (r *updatePatientRequest) toCommand() (*patient.UpdatePatientCommand, []string) {
	cmd := &patient.UpdatePatientCommand{
		Name:   r.Name,
		City:   r.City,
		Age:    r.Age,
		Gender: r.Gender,
		Height: r.Height,
		Weight: r.Weight,
	}

	var errs []string
	if r.DiagnosesHistory.Set {
		if r.DiagnosesHistory.Value == nil {
			cmd.DiagnosesHistory = patient.Null[[]patient.DiagnosisInput]()
		} else {
			var inputs []patient.DiagnosisInput
			inputs, errs = toDiagnosisInputs(*r.DiagnosesHistory.Value)
			cmd.DiagnosesHistory = patient.Some(inputs)
		}
	}
	return cmd, errs
}

func toDiagnosisInputs(in []diagnosisRequest) ([]patient.DiagnosisInput, []string) {
	var errs []string
	out := make([]patient.DiagnosisInput, 0, len(in))
	for i, d := range in {
		on, err := parseDate(d.DiagnosisOn)
		if err != nil {
			errs = append(errs, fmt.Sprintf("diagnoses_history[%d].diagnosis_on must be a YYYY-MM-DD date", i))
		}
		out = append(out, patient.DiagnosisInput{
			Disease:     d.Disease,
			Condition:   d.Condition,
			DiagnosisOn: on,
			Notes:       d.Notes,
		})
	}
	return out, errs
}

// parseDate accepts a calendar date or a full RFC 3339 timestamp. An empty
// string yields the zero time, which the domain replaces with today.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return patient.DateOnly(t), nil
}

type diagnosisResponse struct {
	Disease     string  `json:"disease"`
	Condition   string  `json:"condition"`
	DiagnosisOn string  `json:"diagnosis_on"`
	Notes       *string `json:"notes"`
}

// PatientResponse is the wire shape of a patient. The derived fields are
// computed here, at serialization time, and are never stored.
type PatientResponse struct {
	ID                  string              `json:"id"`
	Name                string              `json:"name"`
	City                string              `json:"city"`
	Age                 int                 `json:"age"`
	Gender              patient.Gender      `json:"gender"`
	Height              *float64            `json:"height"`
	Weight              *float64            `json:"weight"`
	DoctorID            string              `json:"doctor_id"`
	DiagnosesHistory    []diagnosisResponse `json:"diagnoses_history"`
	BMI                 *float64            `json:"bmi"`
	Verdict             *patient.Verdict    `json:"verdict"`
	LatestCondition     *string             `json:"latest_condition"`
	LatestDiagnosisDate *string             `json:"latest_diagnosis_date"`
}

type SummaryResponse struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	City             string            `json:"city"`
	Age              int               `json:"age"`
	Gender           patient.Gender    `json:"gender"`
	DiagnosisDetails diagnosisResponse `json:"diagnosis_details"`
}

func newDiagnosisResponse(d patient.DiagnosisEntry) diagnosisResponse {
	return diagnosisResponse{
		Disease:     d.Disease,
		Condition:   d.Condition,
		DiagnosisOn: d.DiagnosisOn.UTC().Format(dateLayout),
		Notes:       d.Notes,
	}
}

func newPatientResponse(p *patient.Patient) PatientResponse {
	history := make([]diagnosisResponse, 0, len(p.DiagnosesHistory))
	for _, d := range p.DiagnosesHistory {
		history = append(history, newDiagnosisResponse(d))
	}

	var latestDate *string
	if t := p.LatestDiagnosisDate(); t != nil {
		s := t.UTC().Format(dateLayout)
		latestDate = &s
	}

	return PatientResponse{
		ID:                  p.ID,
		Name:                p.Name,
		City:                p.City,
		Age:                 p.Age,
		Gender:              p.Gender,
		Height:              p.Height,
		Weight:              p.Weight,
		DoctorID:            p.DoctorID,
		DiagnosesHistory:    history,
		BMI:                 p.BMI(),
		Verdict:             p.Verdict(),
		LatestCondition:     p.LatestCondition(),
		LatestDiagnosisDate: latestDate,
	}
}

func newPatientList(ps []*patient.Patient) []PatientResponse {
	out := make([]PatientResponse, 0, len(ps))
	for _, p := range ps {
		out = append(out, newPatientResponse(p))
	}
	return out
}

func newGroupResponse(groups map[string][]patient.Summary) map[string][]SummaryResponse {
	out := make(map[string][]SummaryResponse, len(groups))
	for key, rows := range groups {
		list := make([]SummaryResponse, 0, len(rows))
		for _, s := range rows {
			list = append(list, SummaryResponse{
				ID:               s.ID,
				Name:             s.Name,
				City:             s.City,
				Age:              s.Age,
				Gender:           s.Gender,
				DiagnosisDetails: newDiagnosisResponse(s.Diagnosis),
			})
		}
		out[key] = list
	}
	return out
}
