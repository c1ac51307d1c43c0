package patient

import (
	"math"
	"time"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOthers Gender = "others"
)

func (g Gender) IsValid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOthers:
		return true
	}
	return false
}

// Verdict is the weight status derived from BMI.
type Verdict string

const (
	VerdictUnderweight Verdict = "Underweight"
	VerdictNormal      Verdict = "Normal"
	VerdictOverweight  Verdict = "Overweight"
	VerdictObese       Verdict = "Obese"
)

// DiagnosisEntry is one item of a patient's diagnosis history.
// DiagnosisOn is a calendar date stored as UTC midnight.
type DiagnosisEntry struct {
	Disease     string    `json:"disease" bson:"disease"`
	Condition   string    `json:"condition" bson:"condition"`
	DiagnosisOn time.Time `json:"diagnosis_on" bson:"diagnosis_on"`
	Notes       *string   `json:"notes,omitempty" bson:"notes,omitempty"`
}

type Patient struct {
	ID     string   `bson:"_id" gorm:"column:id;type:varchar(64);primaryKey"`
	Name   string   `bson:"name" gorm:"column:name;type:varchar(200);not null"`
	City   string   `bson:"city" gorm:"column:city;type:varchar(100);not null"`
	Age    int      `bson:"age" gorm:"column:age;not null"`
	Gender Gender   `bson:"gender" gorm:"column:gender;type:varchar(10);not null"`
	Height *float64 `bson:"height" gorm:"column:height"` // meters
	Weight *float64 `bson:"weight" gorm:"column:weight"` // kilograms

	// Owning doctor's username. Set by the service on create and never changed.
	DoctorID string `bson:"doctor_id" gorm:"column:doctor_id;type:varchar(150);not null;index"`

	DiagnosesHistory []DiagnosisEntry `bson:"diagnoses_history" gorm:"column:diagnoses_history;type:jsonb;serializer:json"`

	CreatedAt time.Time `bson:"created_at" gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `bson:"updated_at" gorm:"autoUpdateTime"`
}

func (Patient) TableName() string {
	return "patients"
}

// OwnedBy reports whether doctorID is the owner of the record.
func (p *Patient) OwnedBy(doctorID string) bool {
	return p.DoctorID == doctorID
}

func (p *Patient) BMI() *float64 {
	return BMI(p.Height, p.Weight)
}

func (p *Patient) Verdict() *Verdict {
	return VerdictFor(p.BMI())
}

// LatestDiagnosis returns the entry with the greatest DiagnosisOn, or nil
// when the history is empty. On ties the earliest such entry wins.
func (p *Patient) LatestDiagnosis() *DiagnosisEntry {
	var latest *DiagnosisEntry
	for i := range p.DiagnosesHistory {
		d := &p.DiagnosesHistory[i]
		if latest == nil || d.DiagnosisOn.After(latest.DiagnosisOn) {
			latest = d
		}
	}
	return latest
}

func (p *Patient) LatestCondition() *string {
	if d := p.LatestDiagnosis(); d != nil {
		c := d.Condition
		return &c
	}
	return nil
}

func (p *Patient) LatestDiagnosisDate() *time.Time {
	if d := p.LatestDiagnosis(); d != nil {
		t := d.DiagnosisOn
		return &t
	}
	return nil
}

// Clone returns a deep copy so callers can mutate the result freely.
func (p *Patient) Clone() *Patient {
	c := *p
	if p.Height != nil {
		h := *p.Height
		c.Height = &h
	}
	if p.Weight != nil {
		w := *p.Weight
		c.Weight = &w
	}
	if p.DiagnosesHistory != nil {
		c.DiagnosesHistory = make([]DiagnosisEntry, len(p.DiagnosesHistory))
		for i, d := range p.DiagnosesHistory {
			if d.Notes != nil {
				n := *d.Notes
				d.Notes = &n
			}
			c.DiagnosesHistory[i] = d
		}
	}
	return &c
}

// BMI is weight / height² rounded to two decimals. It is nil when either
// input is missing or zero.
func BMI(height, weight *float64) *float64 {
	if height == nil || weight == nil || *height == 0 || *weight == 0 {
		return nil
	}
	v := math.Round(*weight/(*height**height)*100) / 100
	return &v
}

func VerdictFor(bmi *float64) *Verdict {
	if bmi == nil {
		return nil
	}
	var v Verdict
	switch b := *bmi; {
	case b < 18.5:
		v = VerdictUnderweight
	case b < 25:
		v = VerdictNormal
	case b < 30:
		v = VerdictOverweight
	default:
		v = VerdictObese
	}
	return &v
}

// Summary is one row of a diagnosis grouping: the patient's identifying
// fields plus the single diagnosis entry that placed it in the group.
type Summary struct {
	ID        string         `bson:"id"`
	Name      string         `bson:"name"`
	City      string         `bson:"city"`
	Age       int            `bson:"age"`
	Gender    Gender         `bson:"gender"`
	Diagnosis DiagnosisEntry `bson:"diagnosis_details"`
}

// DateOnly truncates t to midnight UTC of its calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
