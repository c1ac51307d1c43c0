// Package postgres stores patients in a relational table with the diagnosis
// history kept as a jsonb array.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmehra2102/prod-golang-projects/medix/internal/domain/patient"
	"github.com/dmehra2102/prod-golang-projects/medix/pkg/metrics"
	"gorm.io/gorm"
)

// historyElements expands diagnoses_history, treating a stored JSON null as
// an empty array.
const historyElements = `jsonb_array_elements(CASE WHEN jsonb_typeof(patients.diagnoses_history) = 'array' THEN patients.diagnoses_history ELSE '[]'::jsonb END)`

var updatableColumns = []string{"name", "city", "age", "gender", "height", "weight", "diagnoses_history", "updated_at"}

type PatientRepository struct {
	db      *gorm.DB
	metrics *metrics.Collector
}

func NewPatientRepository(db *gorm.DB, m *metrics.Collector) *PatientRepository {
	return &PatientRepository{db: db, metrics: m}
}

func (r *PatientRepository) Create(ctx context.Context, p *patient.Patient) error {
	defer r.observe("insert", time.Now())

	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return patient.ErrPatientAlreadyExists
		}
		return fmt.Errorf("inserting patient: %w", err)
	}
	return nil
}

func (r *PatientRepository) GetByID(ctx context.Context, id string) (*patient.Patient, error) {
	defer r.observe("find_one", time.Now())

	var p patient.Patient
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, patient.ErrPatientNotFound
		}
		return nil, fmt.Errorf("finding patient: %w", err)
	}
	return &p, nil
}

func (r *PatientRepository) Exists(ctx context.Context, id string) (bool, error) {
	defer r.observe("count", time.Now())

	var n int64
	if err := r.db.WithContext(ctx).Model(&patient.Patient{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, fmt.Errorf("counting patients: %w", err)
	}
	return n > 0, nil
}

func (r *PatientRepository) ListByDoctor(ctx context.Context, doctorID string) ([]*patient.Patient, error) {
	return r.find(ctx, r.db.WithContext(ctx).Where("doctor_id = ?", doctorID))
}

func (r *PatientRepository) Update(ctx context.Context, p *patient.Patient) error {
	defer r.observe("update", time.Now())

	res := r.db.WithContext(ctx).
		Model(p).
		Where("doctor_id = ?", p.DoctorID).
		Select(updatableColumns).
		Updates(p)
	if res.Error != nil {
		return fmt.Errorf("updating patient: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return patient.ErrPatientNotFound
	}
	return nil
}

func (r *PatientRepository) Delete(ctx context.Context, doctorID, id string) error {
	defer r.observe("delete", time.Now())

	res := r.db.WithContext(ctx).Where("id = ? AND doctor_id = ?", id, doctorID).Delete(&patient.Patient{})
	if res.Error != nil {
		return fmt.Errorf("deleting patient: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return patient.ErrPatientNotFound
	}
	return nil
}

func (r *PatientRepository) Filter(ctx context.Context, doctorID string, q *patient.FilterQuery) ([]*patient.Patient, error) {
	clauses, err := filterClauses(doctorID, q)
	if err != nil {
		return nil, err
	}

	tx := r.db.WithContext(ctx)
	for _, c := range clauses {
		tx = tx.Where(c.SQL, c.Args...)
	}
	return r.find(ctx, tx)
}

type groupRow struct {
	GroupKey  string
	ID        string
	Name      string
	City      string
	Age       int
	Gender    string
	Diagnosis string
}

func (r *PatientRepository) GroupByDiagnosis(ctx context.Context, doctorID string, dim patient.GroupDimension) (map[string][]patient.Summary, error) {
	defer r.observe("group", time.Now())

	query, args := groupQuery(doctorID, dim)

	var rows []groupRow
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("grouping patients: %w", err)
	}

	groups := make(map[string][]patient.Summary)
	for _, row := range rows {
		var entry patient.DiagnosisEntry
		if err := json.Unmarshal([]byte(row.Diagnosis), &entry); err != nil {
			return nil, fmt.Errorf("decoding diagnosis of patient %s: %w", row.ID, err)
		}
		groups[row.GroupKey] = append(groups[row.GroupKey], patient.Summary{
			ID:        row.ID,
			Name:      row.Name,
			City:      row.City,
			Age:       row.Age,
			Gender:    patient.Gender(row.Gender),
			Diagnosis: entry,
		})
	}
	return groups, nil
}

func (r *PatientRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *PatientRepository) find(ctx context.Context, tx *gorm.DB) ([]*patient.Patient, error) {
	defer r.observe("find", time.Now())

	out := make([]*patient.Patient, 0)
	if err := tx.Order("created_at, id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("finding patients: %w", err)
	}
	return out, nil
}

func (r *PatientRepository) observe(op string, start time.Time) {
	r.metrics.ObserveStore(op, "patients", start)
}

// sqlClause is one WHERE condition with its bind arguments.
type sqlClause struct {
	SQL  string
	Args []any
}

// filterClauses matches each criterion against any element of the history
// independently, like the document store's dotted-path query.
func filterClauses(doctorID string, q *patient.FilterQuery) ([]sqlClause, error) {
	clauses := []sqlClause{{SQL: "patients.doctor_id = ?", Args: []any{doctorID}}}

	if q.DiseaseName != "" {
		clauses = append(clauses, sqlClause{
			SQL:  "EXISTS (SELECT 1 FROM " + historyElements + " AS d WHERE d->>'disease' ILIKE ?)",
			Args: []any{"%" + escapeLike(q.DiseaseName) + "%"},
		})
	}
	if q.Condition != "" {
		contains, err := json.Marshal([]map[string]string{{"condition": q.Condition}})
		if err != nil {
			return nil, fmt.Errorf("encoding condition filter: %w", err)
		}
		clauses = append(clauses, sqlClause{
			SQL:  "patients.diagnoses_history @> ?::jsonb",
			Args: []any{string(contains)},
		})
	}
	if q.DiagnosedSince != nil {
		clauses = append(clauses, sqlClause{
			SQL:  "EXISTS (SELECT 1 FROM " + historyElements + " AS d WHERE (d->>'diagnosis_on')::timestamptz >= ?)",
			Args: []any{*q.DiagnosedSince},
		})
	}

	return clauses, nil
}

// groupQuery emits one row per diagnosis entry, keyed by dim, in insertion
// order of patients and then of their history.
func groupQuery(doctorID string, dim patient.GroupDimension) (string, []any) {
	const query = `
		SELECT d.value->>?::text AS group_key,
		       patients.id, patients.name, patients.city, patients.age, patients.gender,
		       d.value::text AS diagnosis
		FROM patients
		CROSS JOIN LATERAL ` + historyElements + ` WITH ORDINALITY AS d(value, ord)
		WHERE patients.doctor_id = ?
		ORDER BY patients.created_at, patients.id, d.ord`

	return query, []any{string(dim), doctorID}
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
