// Package memory keeps doctors and patients in process memory. It backs the
// "memory" store driver and the service and handler tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dmehra2102/prod-golang-projects/medix/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/medix/internal/domain/patient"
)

type DoctorRepository struct {
	mu      sync.RWMutex
	doctors map[string]domain.Doctor
}

func NewDoctorRepository() *DoctorRepository {
	return &DoctorRepository{doctors: make(map[string]domain.Doctor)}
}

func (r *DoctorRepository) Create(_ context.Context, d *domain.Doctor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.doctors[d.Username]; ok {
		return domain.ErrDoctorAlreadyExists
	}
	stored := *d
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	r.doctors[d.Username] = stored
	return nil
}

func (r *DoctorRepository) GetByUsername(_ context.Context, username string) (*domain.Doctor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.doctors[username]
	if !ok {
		return nil, domain.ErrDoctorNotFound
	}
	return &d, nil
}

// PatientRepository preserves insertion order, which is its native order.
type PatientRepository struct {
	mu       sync.RWMutex
	order    []string
	patients map[string]*patient.Patient
}

func NewPatientRepository() *PatientRepository {
	return &PatientRepository{patients: make(map[string]*patient.Patient)}
}

func (r *PatientRepository) Create(_ context.Context, p *patient.Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.patients[p.ID]; ok {
		return patient.ErrPatientAlreadyExists
	}
	r.patients[p.ID] = p.Clone()
	r.order = append(r.order, p.ID)
	return nil
}

func (r *PatientRepository) GetByID(_ context.Context, id string) (*patient.Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.patients[id]
	if !ok {
		return nil, patient.ErrPatientNotFound
	}
	return p.Clone(), nil
}

func (r *PatientRepository) Exists(_ context.Context, id string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.patients[id]
	return ok, nil
}

func (r *PatientRepository) ListByDoctor(_ context.Context, doctorID string) ([]*patient.Patient, error) {
	return r.collect(doctorID, nil), nil
}

func (r *PatientRepository) Update(_ context.Context, p *patient.Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.patients[p.ID]
	if !ok || cur.DoctorID != p.DoctorID {
		return patient.ErrPatientNotFound
	}
	r.patients[p.ID] = p.Clone()
	return nil
}

func (r *PatientRepository) Delete(_ context.Context, doctorID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.patients[id]
	if !ok || cur.DoctorID != doctorID {
		return patient.ErrPatientNotFound
	}
	delete(r.patients, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *PatientRepository) Filter(_ context.Context, doctorID string, q *patient.FilterQuery) ([]*patient.Patient, error) {
	return r.collect(doctorID, q.Matches), nil
}

func (r *PatientRepository) GroupByDiagnosis(_ context.Context, doctorID string, dim patient.GroupDimension) (map[string][]patient.Summary, error) {
	return patient.GroupByDiagnosis(r.collect(doctorID, nil), dim), nil
}

func (r *PatientRepository) Ping(context.Context) error {
	return nil
}

func (r *PatientRepository) collect(doctorID string, keep func(*patient.Patient) bool) []*patient.Patient {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*patient.Patient, 0)
	for _, id := range r.order {
		p := r.patients[id]
		if p.DoctorID != doctorID {
			continue
		}
		if keep != nil && !keep(p) {
			continue
		}
		out = append(out, p.Clone())
	}
	return out
}
