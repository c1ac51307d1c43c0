package patient

import "context"

type Repository interface {
	// Create persists a new patient. Returns ErrPatientAlreadyExists on a duplicate ID.
	Create(ctx context.Context, p *Patient) error

	// GetByID retrieves a patient by ID regardless of owner. Returns ErrPatientNotFound if absent.
	GetByID(ctx context.Context, id string) (*Patient, error)

	// Exists checks for an ID without fetching the document.
	Exists(ctx context.Context, id string) (bool, error)

	// ListByDoctor returns the doctor's patients in store-native order.
	ListByDoctor(ctx context.Context, doctorID string) ([]*Patient, error)

	// Update replaces the stored document of p.ID owned by p.DoctorID.
	// Returns ErrPatientNotFound if no such document exists.
	Update(ctx context.Context, p *Patient) error

	// Delete hard-removes the patient owned by doctorID. Returns ErrPatientNotFound if absent.
	Delete(ctx context.Context, doctorID, id string) error

	// Filter returns the doctor's patients matching q, in store-native order.
	Filter(ctx context.Context, doctorID string, q *FilterQuery) ([]*Patient, error)

	// GroupByDiagnosis buckets one summary per diagnosis entry by disease or condition.
	GroupByDiagnosis(ctx context.Context, doctorID string, dim GroupDimension) (map[string][]Summary, error)

	// Ping checks the store is reachable.
	Ping(ctx context.Context) error
}
