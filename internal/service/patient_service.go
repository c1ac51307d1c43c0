package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmehra2102/prod-golang-projects/medix/internal/domain/patient"
	"github.com/dmehra2102/prod-golang-projects/medix/pkg/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("github.com/dmehra2102/prod-golang-projects/medix/internal/service")

type PatientServiceOption func(*PatientService)

// WithClock replaces time.Now, which drives diagnosis defaults and the
// months filter.
func WithClock(now func() time.Time) PatientServiceOption {
	return func(s *PatientService) { s.now = now }
}

func WithMetrics(m *metrics.Collector) PatientServiceOption {
	return func(s *PatientService) { s.metrics = m }
}

// PatientService scopes every operation to the calling doctor. A patient
// owned by someone else is reported exactly like a missing one.
type PatientService struct {
	repo    patient.Repository
	metrics *metrics.Collector
	log     *zap.Logger
	now     func() time.Time
}

func NewPatientService(repo patient.Repository, log *zap.Logger, opts ...PatientServiceOption) *PatientService {
	s := &PatientService{
		repo: repo,
		log:  log,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *PatientService) ListPatients(ctx context.Context, callerID string) ([]*patient.Patient, error) {
	ctx, span := tracer.Start(ctx, "PatientService.ListPatients")
	defer span.End()

	ps, err := s.repo.ListByDoctor(ctx, callerID)
	if err != nil {
		return nil, s.storeError(span, "listing patients", err)
	}
	return ps, nil
}

func (s *PatientService) GetPatient(ctx context.Context, callerID, id string) (*patient.Patient, error) {
	ctx, span := tracer.Start(ctx, "PatientService.GetPatient", trace.WithAttributes(attribute.String("patient.id", id)))
	defer span.End()

	return s.getOwned(ctx, span, callerID, id)
}

// SortPatients validates the sort parameters before touching the store.
// An empty order means ascending.
func (s *PatientService) SortPatients(ctx context.Context, callerID, sortBy, order string) ([]*patient.Patient, error) {
	field := patient.SortField(sortBy)
	if !field.IsValid() {
		return nil, invalidArgument(fmt.Sprintf("Invalid field select from %s", formatSortFields()))
	}

	dir := patient.OrderAsc
	if order != "" {
		dir = patient.SortOrder(order)
	}
	if !dir.IsValid() {
		return nil, invalidArgument("Invalid order select between asc and desc")
	}

	ctx, span := tracer.Start(ctx, "PatientService.SortPatients", trace.WithAttributes(
		attribute.String("sort.field", string(field)),
		attribute.String("sort.order", string(dir)),
	))
	defer span.End()

	ps, err := s.repo.ListByDoctor(ctx, callerID)
	if err != nil {
		return nil, s.storeError(span, "listing patients", err)
	}

	patient.SortPatients(ps, field, dir)
	return ps, nil
}

func (s *PatientService) CreatePatient(ctx context.Context, callerID string, cmd *patient.CreatePatientCommand) (*patient.Patient, error) {
	if errs := cmd.Validate(); len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}

	ctx, span := tracer.Start(ctx, "PatientService.CreatePatient", trace.WithAttributes(attribute.String("patient.id", cmd.ID)))
	defer span.End()

	p := cmd.NewPatient(callerID, s.now())

	// Not atomic with the insert; the store's unique key settles a race.
	exists, err := s.repo.Exists(ctx, p.ID)
	if err != nil {
		return nil, s.storeError(span, "checking patient id", err)
	}
	if exists {
		return nil, patient.ErrPatientAlreadyExists
	}

	if err := s.repo.Create(ctx, p); err != nil {
		if errors.Is(err, patient.ErrPatientAlreadyExists) {
			return nil, err
		}
		s.log.Error("failed to create patient", zap.Error(err))
		return nil, s.storeError(span, "creating patient", err)
	}

	s.metrics.PatientCreated()
	s.log.Info("patient created",
		zap.String("patient_id", p.ID),
		zap.String("doctor_id", callerID),
	)

	return p, nil
}

// UpdatePatient applies only the supplied fields. An empty command is a
// successful no-op.
func (s *PatientService) UpdatePatient(ctx context.Context, callerID, id string, cmd *patient.UpdatePatientCommand) (*patient.Patient, error) {
	ctx, span := tracer.Start(ctx, "PatientService.UpdatePatient", trace.WithAttributes(attribute.String("patient.id", id)))
	defer span.End()

	current, err := s.getOwned(ctx, span, callerID, id)
	if err != nil {
		return nil, err
	}

	if errs := cmd.Validate(); len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}

	if cmd.IsEmpty() {
		return current, nil
	}

	updated := cmd.Apply(current, s.now())
	if err := s.repo.Update(ctx, updated); err != nil {
		if errors.Is(err, patient.ErrPatientNotFound) {
			return nil, err
		}
		s.log.Error("failed to update patient", zap.Error(err))
		return nil, s.storeError(span, "updating patient", err)
	}

	s.log.Info("patient updated",
		zap.String("patient_id", id),
		zap.String("doctor_id", callerID),
	)

	return updated, nil
}

func (s *PatientService) DeletePatient(ctx context.Context, callerID, id string) error {
	ctx, span := tracer.Start(ctx, "PatientService.DeletePatient", trace.WithAttributes(attribute.String("patient.id", id)))
	defer span.End()

	if _, err := s.getOwned(ctx, span, callerID, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, callerID, id); err != nil {
		if errors.Is(err, patient.ErrPatientNotFound) {
			return err
		}
		s.log.Error("failed to delete patient", zap.Error(err))
		return s.storeError(span, "deleting patient", err)
	}

	s.metrics.PatientDeleted()
	s.log.Info("patient deleted",
		zap.String("patient_id", id),
		zap.String("doctor_id", callerID),
	)

	return nil
}

func (s *PatientService) GroupPatients(ctx context.Context, callerID string, dim patient.GroupDimension) (map[string][]patient.Summary, error) {
	if !dim.IsValid() {
		return nil, invalidArgument("Invalid group select between disease and condition")
	}

	ctx, span := tracer.Start(ctx, "PatientService.GroupPatients", trace.WithAttributes(attribute.String("group.dimension", string(dim))))
	defer span.End()

	groups, err := s.repo.GroupByDiagnosis(ctx, callerID, dim)
	if err != nil {
		return nil, s.storeError(span, "grouping patients", err)
	}
	return groups, nil
}

// FilterParams are the raw, optional query values of the filter endpoint.
type FilterParams struct {
	DiseaseName          string
	Condition            string
	DiagnosedAfterMonths string
}

func (s *PatientService) FilterPatients(ctx context.Context, callerID string, params FilterParams) ([]*patient.Patient, error) {
	q := &patient.FilterQuery{
		DiseaseName: strings.TrimSpace(params.DiseaseName),
		Condition:   params.Condition,
	}

	if raw := strings.TrimSpace(params.DiagnosedAfterMonths); raw != "" {
		months, err := strconv.Atoi(raw)
		if err != nil {
			return nil, invalidArgument("diagnosed_after_months must be an integer")
		}
		since := patient.DiagnosedSinceCutoff(s.now(), months)
		q.DiagnosedSince = &since
	}

	ctx, span := tracer.Start(ctx, "PatientService.FilterPatients")
	defer span.End()

	ps, err := s.repo.Filter(ctx, callerID, q)
	if err != nil {
		return nil, s.storeError(span, "filtering patients", err)
	}
	return ps, nil
}

// Ping reports whether the patient store is reachable.
func (s *PatientService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func (s *PatientService) getOwned(ctx context.Context, span trace.Span, callerID, id string) (*patient.Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, patient.ErrPatientNotFound) {
			return nil, err
		}
		return nil, s.storeError(span, "fetching patient", err)
	}
	if !p.OwnedBy(callerID) {
		return nil, patient.ErrPatientNotFound
	}
	return p, nil
}

func (s *PatientService) storeError(span trace.Span, op string, err error) error {
	span.RecordError(err)
	return fmt.Errorf("%s: %w", op, err)
}

func formatSortFields() string {
	names := make([]string, len(patient.SortFields))
	for i, f := range patient.SortFields {
		names[i] = string(f)
	}
	return "[" + strings.Join(names, ", ") + "]"
}
