package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmehra2102/prod-golang-projects/medix/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/medix/pkg/metrics"
	"gorm.io/gorm"
)

type DoctorRepository struct {
	db      *gorm.DB
	metrics *metrics.Collector
}

func NewDoctorRepository(db *gorm.DB, m *metrics.Collector) *DoctorRepository {
	return &DoctorRepository{db: db, metrics: m}
}

func (r *DoctorRepository) Create(ctx context.Context, d *domain.Doctor) error {
	defer r.metrics.ObserveStore("insert", "doctors", time.Now())

	if err := r.db.WithContext(ctx).Create(d).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrDoctorAlreadyExists
		}
		return fmt.Errorf("inserting doctor: %w", err)
	}
	return nil
}

func (r *DoctorRepository) GetByUsername(ctx context.Context, username string) (*domain.Doctor, error) {
	defer r.metrics.ObserveStore("find_one", "doctors", time.Now())

	var d domain.Doctor
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&d).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrDoctorNotFound
		}
		return nil, fmt.Errorf("finding doctor: %w", err)
	}
	return &d, nil
}
