package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmehra2102/prod-golang-projects/medix/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/medix/pkg/database"
	"github.com/dmehra2102/prod-golang-projects/medix/pkg/metrics"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

type DoctorRepository struct {
	coll    *mongo.Collection
	metrics *metrics.Collector
}

func NewDoctorRepository(db *mongo.Database, m *metrics.Collector) *DoctorRepository {
	return &DoctorRepository{coll: db.Collection(database.DoctorsCollection), metrics: m}
}

func (r *DoctorRepository) Create(ctx context.Context, d *domain.Doctor) error {
	defer r.metrics.ObserveStore("insert", database.DoctorsCollection, time.Now())

	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	if _, err := r.coll.InsertOne(ctx, d); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDoctorAlreadyExists
		}
		return fmt.Errorf("inserting doctor: %w", err)
	}
	return nil
}

func (r *DoctorRepository) GetByUsername(ctx context.Context, username string) (*domain.Doctor, error) {
	defer r.metrics.ObserveStore("find_one", database.DoctorsCollection, time.Now())

	var d domain.Doctor
	err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: username}}).Decode(&d)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrDoctorNotFound
		}
		return nil, fmt.Errorf("finding doctor: %w", err)
	}
	return &d, nil
}
