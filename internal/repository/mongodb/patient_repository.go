// Package mongodb stores doctors and patients as MongoDB documents. Filtering
// and grouping run inside the server as queries and aggregation pipelines.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/dmehra2102/prod-golang-projects/medix/internal/domain/patient"
	"github.com/dmehra2102/prod-golang-projects/medix/pkg/database"
	"github.com/dmehra2102/prod-golang-projects/medix/pkg/metrics"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

type PatientRepository struct {
	client  *mongo.Client
	coll    *mongo.Collection
	metrics *metrics.Collector
}

func NewPatientRepository(client *mongo.Client, db *mongo.Database, m *metrics.Collector) *PatientRepository {
	return &PatientRepository{
		client:  client,
		coll:    db.Collection(database.PatientsCollection),
		metrics: m,
	}
}

func (r *PatientRepository) Create(ctx context.Context, p *patient.Patient) error {
	defer r.observe("insert", time.Now())

	if _, err := r.coll.InsertOne(ctx, p); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return patient.ErrPatientAlreadyExists
		}
		return fmt.Errorf("inserting patient: %w", err)
	}
	return nil
}

func (r *PatientRepository) GetByID(ctx context.Context, id string) (*patient.Patient, error) {
	defer r.observe("find_one", time.Now())

	var p patient.Patient
	if err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, patient.ErrPatientNotFound
		}
		return nil, fmt.Errorf("finding patient: %w", err)
	}
	return &p, nil
}

func (r *PatientRepository) Exists(ctx context.Context, id string) (bool, error) {
	defer r.observe("count", time.Now())

	n, err := r.coll.CountDocuments(ctx, bson.D{{Key: "_id", Value: id}}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("counting patients: %w", err)
	}
	return n > 0, nil
}

func (r *PatientRepository) ListByDoctor(ctx context.Context, doctorID string) ([]*patient.Patient, error) {
	return r.find(ctx, bson.D{{Key: "doctor_id", Value: doctorID}})
}

func (r *PatientRepository) Update(ctx context.Context, p *patient.Patient) error {
	defer r.observe("replace", time.Now())

	res, err := r.coll.ReplaceOne(ctx, ownedBy(p.DoctorID, p.ID), p)
	if err != nil {
		return fmt.Errorf("replacing patient: %w", err)
	}
	if res.MatchedCount == 0 {
		return patient.ErrPatientNotFound
	}
	return nil
}

func (r *PatientRepository) Delete(ctx context.Context, doctorID, id string) error {
	defer r.observe("delete", time.Now())

	res, err := r.coll.DeleteOne(ctx, ownedBy(doctorID, id))
	if err != nil {
		return fmt.Errorf("deleting patient: %w", err)
	}
	if res.DeletedCount == 0 {
		return patient.ErrPatientNotFound
	}
	return nil
}

func (r *PatientRepository) Filter(ctx context.Context, doctorID string, q *patient.FilterQuery) ([]*patient.Patient, error) {
	return r.find(ctx, filterDocument(doctorID, q))
}

type groupResult struct {
	Key      string            `bson:"_id"`
	Patients []patient.Summary `bson:"patients"`
}

func (r *PatientRepository) GroupByDiagnosis(ctx context.Context, doctorID string, dim patient.GroupDimension) (map[string][]patient.Summary, error) {
	defer r.observe("aggregate", time.Now())

	cur, err := r.coll.Aggregate(ctx, groupPipeline(doctorID, dim))
	if err != nil {
		return nil, fmt.Errorf("aggregating patients: %w", err)
	}

	var rows []groupResult
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decoding groups: %w", err)
	}

	groups := make(map[string][]patient.Summary, len(rows))
	for _, row := range rows {
		groups[row.Key] = append(groups[row.Key], row.Patients...)
	}
	return groups, nil
}

func (r *PatientRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, readpref.Primary())
}

func (r *PatientRepository) find(ctx context.Context, filter bson.D) ([]*patient.Patient, error) {
	defer r.observe("find", time.Now())

	cur, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("finding patients: %w", err)
	}

	out := make([]*patient.Patient, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decoding patients: %w", err)
	}
	return out, nil
}

func (r *PatientRepository) observe(op string, start time.Time) {
	r.metrics.ObserveStore(op, database.PatientsCollection, start)
}

func ownedBy(doctorID, id string) bson.D {
	return bson.D{{Key: "_id", Value: id}, {Key: "doctor_id", Value: doctorID}}
}

// filterDocument matches each criterion against any element of the
// history independently, the way dotted paths behave without $elemMatch.
func filterDocument(doctorID string, q *patient.FilterQuery) bson.D {
	filter := bson.D{{Key: "doctor_id", Value: doctorID}}

	if q.DiseaseName != "" {
		filter = append(filter, bson.E{
			Key: "diagnoses_history.disease",
			Value: bson.D{
				{Key: "$regex", Value: regexp.QuoteMeta(q.DiseaseName)},
				{Key: "$options", Value: "i"},
			},
		})
	}
	if q.Condition != "" {
		filter = append(filter, bson.E{Key: "diagnoses_history.condition", Value: q.Condition})
	}
	if q.DiagnosedSince != nil {
		filter = append(filter, bson.E{
			Key:   "diagnoses_history.diagnosis_on",
			Value: bson.D{{Key: "$gte", Value: *q.DiagnosedSince}},
		})
	}

	return filter
}

func groupPipeline(doctorID string, dim patient.GroupDimension) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "doctor_id", Value: doctorID}}}},
		{{Key: "$unwind", Value: "$diagnoses_history"}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$diagnoses_history." + string(dim)},
			{Key: "patients", Value: bson.D{{Key: "$push", Value: bson.D{
				{Key: "id", Value: "$_id"},
				{Key: "name", Value: "$name"},
				{Key: "city", Value: "$city"},
				{Key: "age", Value: "$age"},
				{Key: "gender", Value: "$gender"},
				{Key: "diagnosis_details", Value: "$diagnoses_history"},
			}}}},
		}}},
	}
}
