package database

import (
	"context"
	"fmt"
	"time"

	"github.com/dmehra2102/prod-golang-projects/medix/internal/config"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.uber.org/zap"
)

const (
	DoctorsCollection  = "doctors"
	PatientsCollection = "patients"
)

// ConnectMongo dials the cluster and verifies it answers a ping within the
// configured connect timeout.
func ConnectMongo(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetServerSelectionTimeout(cfg.ConnectTimeout)

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("connecting to mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("pinging mongo: %w", err)
	}

	return client, nil
}

// EnsureMongoIndexes creates the secondary indexes the queries rely on.
// Identity keys (username, patient id) are stored as _id and are unique by
// construction.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database, log *zap.Logger) error {
	start := time.Now()

	patients := db.Collection(PatientsCollection)
	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "doctor_id", Value: 1}, {Key: "created_at", Value: 1}},
			Options: options.Index().SetName("idx_patients_doctor"),
		},
		{
			Keys:    bson.D{{Key: "doctor_id", Value: 1}, {Key: "diagnoses_history.condition", Value: 1}},
			Options: options.Index().SetName("idx_patients_doctor_condition"),
		},
	}

	if _, err := patients.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("creating patient indexes: %w", err)
	}

	log.Info("mongo indexes ensured", zap.Duration("duration", time.Since(start)))
	return nil
}
