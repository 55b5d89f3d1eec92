package services

import (
	"context"
	"crypto/tls"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Yeetogami/Odoo-hackathon-2025/internal/models"
)

// MongoUserFlagService keeps strikes in a Mongo collection when MONGO_URI is set.
type MongoUserFlagService struct {
	client *mongo.Client
	col    *mongo.Collection
}

func NewMongoUserFlagService(ctx context.Context, mongoURI, dbName string) (*MongoUserFlagService, error) {
	opts := options.Client().ApplyURI(mongoURI)
	// Atlas URIs enable TLS; pin the floor without overriding the rest.
	if opts.TLSConfig != nil && opts.TLSConfig.MinVersion < tls.VersionTLS12 {
		opts.TLSConfig.MinVersion = tls.VersionTLS12
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	col := client.Database(dbName).Collection("user_flags")

	_, _ = col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})

	return &MongoUserFlagService{client: client, col: col}, nil
}

func (s *MongoUserFlagService) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// AddStrike increments the strike counter for the user and returns the updated record.
func (s *MongoUserFlagService) AddStrike(ctx context.Context, userID, reason string) (*models.UserFlag, error) {
	now := time.Now().UTC()
	update := bson.M{
		"$inc":         bson.M{"strikes": 1},
		"$set":         bson.M{"last_reason": reason, "last_strike_at": now, "updated_at": now},
		"$setOnInsert": bson.M{"user_id": userID},
	}

	after := options.After
	res := s.col.FindOneAndUpdate(ctx, bson.M{"user_id": userID}, update,
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(after))

	var out models.UserFlag
	if err := res.Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *MongoUserFlagService) Get(ctx context.Context, userID string) (*models.UserFlag, error) {
	var out models.UserFlag
	err := s.col.FindOne(ctx, bson.M{"user_id": userID}).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}
