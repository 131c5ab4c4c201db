// internal/app/store/alerts/alertstore.go
package alertstore

import (
	"context"
	"time"

	"github.com/dalemusser/guildhall/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store provides access to admin_alerts.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("admin_alerts")}
}

// Create inserts an alert, filling ID and CreatedAt when unset.
func (s *Store) Create(ctx context.Context, a models.AdminAlert) (models.AdminAlert, error) {
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	if _, err := s.c.InsertOne(ctx, a); err != nil {
		return models.AdminAlert{}, err
	}
	return a, nil
}

// ListUnresolved returns open alerts, newest first.
func (s *Store) ListUnresolved(ctx context.Context, limit int64) ([]models.AdminAlert, error) {
	if limit <= 0 {
		limit = 100
	}
	cur, err := s.c.Find(ctx,
		bson.M{"resolved": false},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.AdminAlert
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByUser returns every alert raised for a user, newest first.
func (s *Store) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.AdminAlert, error) {
	cur, err := s.c.Find(ctx,
		bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.AdminAlert
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Resolve marks an alert handled. Returns mongo.ErrNoDocuments if it does not exist.
func (s *Store) Resolve(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{"resolved": true}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
