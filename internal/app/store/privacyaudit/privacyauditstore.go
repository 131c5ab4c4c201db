// internal/app/store/privacyaudit/privacyauditstore.go
package privacyauditstore

import (
	"context"

	"github.com/dalemusser/guildhall/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store is the append-only privacy change log. There is no update or delete.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("privacy_audit_log")}
}

// Append inserts entries in one write. An empty slice is a no-op.
func (s *Store) Append(ctx context.Context, entries []models.PrivacyAuditLogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(entries))
	for _, e := range entries {
		if e.ID.IsZero() {
			e.ID = primitive.NewObjectID()
		}
		docs = append(docs, e)
	}
	_, err := s.c.InsertMany(ctx, docs)
	return err
}

// ListByUser returns a user's privacy history, newest first.
func (s *Store) ListByUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]models.PrivacyAuditLogEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	cur, err := s.c.Find(ctx,
		bson.M{"user_id": userID},
		options.Find().
			SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
			SetLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.PrivacyAuditLogEntry
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
