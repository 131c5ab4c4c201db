// internal/app/store/joinrequests/joinrequeststore.go
package joinrequeststore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/guildhall/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrDuplicatePending is returned when the user already has a pending request for the group.
var ErrDuplicatePending = errors.New("a pending join request already exists for this group")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("group_join_requests")}
}

// Create inserts a pending join request.
func (s *Store) Create(ctx context.Context, groupID, userID primitive.ObjectID, now time.Time) (models.JoinRequest, error) {
	jr := models.JoinRequest{
		ID:        primitive.NewObjectID(),
		GroupID:   groupID,
		UserID:    userID,
		Status:    models.JoinRequestPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.c.InsertOne(ctx, jr); err != nil {
		if wafflemongo.IsDup(err) {
			return models.JoinRequest{}, ErrDuplicatePending
		}
		return models.JoinRequest{}, err
	}
	return jr, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.JoinRequest, error) {
	var jr models.JoinRequest
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&jr); err != nil {
		return models.JoinRequest{}, err
	}
	return jr, nil
}

// Resolve moves a pending request to approved or rejected. It reports false
// when the request was no longer pending, so a request resolves exactly once.
func (s *Store) Resolve(ctx context.Context, id primitive.ObjectID, status string, by primitive.ObjectID, reason string, now time.Time) (bool, error) {
	set := bson.M{
		"status":      status,
		"resolved_by": by,
		"resolved_at": now,
		"updated_at":  now,
	}
	if reason != "" {
		set["rejection_reason"] = reason
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.JoinRequestPending},
		bson.M{"$set": set},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// ListPendingByGroup returns a group's approval queue, oldest first.
func (s *Store) ListPendingByGroup(ctx context.Context, groupID primitive.ObjectID) ([]models.JoinRequest, error) {
	cur, err := s.c.Find(ctx,
		bson.M{"group_id": groupID, "status": models.JoinRequestPending},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.JoinRequest
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
