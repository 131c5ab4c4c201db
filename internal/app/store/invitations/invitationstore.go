// internal/app/store/invitations/invitationstore.go
package invitationstore

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

// ErrDuplicatePending is returned when a pending invitation already exists for (group, user).
var ErrDuplicatePending = errors.New("a pending invitation already exists for this user and group")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("group_invitations")}
}

// Create inserts a pending invitation that expires ttl after now.
func (s *Store) Create(ctx context.Context, groupID, userID, invitedBy primitive.ObjectID, message string, ttl time.Duration, now time.Time) (models.Invitation, error) {
	inv := models.Invitation{
		ID:        primitive.NewObjectID(),
		GroupID:   groupID,
		UserID:    userID,
		InvitedBy: invitedBy,
		Message:   message,
		Status:    models.InvitationPending,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.c.InsertOne(ctx, inv); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Invitation{}, ErrDuplicatePending
		}
		return models.Invitation{}, err
	}
	return inv, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Invitation, error) {
	var inv models.Invitation
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&inv); err != nil {
		return models.Invitation{}, err
	}
	return inv, nil
}

// FindPending returns the stored-pending invitation for (groupID, userID), if any.
// The returned invitation may already be past its expiry.
func (s *Store) FindPending(ctx context.Context, groupID, userID primitive.ObjectID) (models.Invitation, error) {
	var inv models.Invitation
	err := s.c.FindOne(ctx, bson.M{
		"group_id": groupID,
		"user_id":  userID,
		"status":   models.InvitationPending,
	}).Decode(&inv)
	if err != nil {
		return models.Invitation{}, err
	}
	return inv, nil
}

// Transition moves the invitation from one status to another, only if it is
// still in from. It reports whether this caller won the transition, so two
// concurrent resolvers cannot both succeed.
func (s *Store) Transition(ctx context.Context, id primitive.ObjectID, from, to string, now time.Time) (bool, error) {
	set := bson.M{"status": to, "updated_at": now}
	if to == models.InvitationAccepted || to == models.InvitationRejected {
		set["responded_at"] = now
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id, "status": from}, bson.M{"$set": set})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// Reissue puts a pending or expired invitation back into pending with a fresh
// expiry and records who reissued it. Accepted, rejected and cancelled
// invitations do not match and yield mongo.ErrNoDocuments.
func (s *Store) Reissue(ctx context.Context, id, by primitive.ObjectID, ttl time.Duration, now time.Time) (models.Invitation, error) {
	filter := bson.M{
		"_id":    id,
		"status": bson.M{"$in": bson.A{models.InvitationPending, models.InvitationExpired}},
	}
	update := bson.M{"$set": bson.M{
		"status":      models.InvitationPending,
		"expires_at":  now.Add(ttl),
		"reissued_by": by,
		"reissued_at": now,
		"updated_at":  now,
	}}
	var inv models.Invitation
	err := s.c.FindOneAndUpdate(ctx, filter, update, options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&inv)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.Invitation{}, ErrDuplicatePending
		}
		return models.Invitation{}, err
	}
	return inv, nil
}

// DeleteResolved removes every non-pending invitation for (groupID, userID)
// so a fresh invitation replaces the old history row.
func (s *Store) DeleteResolved(ctx context.Context, groupID, userID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{
		"group_id": groupID,
		"user_id":  userID,
		"status":   bson.M{"$ne": models.InvitationPending},
	})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ListPendingForUser returns the user's actionable invitations: stored pending
// and not yet expired at now, oldest expiry first.
func (s *Store) ListPendingForUser(ctx context.Context, userID primitive.ObjectID, now time.Time) ([]models.Invitation, error) {
	return s.find(ctx, bson.M{
		"user_id":    userID,
		"status":     models.InvitationPending,
		"expires_at": bson.M{"$gte": now},
	}, options.Find().SetSort(bson.D{{Key: "expires_at", Value: 1}}))
}

// ListByGroup returns a group's invitations, newest first, optionally filtered by stored status.
func (s *Store) ListByGroup(ctx context.Context, groupID primitive.ObjectID, status string) ([]models.Invitation, error) {
	filter := bson.M{"group_id": groupID}
	if status != "" {
		filter["status"] = status
	}
	return s.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
}

// ExpireOverdue persists "expired" on every pending invitation whose expiry is
// before now. It returns the number of invitations changed.
func (s *Store) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"status": models.InvitationPending, "expires_at": bson.M{"$lt": now}},
		bson.M{"$set": bson.M{"status": models.InvitationExpired, "updated_at": now}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (s *Store) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Invitation, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Invitation
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
