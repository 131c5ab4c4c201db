// internal/app/store/memberships/membershipstore.go
package membershipstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/guildhall/internal/app/system/indexes"
	"github.com/dalemusser/guildhall/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("group_memberships")}
}

var errBadRole = errors.New(`role must be "admin", "moderator" or "member"`)

var (
	// ErrDuplicateMembership is returned when (user, group) already has a row.
	ErrDuplicateMembership = errors.New("user is already a member of this group")
	// ErrProfessionalConflict is returned when the insert would give the user a
	// second member-role membership in a professional group. It surfaces the
	// race that the engine's read-time check cannot see.
	ErrProfessionalConflict = errors.New("user already holds a member role in another professional group")
)

// Add inserts a membership for userID in g. GroupKind is copied from g so the
// professional exclusivity index can see it.
func (s *Store) Add(ctx context.Context, g models.Group, userID primitive.ObjectID, role string) (models.GroupMembership, error) {
	if !models.ValidRole(role) {
		return models.GroupMembership{}, errBadRole
	}
	m := models.GroupMembership{
		ID:        primitive.NewObjectID(),
		GroupID:   g.ID,
		UserID:    userID,
		GroupKind: g.Kind,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		if wafflemongo.IsDup(err) {
			if strings.Contains(err.Error(), indexes.IndexMembershipProfessionalUser) {
				return models.GroupMembership{}, ErrProfessionalConflict
			}
			return models.GroupMembership{}, ErrDuplicateMembership
		}
		return models.GroupMembership{}, err
	}
	return m, nil
}

// Remove deletes the membership document for (groupID, userID) and returns it.
// Returns mongo.ErrNoDocuments when there was nothing to remove.
func (s *Store) Remove(ctx context.Context, groupID, userID primitive.ObjectID) (models.GroupMembership, error) {
	var m models.GroupMembership
	err := s.c.FindOneAndDelete(ctx, bson.M{"group_id": groupID, "user_id": userID}).Decode(&m)
	if err != nil {
		return models.GroupMembership{}, err
	}
	return m, nil
}

// Get returns the membership for (groupID, userID) or mongo.ErrNoDocuments.
func (s *Store) Get(ctx context.Context, groupID, userID primitive.ObjectID) (models.GroupMembership, error) {
	var m models.GroupMembership
	if err := s.c.FindOne(ctx, bson.M{"group_id": groupID, "user_id": userID}).Decode(&m); err != nil {
		return models.GroupMembership{}, err
	}
	return m, nil
}

// Exists checks if a membership exists for the given group and user.
func (s *Store) Exists(ctx context.Context, groupID, userID primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"group_id": groupID, "user_id": userID}).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CountByGroup returns the count of memberships for a group, optionally filtered by role.
// If role is empty, counts all memberships.
func (s *Store) CountByGroup(ctx context.Context, groupID primitive.ObjectID, role string) (int64, error) {
	filter := bson.M{"group_id": groupID}
	if role != "" {
		filter["role"] = role
	}
	return s.c.CountDocuments(ctx, filter)
}

// FindProfessionalMember returns the user's member-role membership in a
// professional group other than excludeGroupID, or mongo.ErrNoDocuments.
// Admin and moderator rows never match.
func (s *Store) FindProfessionalMember(ctx context.Context, userID, excludeGroupID primitive.ObjectID) (models.GroupMembership, error) {
	filter := bson.M{
		"user_id":    userID,
		"role":       models.RoleMember,
		"group_kind": models.GroupKindProfessional,
	}
	if !excludeGroupID.IsZero() {
		filter["group_id"] = bson.M{"$ne": excludeGroupID}
	}
	var m models.GroupMembership
	if err := s.c.FindOne(ctx, filter).Decode(&m); err != nil {
		return models.GroupMembership{}, err
	}
	return m, nil
}

// ListByGroup returns all memberships for a group, optionally filtered by role.
func (s *Store) ListByGroup(ctx context.Context, groupID primitive.ObjectID, role string) ([]models.GroupMembership, error) {
	filter := bson.M{"group_id": groupID}
	if role != "" {
		filter["role"] = role
	}
	return s.find(ctx, filter)
}

// ListByUser returns all of a user's memberships, newest first.
func (s *Store) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.GroupMembership, error) {
	return s.find(ctx, bson.M{"user_id": userID}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
}

func (s *Store) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.GroupMembership, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var memberships []models.GroupMembership
	if err := cur.All(ctx, &memberships); err != nil {
		return nil, err
	}
	return memberships, nil
}
