// internal/app/store/groups/groupstore.go
package groupstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/guildhall/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrDuplicateGroupName = errors.New("a group with this name already exists")
	errBadKind            = errors.New(`kind must be "generic" or "professional"`)
	errCategoryOnGeneric  = errors.New("only professional groups can be bound to a sensitive job category")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("groups")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Group, error) {
	var g models.Group
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&g); err != nil {
		return models.Group{}, err
	}
	return g, nil
}

// Create inserts a group. MemberCount always starts at zero.
func (s *Store) Create(ctx context.Context, g models.Group) (models.Group, error) {
	if g.Kind == "" {
		g.Kind = models.GroupKindGeneric
	}
	if g.Kind != models.GroupKindGeneric && g.Kind != models.GroupKindProfessional {
		return models.Group{}, errBadKind
	}
	if g.SensitiveCategoryID != nil && g.Kind != models.GroupKindProfessional {
		return models.Group{}, errCategoryOnGeneric
	}

	now := time.Now().UTC()
	g.ID = primitive.NewObjectID()
	g.Name = strings.TrimSpace(g.Name)
	g.NameCI = text.Fold(g.Name)
	if g.Status == "" {
		g.Status = models.GroupStatusActive
	}
	g.MemberCount = 0
	g.CreatedAt = now
	g.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, g); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Group{}, ErrDuplicateGroupName
		}
		return models.Group{}, err
	}
	return g, nil
}

// SetStatus switches a group between active and inactive.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// IncMemberCount adjusts the denormalized member counter by delta and returns
// the new value. It must run in the same transaction as the membership write.
func (s *Store) IncMemberCount(ctx context.Context, id primitive.ObjectID, delta int64) (int64, error) {
	var g models.Group
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"member_count": delta}},
		options.FindOneAndUpdate().
			SetReturnDocument(options.After).
			SetProjection(bson.M{"member_count": 1}),
	).Decode(&g)
	if err != nil {
		return 0, err
	}
	return g.MemberCount, nil
}
