// internal/app/store/categories/categorystore.go
package categorystore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/guildhall/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrDuplicateCategoryName = errors.New("a sensitive job category with this name already exists")

// Store provides access to sensitive_job_categories.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("sensitive_job_categories")}
}

func (s *Store) Create(ctx context.Context, c models.SensitiveJobCategory) (models.SensitiveJobCategory, error) {
	now := time.Now().UTC()
	c.ID = primitive.NewObjectID()
	c.Name = strings.TrimSpace(c.Name)
	c.CreatedAt = now
	c.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, c); err != nil {
		if wafflemongo.IsDup(err) {
			return models.SensitiveJobCategory{}, ErrDuplicateCategoryName
		}
		return models.SensitiveJobCategory{}, err
	}
	return c, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.SensitiveJobCategory, error) {
	var c models.SensitiveJobCategory
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return models.SensitiveJobCategory{}, err
	}
	return c, nil
}

// List returns all categories ordered by name.
func (s *Store) List(ctx context.Context) ([]models.SensitiveJobCategory, error) {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.SensitiveJobCategory
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
