// internal/app/store/privacy/privacystore.go
package privacystore

import (
	"context"
	"time"

	"github.com/dalemusser/guildhall/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store provides access to user_privacy_settings (one document per user).
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("user_privacy_settings")}
}

// Get returns the stored settings for userID or mongo.ErrNoDocuments.
func (s *Store) Get(ctx context.Context, userID primitive.ObjectID) (models.UserPrivacySettings, error) {
	var ps models.UserPrivacySettings
	if err := s.c.FindOne(ctx, bson.M{"user_id": userID}).Decode(&ps); err != nil {
		return models.UserPrivacySettings{}, err
	}
	return ps, nil
}

// GetOrDefault returns the stored settings, or the platform defaults when the
// user has never saved any. The boolean reports whether a row exists.
func (s *Store) GetOrDefault(ctx context.Context, userID primitive.ObjectID, now time.Time) (models.UserPrivacySettings, bool, error) {
	ps, err := s.Get(ctx, userID)
	if err == mongo.ErrNoDocuments {
		return models.DefaultPrivacySettings(userID, now), false, nil
	}
	if err != nil {
		return models.UserPrivacySettings{}, false, err
	}
	return ps, true, nil
}

// Save writes every flag and the bound category for ps.UserID, creating the
// row if needed. Because the full set is written, a flag can only loosen if
// the caller set it to true.
func (s *Store) Save(ctx context.Context, ps models.UserPrivacySettings, now time.Time) error {
	createdAt := ps.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	id := ps.ID
	if id.IsZero() {
		id = primitive.NewObjectID()
	}

	set := bson.M{
		"user_id":           ps.UserID,
		"show_position":     ps.ShowPosition,
		"show_department":   ps.ShowDepartment,
		"show_bio":          ps.ShowBio,
		"show_location":     ps.ShowLocation,
		"show_phone":        ps.ShowPhone,
		"show_email":        ps.ShowEmail,
		"show_groups":       ps.ShowGroups,
		"show_name":         ps.ShowName,
		"show_social_links": ps.ShowSocialLinks,
		"show_join_date":    ps.ShowJoinDate,
		"show_last_active":  ps.ShowLastActive,
		"show_connections":  ps.ShowConnections,
		"updated_at":        now,
	}
	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"_id": id, "created_at": createdAt},
	}
	if ps.CategoryID != nil {
		set["category_id"] = ps.CategoryID
		set["category_group_id"] = ps.CategoryGroupID
	} else {
		update["$unset"] = bson.M{"category_id": "", "category_group_id": ""}
	}

	_, err := s.c.UpdateOne(ctx, bson.M{"user_id": ps.UserID}, update, options.Update().SetUpsert(true))
	return err
}
