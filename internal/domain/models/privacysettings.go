// internal/domain/models/privacysettings.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserPrivacySettings holds one user's profile visibility flags (one document per user).
//
// The first seven show_* flags can be forced off by a sensitive job category.
// The remaining flags are always user-controlled.
type UserPrivacySettings struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID primitive.ObjectID `bson:"user_id" json:"user_id"`

	// Category currently bound through a professional group membership, if any.
	CategoryID      *primitive.ObjectID `bson:"category_id,omitempty" json:"category_id,omitempty"`
	CategoryGroupID *primitive.ObjectID `bson:"category_group_id,omitempty" json:"category_group_id,omitempty"`

	ShowPosition   bool `bson:"show_position" json:"show_position"`
	ShowDepartment bool `bson:"show_department" json:"show_department"`
	ShowBio        bool `bson:"show_bio" json:"show_bio"`
	ShowLocation   bool `bson:"show_location" json:"show_location"`
	ShowPhone      bool `bson:"show_phone" json:"show_phone"`
	ShowEmail      bool `bson:"show_email" json:"show_email"`
	ShowGroups     bool `bson:"show_groups" json:"show_groups"`

	ShowName        bool `bson:"show_name" json:"show_name"`
	ShowSocialLinks bool `bson:"show_social_links" json:"show_social_links"`
	ShowJoinDate    bool `bson:"show_join_date" json:"show_join_date"`
	ShowLastActive  bool `bson:"show_last_active" json:"show_last_active"`
	ShowConnections bool `bson:"show_connections" json:"show_connections"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// DefaultPrivacySettings returns the platform-wide defaults for a user with no settings row.
func DefaultPrivacySettings(userID primitive.ObjectID, now time.Time) UserPrivacySettings {
	return UserPrivacySettings{
		ID:              primitive.NewObjectID(),
		UserID:          userID,
		ShowPosition:    true,
		ShowDepartment:  true,
		ShowBio:         true,
		ShowLocation:    true,
		ShowPhone:       true,
		ShowEmail:       true,
		ShowGroups:      true,
		ShowName:        true,
		ShowSocialLinks: true,
		ShowJoinDate:    true,
		ShowLastActive:  true,
		ShowConnections: true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}
