// internal/domain/models/sensitivecategory.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SensitiveJobCategory is a policy bundle of force-hide flags. A professional
// group may be bound to one category; its members inherit the force-hides.
type SensitiveJobCategory struct {
	ID   primitive.ObjectID `bson:"_id" json:"id"`
	Name string             `bson:"name" json:"name"`

	ForceHidePosition   bool `bson:"force_hide_position" json:"force_hide_position"`
	ForceHideDepartment bool `bson:"force_hide_department" json:"force_hide_department"`
	ForceHideBio        bool `bson:"force_hide_bio" json:"force_hide_bio"`
	ForceHideLocation   bool `bson:"force_hide_location" json:"force_hide_location"`
	ForceHidePhone      bool `bson:"force_hide_phone" json:"force_hide_phone"`
	ForceHideEmail      bool `bson:"force_hide_email" json:"force_hide_email"`
	ForceHideGroups     bool `bson:"force_hide_groups" json:"force_hide_groups"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
