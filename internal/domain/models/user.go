// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Platform roles.
const (
	PlatformRoleSuperAdmin = "superadmin"
	PlatformRoleAdmin      = "admin"
	PlatformRoleMember     = "member"
)

// User is a platform account. Users are managed elsewhere; this service only reads them.
//
// NOTE:
//   - Group membership is not embedded on User.
//     Use the group_memberships collection to discover a user's groups.
type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName   string             `bson:"full_name" json:"full_name"`
	FullNameCI string             `bson:"full_name_ci" json:"full_name_ci"` // lowercase, diacritics-stripped
	Email      string             `bson:"email" json:"email"`
	Role       string             `bson:"role" json:"role"` // superadmin | admin | member
	Status     string             `bson:"status,omitempty" json:"status,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsPlatformAdmin reports whether the user holds platform-level authority.
func (u User) IsPlatformAdmin() bool {
	return u.Role == PlatformRoleAdmin || u.Role == PlatformRoleSuperAdmin
}
