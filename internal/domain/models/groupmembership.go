// internal/domain/models/groupmembership.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Membership roles.
const (
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
	RoleMember    = "member"
)

// GroupMembership is the authoritative join between users and groups.
// Exactly one document per (user_id, group_id). Removal deletes the document.
//
// GroupKind is copied from the group at insert time so the exclusivity check
// (and its backing partial unique index) can be answered from this collection alone.
type GroupMembership struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GroupID   primitive.ObjectID `bson:"group_id" json:"group_id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	GroupKind string             `bson:"group_kind" json:"group_kind"`
	Role      string             `bson:"role" json:"role"` // admin | moderator | member
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// ValidRole reports whether role is one of the membership roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleModerator, RoleMember:
		return true
	}
	return false
}
