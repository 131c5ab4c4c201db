// internal/domain/models/invitation.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Invitation status values.
const (
	InvitationPending   = "pending"
	InvitationAccepted  = "accepted"
	InvitationRejected  = "rejected"
	InvitationExpired   = "expired"
	InvitationCancelled = "cancelled"
)

// InvitationTTL is how long an invitation stays acceptable after creation or reissue.
const InvitationTTL = 30 * 24 * time.Hour

// Invitation is an admin- or moderator-initiated invite of a specific user into a group.
// At most one pending invitation exists per (group_id, user_id).
type Invitation struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	GroupID   primitive.ObjectID `bson:"group_id" json:"group_id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	InvitedBy primitive.ObjectID `bson:"invited_by" json:"invited_by"`
	Message   string             `bson:"message,omitempty" json:"message,omitempty"`
	Status    string             `bson:"status" json:"status"`
	ExpiresAt time.Time          `bson:"expires_at" json:"expires_at"`

	ReissuedBy  *primitive.ObjectID `bson:"reissued_by,omitempty" json:"reissued_by,omitempty"`
	ReissuedAt  *time.Time          `bson:"reissued_at,omitempty" json:"reissued_at,omitempty"`
	RespondedAt *time.Time          `bson:"responded_at,omitempty" json:"responded_at,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsExpired reports whether a pending invitation has passed its expiry.
// This is the read-time rule; the sweep worker persists "expired" separately.
func (inv Invitation) IsExpired(now time.Time) bool {
	return inv.Status == InvitationPending && inv.ExpiresAt.Before(now)
}

// EffectiveStatus is Status with lazy expiry applied.
func (inv Invitation) EffectiveStatus(now time.Time) string {
	if inv.IsExpired(now) {
		return InvitationExpired
	}
	return inv.Status
}

// IsResolved reports whether the invitation has left the pending state.
func (inv Invitation) IsResolved() bool {
	return inv.Status != InvitationPending
}
