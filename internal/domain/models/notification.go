// internal/domain/models/notification.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification types.
const (
	NotifyInvitationReceived  = "group_invitation_received"
	NotifyInvitationCancelled = "group_invitation_cancelled"
	NotifyInvitationResent    = "group_invitation_resent"
	NotifyInvitationAccepted  = "group_invitation_accepted"
	NotifyInvitationDeclined  = "group_invitation_declined"
	NotifyJoinRequestApproved = "group_join_request_approved"
	NotifyJoinRequestRejected = "group_join_request_rejected"
)

// Notification is an informational record for a user. Delivery is owned by
// whatever consumes the notifications collection.
//
// DedupeKey is unique so at-least-once producers cannot create duplicates.
type Notification struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	DedupeKey string             `bson:"dedupe_key" json:"dedupe_key"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	Type      string             `bson:"type" json:"type"`
	Title     string             `bson:"title" json:"title"`
	Message   string             `bson:"message" json:"message"`

	RefType string             `bson:"ref_type" json:"ref_type"` // group | invitation | join_request
	RefID   primitive.ObjectID `bson:"ref_id" json:"ref_id"`

	IsRead    bool       `bson:"is_read" json:"is_read"`
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	ReadAt    *time.Time `bson:"read_at,omitempty" json:"read_at,omitempty"`
}
