// internal/domain/models/group.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Group kinds.
const (
	GroupKindGeneric      = "generic"
	GroupKindProfessional = "professional"
)

// Group status values.
const (
	GroupStatusActive   = "active"
	GroupStatusInactive = "inactive"
)

// Group is a community group users can join.
//
// NOTE:
//   - Members are not embedded on Group. All membership lives in the
//     group_memberships collection.
//   - MemberCount is a denormalized counter. It is only ever changed with $inc
//     inside the same transaction that inserts or deletes a membership row.
//   - SensitiveCategoryID is only meaningful when Kind is "professional".
type Group struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Name        string             `bson:"name" json:"name"`
	NameCI      string             `bson:"name_ci" json:"name_ci"`
	Description string             `bson:"description" json:"description"`

	Kind             string `bson:"kind" json:"kind"` // generic | professional
	RequiresApproval bool   `bson:"requires_approval" json:"requires_approval"`

	SensitiveCategoryID *primitive.ObjectID `bson:"sensitive_category_id,omitempty" json:"sensitive_category_id,omitempty"`

	Status      string `bson:"status" json:"status"`
	MemberCount int64  `bson:"member_count" json:"member_count"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsActive reports whether the group accepts new members.
func (g Group) IsActive() bool {
	return g.Status == GroupStatusActive
}

// IsProfessional reports whether the group enforces member exclusivity.
func (g Group) IsProfessional() bool {
	return g.Kind == GroupKindProfessional
}

// BoundCategory returns the sensitive job category bound to a professional group.
func (g Group) BoundCategory() (primitive.ObjectID, bool) {
	if !g.IsProfessional() || g.SensitiveCategoryID == nil || g.SensitiveCategoryID.IsZero() {
		return primitive.NilObjectID, false
	}
	return *g.SensitiveCategoryID, true
}
