// internal/domain/models/privacyaudit.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Changed-by roles recorded on privacy audit entries.
const (
	ChangedByUser          = "user"
	ChangedByGroupAdmin    = "group_admin"
	ChangedByPlatformAdmin = "platform_admin"
	ChangedBySystem        = "system"
)

// PrivacyAuditLogEntry records one change of one privacy flag. Entries are
// append-only: never updated, never deleted.
type PrivacyAuditLogEntry struct {
	ID            primitive.ObjectID `bson:"_id" json:"id"`
	UserID        primitive.ObjectID `bson:"user_id" json:"user_id"`
	ChangedBy     primitive.ObjectID `bson:"changed_by" json:"changed_by"`
	ChangedByRole string             `bson:"changed_by_role" json:"changed_by_role"`
	FieldChanged  string             `bson:"field_changed" json:"field_changed"`
	OldValue      bool               `bson:"old_value" json:"old_value"`
	NewValue      bool               `bson:"new_value" json:"new_value"`
	Reason        string             `bson:"reason" json:"reason"`
	Timestamp     time.Time          `bson:"timestamp" json:"timestamp"`
}
