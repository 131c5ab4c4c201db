// internal/domain/models/adminalert.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Alert types.
const (
	AlertMultipleProfessionalGroupAttempt = "multiple_professional_group_attempt"
)

// Alert severities.
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// AdminAlert is raised for platform administrators when a user tries to
// break a platform rule (currently: joining a second professional group).
type AdminAlert struct {
	ID            primitive.ObjectID `bson:"_id" json:"id"`
	CorrelationID string             `bson:"correlation_id" json:"correlation_id"`
	UserID        primitive.ObjectID `bson:"user_id" json:"user_id"`
	Type          string             `bson:"type" json:"type"`
	Severity      string             `bson:"severity" json:"severity"`
	Message       string             `bson:"message" json:"message"`
	Metadata      map[string]string  `bson:"metadata,omitempty" json:"metadata,omitempty"`
	Resolved      bool               `bson:"resolved" json:"resolved"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
}
