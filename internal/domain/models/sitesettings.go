// internal/domain/models/sitesettings.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SiteSettings holds platform-wide switches that admins can edit.
// There is a single settings document.
type SiteSettings struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`

	// Display settings
	SiteName string `bson:"site_name" json:"site_name"`

	// AllowPrivacyChanges gates user-initiated privacy edits platform-wide.
	AllowPrivacyChanges bool `bson:"allow_privacy_changes" json:"allow_privacy_changes"`

	// Audit fields
	UpdatedAt     *time.Time          `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
	UpdatedByID   *primitive.ObjectID `bson:"updated_by_id,omitempty" json:"updated_by_id,omitempty"`
	UpdatedByName string              `bson:"updated_by_name,omitempty" json:"updated_by_name,omitempty"`
}

// DefaultSiteName is the default site name used when settings don't exist.
const DefaultSiteName = "Guildhall"

// DefaultSiteSettings is returned when no settings document has been saved.
func DefaultSiteSettings() SiteSettings {
	return SiteSettings{
		SiteName:            DefaultSiteName,
		AllowPrivacyChanges: true,
	}
}
