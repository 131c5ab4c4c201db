// internal/app/policy/privacypolicy/privacypolicy.go
//
// Package privacypolicy holds the mapping between sensitive job category
// force-hide flags and user privacy flags, and the rules that apply it.
// Both the join-time cascade and the edit-time re-enforcement iterate the
// same Dimensions table.
package privacypolicy

import (
	"fmt"
	"sort"

	"github.com/dalemusser/guildhall/internal/domain/models"
)

// Dimension ties one force-hide flag on a category to the show flag it governs.
type Dimension struct {
	Name           string
	ForceHideField string
	ShowField      string

	forced func(c *models.SensitiveJobCategory) bool
	show   func(s *models.UserPrivacySettings) *bool
}

// Forced reports whether the category forces this dimension hidden.
func (d Dimension) Forced(c *models.SensitiveJobCategory) bool {
	return c != nil && d.forced(c)
}

// Dimensions is the full force-hide mapping.
var Dimensions = []Dimension{
	{
		Name: "position", ForceHideField: "force_hide_position", ShowField: "show_position",
		forced: func(c *models.SensitiveJobCategory) bool { return c.ForceHidePosition },
		show:   func(s *models.UserPrivacySettings) *bool { return &s.ShowPosition },
	},
	{
		Name: "department", ForceHideField: "force_hide_department", ShowField: "show_department",
		forced: func(c *models.SensitiveJobCategory) bool { return c.ForceHideDepartment },
		show:   func(s *models.UserPrivacySettings) *bool { return &s.ShowDepartment },
	},
	{
		Name: "bio", ForceHideField: "force_hide_bio", ShowField: "show_bio",
		forced: func(c *models.SensitiveJobCategory) bool { return c.ForceHideBio },
		show:   func(s *models.UserPrivacySettings) *bool { return &s.ShowBio },
	},
	{
		Name: "location", ForceHideField: "force_hide_location", ShowField: "show_location",
		forced: func(c *models.SensitiveJobCategory) bool { return c.ForceHideLocation },
		show:   func(s *models.UserPrivacySettings) *bool { return &s.ShowLocation },
	},
	{
		Name: "phone", ForceHideField: "force_hide_phone", ShowField: "show_phone",
		forced: func(c *models.SensitiveJobCategory) bool { return c.ForceHidePhone },
		show:   func(s *models.UserPrivacySettings) *bool { return &s.ShowPhone },
	},
	{
		Name: "email", ForceHideField: "force_hide_email", ShowField: "show_email",
		forced: func(c *models.SensitiveJobCategory) bool { return c.ForceHideEmail },
		show:   func(s *models.UserPrivacySettings) *bool { return &s.ShowEmail },
	},
	{
		Name: "groups", ForceHideField: "force_hide_groups", ShowField: "show_groups",
		forced: func(c *models.SensitiveJobCategory) bool { return c.ForceHideGroups },
		show:   func(s *models.UserPrivacySettings) *bool { return &s.ShowGroups },
	},
}

// userControlled lists flags no category can touch.
var userControlled = map[string]func(s *models.UserPrivacySettings) *bool{
	"show_name":         func(s *models.UserPrivacySettings) *bool { return &s.ShowName },
	"show_social_links": func(s *models.UserPrivacySettings) *bool { return &s.ShowSocialLinks },
	"show_join_date":    func(s *models.UserPrivacySettings) *bool { return &s.ShowJoinDate },
	"show_last_active":  func(s *models.UserPrivacySettings) *bool { return &s.ShowLastActive },
	"show_connections":  func(s *models.UserPrivacySettings) *bool { return &s.ShowConnections },
}

// FieldChange is one flag whose value changed.
type FieldChange struct {
	Field    string
	OldValue bool
	NewValue bool
}

// UnknownFieldError is returned when a change names a field that is not a privacy flag.
type UnknownFieldError struct {
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown privacy field %q", e.Field)
}

func fieldPtr(s *models.UserPrivacySettings, field string) (*bool, bool) {
	for _, d := range Dimensions {
		if d.ShowField == field {
			return d.show(s), true
		}
	}
	if f, ok := userControlled[field]; ok {
		return f(s), true
	}
	return nil, false
}

// IsField reports whether field names a privacy flag.
func IsField(field string) bool {
	var s models.UserPrivacySettings
	_, ok := fieldPtr(&s, field)
	return ok
}

// Cascade forces every dimension the category hides to false on s. Dimensions
// the category leaves open are untouched: the cascade only tightens.
// Only flags whose value actually changed are returned, so a second cascade
// with the same category returns nothing.
func Cascade(s *models.UserPrivacySettings, c *models.SensitiveJobCategory) []FieldChange {
	if c == nil {
		return nil
	}
	var changes []FieldChange
	for _, d := range Dimensions {
		if !d.forced(c) {
			continue
		}
		p := d.show(s)
		if *p {
			changes = append(changes, FieldChange{Field: d.ShowField, OldValue: true, NewValue: false})
		}
		*p = false
	}
	return changes
}

// Strip removes from requested every field gated by an active force-hide on c.
// It returns the remaining changes and the sorted names of the stripped fields.
// Unknown field names are reported as an error before anything is stripped.
func Strip(requested map[string]bool, c *models.SensitiveJobCategory) (map[string]bool, []string, error) {
	for field := range requested {
		if !IsField(field) {
			return nil, nil, &UnknownFieldError{Field: field}
		}
	}
	allowed := make(map[string]bool, len(requested))
	var blocked []string
	for field, v := range requested {
		if gated(field, c) {
			blocked = append(blocked, field)
			continue
		}
		allowed[field] = v
	}
	sort.Strings(blocked)
	return allowed, blocked, nil
}

func gated(field string, c *models.SensitiveJobCategory) bool {
	for _, d := range Dimensions {
		if d.ShowField == field {
			return d.Forced(c)
		}
	}
	return false
}

// Apply writes changes onto s and returns the flags whose value changed,
// ordered by field name.
func Apply(s *models.UserPrivacySettings, changes map[string]bool) ([]FieldChange, error) {
	fields := make([]string, 0, len(changes))
	for field := range changes {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var out []FieldChange
	for _, field := range fields {
		p, ok := fieldPtr(s, field)
		if !ok {
			return nil, &UnknownFieldError{Field: field}
		}
		nv := changes[field]
		if *p == nv {
			continue
		}
		out = append(out, FieldChange{Field: field, OldValue: *p, NewValue: nv})
		*p = nv
	}
	return out, nil
}

// Violations lists show flags that are true although c forces them hidden.
// An empty result means the settings honour the category.
func Violations(s *models.UserPrivacySettings, c *models.SensitiveJobCategory) []string {
	var out []string
	for _, d := range Dimensions {
		if d.Forced(c) && *d.show(s) {
			out = append(out, d.ShowField)
		}
	}
	return out
}
