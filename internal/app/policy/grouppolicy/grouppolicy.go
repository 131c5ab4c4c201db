// internal/app/policy/grouppolicy/grouppolicy.go
package grouppolicy

import (
	"errors"

	"github.com/dalemusser/guildhall/internal/domain/models"
)

// Authority identifies which approval authority a resolver acts under.
type Authority int

const (
	// AuthorityNone means the actor may not act on the group.
	AuthorityNone Authority = iota
	// AuthorityGroup is Tier A: the actor is an admin or moderator of the group.
	AuthorityGroup
	// AuthorityPlatform is Tier B: a platform admin acting for a group with no admin.
	AuthorityPlatform
)

func (a Authority) String() string {
	switch a {
	case AuthorityGroup:
		return "group"
	case AuthorityPlatform:
		return "platform"
	}
	return "none"
}

var (
	// ErrNoAuthority is returned when the actor holds neither tier of authority.
	ErrNoAuthority = errors.New("actor has no authority over this group")
	// ErrGroupHasAdmin is returned when a platform admin tries to act for a group
	// that still has at least one admin of its own.
	ErrGroupHasAdmin = errors.New("this group has an administrator; route the decision there")
)

// HasGroupAuthority reports whether a membership role carries group-level authority.
// It is the single predicate behind invitation management, join-request
// resolution, and the exclusivity exemption.
func HasGroupAuthority(role string) bool {
	return role == models.RoleAdmin || role == models.RoleModerator
}

// ExemptFromExclusivity reports whether a membership with this role is ignored
// by the professional-group exclusivity check.
func ExemptFromExclusivity(role string) bool {
	return HasGroupAuthority(role)
}

// Actor describes what we know about the acting user relative to one group.
// MemberRole is empty when the actor is not a member of the group.
type Actor struct {
	MemberRole      string
	IsPlatformAdmin bool
}

// CanManageInvitations reports whether the actor may create, cancel, or resend
// invitations for the group. Platform admins always can.
func CanManageInvitations(a Actor) bool {
	return HasGroupAuthority(a.MemberRole) || a.IsPlatformAdmin
}

// ResolveJoinRequestAuthority decides which tier, if any, lets the actor resolve
// a join request. Group authority wins when the actor has it. Platform authority
// is a fallback that only applies while the group has zero admins.
func ResolveJoinRequestAuthority(a Actor, groupAdminCount int64) (Authority, error) {
	if HasGroupAuthority(a.MemberRole) {
		return AuthorityGroup, nil
	}
	if !a.IsPlatformAdmin {
		return AuthorityNone, ErrNoAuthority
	}
	if groupAdminCount > 0 {
		return AuthorityNone, ErrGroupHasAdmin
	}
	return AuthorityPlatform, nil
}
