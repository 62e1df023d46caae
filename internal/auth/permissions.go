package auth

// Permission names a console capability gated on the signed-in identity.
type Permission string

const (
	// PermUserManagement allows managing user accounts and licenses.
	PermUserManagement Permission = "userManagement"
	// PermDeviceManagement allows managing enrolled devices and their policies.
	PermDeviceManagement Permission = "deviceManagement"
	// PermMailManagement allows managing mailboxes and mail flow.
	PermMailManagement Permission = "mailManagement"
	// PermSharePointManagement allows managing sites and sharing settings.
	PermSharePointManagement Permission = "sharePointManagement"
	// PermTeamsManagement allows managing teams and meeting policies.
	PermTeamsManagement Permission = "teamsManagement"
	// PermComplianceManagement allows managing retention and audit settings.
	PermComplianceManagement Permission = "complianceManagement"
	// PermDefenderManagement allows managing threat policies and alerts.
	PermDefenderManagement Permission = "defenderManagement"
)

// AllPermissions lists every capability the console gates on, in display order.
func AllPermissions() []Permission {
	return []Permission{
		PermUserManagement,
		PermDeviceManagement,
		PermMailManagement,
		PermSharePointManagement,
		PermTeamsManagement,
		PermComplianceManagement,
		PermDefenderManagement,
	}
}

// PermissionSet maps every capability to whether the current actor holds it.
// All capabilities are always present as keys.
type PermissionSet map[Permission]bool

// GrantSource tags how a backend's permission grant expands into a set.
type GrantSource string

const (
	// GrantFull is the implicit full grant carried by backends whose identity
	// is trusted wholesale (interactive sign-ins and app credentials).
	GrantFull GrantSource = "full"
	// GrantClaims derives capabilities from the claim names a hosting portal
	// reports for its user.
	GrantClaims GrantSource = "claims"
)

// Grants is a backend's typed permission grant: its source, plus the claim
// names when claim-derived.
type Grants struct {
	Source GrantSource
	Names  []string
}

// FullGrant returns the grant used by backends that carry no capability
// claims of their own.
func FullGrant() Grants {
	return Grants{Source: GrantFull}
}

// ClaimsGrant returns a grant derived from a hosting portal's claim names.
// An empty list falls back to the full grant; a portal that does not
// constrain capabilities grants them all.
func ClaimsGrant(names []string) Grants {
	if len(names) == 0 {
		return FullGrant()
	}

	return Grants{Source: GrantClaims, Names: names}
}

// Permissions expands the grant into a concrete capability set. Claim names
// that match no known capability are ignored.
func (g Grants) Permissions() PermissionSet {
	set := make(PermissionSet, len(AllPermissions()))

	switch g.Source {
	case GrantClaims:
		granted := make(map[Permission]bool, len(g.Names))
		for _, name := range g.Names {
			granted[Permission(name)] = true
		}
		for _, perm := range AllPermissions() {
			set[perm] = granted[perm]
		}
	default:
		for _, perm := range AllPermissions() {
			set[perm] = true
		}
	}

	return set
}

// NoPermissions returns a set denying every capability. It is the permission
// set of a signed-out console.
func NoPermissions() PermissionSet {
	set := make(PermissionSet, len(AllPermissions()))
	for _, perm := range AllPermissions() {
		set[perm] = false
	}

	return set
}
