package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrantsPermissions(t *testing.T) {
	testCases := []struct {
		name            string
		grants          Grants
		expectedGranted []Permission
	}{
		{
			name:            "full grant allows everything",
			grants:          FullGrant(),
			expectedGranted: AllPermissions(),
		},
		{
			name:            "zero value counts as full",
			grants:          Grants{},
			expectedGranted: AllPermissions(),
		},
		{
			name:            "claims constrain the set",
			grants:          ClaimsGrant([]string{"userManagement", "teamsManagement"}),
			expectedGranted: []Permission{PermUserManagement, PermTeamsManagement},
		},
		{
			name:            "unknown claim names are ignored",
			grants:          ClaimsGrant([]string{"userManagement", "galacticManagement"}),
			expectedGranted: []Permission{PermUserManagement},
		},
		{
			name:            "only unknown claims grant nothing",
			grants:          Grants{Source: GrantClaims, Names: []string{"galacticManagement"}},
			expectedGranted: nil,
		},
		{
			name:            "empty claim list falls back to full",
			grants:          ClaimsGrant(nil),
			expectedGranted: AllPermissions(),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			set := tc.grants.Permissions()

			// Every capability is present as a key either way.
			require.Len(t, set, len(AllPermissions()))

			granted := make(map[Permission]bool, len(tc.expectedGranted))
			for _, perm := range tc.expectedGranted {
				granted[perm] = true
			}

			for _, perm := range AllPermissions() {
				assert.Equal(t, granted[perm], set[perm], perm)
			}
		})
	}
}

func TestNoPermissions(t *testing.T) {
	set := NoPermissions()

	require.Len(t, set, len(AllPermissions()))
	for _, perm := range AllPermissions() {
		granted, ok := set[perm]
		assert.True(t, ok, perm)
		assert.False(t, granted, perm)
	}
}

func TestAllPermissionsDistinct(t *testing.T) {
	perms := AllPermissions()
	seen := make(map[Permission]bool, len(perms))

	for _, perm := range perms {
		assert.False(t, seen[perm], "duplicate permission %s", perm)
		seen[perm] = true
	}

	assert.Len(t, perms, 7)
}
