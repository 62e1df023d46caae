package auth

import "maps"

// State is the reconciled console-wide authentication state. It is derived,
// never stored: a pure function of the latest status from each backend plus
// the current session ID.
type State struct {
	// IsAuthenticated reports whether an actor is signed in. It is true
	// exactly when Actor is non-nil.
	IsAuthenticated bool `json:"isAuthenticated"`
	// Loading is true while any applicable backend has not resolved yet.
	Loading bool `json:"loading"`
	// AuthMode names the backend the actor came from; empty when signed out.
	AuthMode BackendKind `json:"authMode,omitempty"`
	// Actor is the signed-in identity, nil when signed out.
	Actor *Actor `json:"user,omitempty"`
	// Permissions is the actor's capability set; all false when signed out.
	Permissions PermissionSet `json:"permissions"`
	// Reason carries the most relevant backend's explanation when signed out.
	Reason string `json:"reason,omitempty"`
}

// equal reports whether two states describe the same situation. Actors are
// compared by value, so a backend re-reporting the same account does not
// count as a change.
func (s State) equal(other State) bool {
	if s.IsAuthenticated != other.IsAuthenticated ||
		s.Loading != other.Loading ||
		s.AuthMode != other.AuthMode ||
		s.Reason != other.Reason {
		return false
	}

	if (s.Actor == nil) != (other.Actor == nil) {
		return false
	}
	if s.Actor != nil && *s.Actor != *other.Actor {
		return false
	}

	return maps.Equal(s.Permissions, other.Permissions)
}

// snapshot is the reconciliation input: the current session ID and the
// latest status from each backend. A missing map entry means the backend has
// never reported.
type snapshot struct {
	sessionID string
	statuses  map[BackendKind]Status
}

// applicable reports whether a backend participates in reconciliation.
// Session-scoped backends only matter while a session ID exists; the
// interactive backend always participates.
func (s snapshot) applicable(kind BackendKind) bool {
	switch kind {
	case BackendAppOnly, BackendHosted:
		return s.sessionID != ""
	default:
		return true
	}
}

func (s snapshot) authenticated(kind BackendKind) bool {
	st, ok := s.statuses[kind]

	return ok && st.State == StateAuthenticated && st.Actor != nil
}

// rule pairs a precedence predicate with the projection applied when it is
// the first to match.
type rule struct {
	name    string
	when    func(snapshot) bool
	resolve func(snapshot) State
}

// resolution is the precedence table, evaluated top to bottom. Hosted
// sign-ins outrank app credentials, which outrank a locally cached
// interactive account; anything still resolving holds everything at loading.
var resolution = []rule{
	{name: "resolving", when: anyApplicableUnresolved, resolve: resolveLoading},
	{name: "hosted", when: authenticatedVia(BackendHosted), resolve: actorFrom(BackendHosted)},
	{name: "appOnly", when: authenticatedVia(BackendAppOnly), resolve: actorFrom(BackendAppOnly)},
	{name: "interactive", when: authenticatedVia(BackendInteractive), resolve: actorFrom(BackendInteractive)},
	{name: "signedOut", when: func(snapshot) bool { return true }, resolve: resolveSignedOut},
}

func anyApplicableUnresolved(s snapshot) bool {
	for _, kind := range []BackendKind{BackendInteractive, BackendAppOnly, BackendHosted} {
		if !s.applicable(kind) {
			continue
		}

		st, ok := s.statuses[kind]
		if !ok || st.State == StateLoading {
			return true
		}
	}

	return false
}

func authenticatedVia(kind BackendKind) func(snapshot) bool {
	return func(s snapshot) bool {
		return s.applicable(kind) && s.authenticated(kind)
	}
}

func actorFrom(kind BackendKind) func(snapshot) State {
	return func(s snapshot) State {
		st := s.statuses[kind]

		return State{
			IsAuthenticated: true,
			AuthMode:        kind,
			Actor:           st.Actor,
			Permissions:     st.Grants.Permissions(),
		}
	}
}

func resolveLoading(snapshot) State {
	return State{Loading: true, Permissions: NoPermissions()}
}

// resolveSignedOut reports the signed-out state, carrying the reason of the
// highest-precedence backend that gave one.
func resolveSignedOut(s snapshot) State {
	state := State{Permissions: NoPermissions()}

	for _, kind := range []BackendKind{BackendHosted, BackendAppOnly, BackendInteractive} {
		if st, ok := s.statuses[kind]; ok && st.Reason != "" {
			state.Reason = st.Reason
			break
		}
	}

	return state
}

// reconcile projects a snapshot to the published state by applying the first
// matching precedence rule. It performs no I/O and has no side effects;
// calling it twice with the same snapshot yields the same state.
func reconcile(s snapshot) State {
	for _, r := range resolution {
		if r.when(s) {
			return r.resolve(s)
		}
	}

	// The table ends in a catch-all, so this is unreachable.
	return State{Permissions: NoPermissions()}
}
