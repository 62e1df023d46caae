package auth

import "time"

// ProbeState is one backend's resolution state.
type ProbeState string

const (
	// StateLoading means the backend has not resolved its current status yet.
	StateLoading ProbeState = "loading"
	// StateUnauthenticated means the backend resolved without an identity.
	StateUnauthenticated ProbeState = "unauthenticated"
	// StateAuthenticated means the backend resolved a signed-in identity.
	StateAuthenticated ProbeState = "authenticated"
)

// Status is one backend's typed report. Seq orders reports from the same
// backend; receivers must discard a report that is not newer than the last
// one applied, so a late completion of superseded work cannot roll state
// back.
type Status struct {
	// Backend names the reporting backend.
	Backend BackendKind
	// State is the backend's resolution state.
	State ProbeState
	// Actor is the signed-in identity; set exactly when State is authenticated.
	Actor *Actor
	// Grants is the backend's permission grant for the actor.
	Grants Grants
	// Reason explains an unauthenticated state, when the backend has one.
	Reason string
	// Seq is the backend-local monotonic sequence number of this report.
	Seq uint64
	// At is when the report was produced.
	At time.Time
}

// Sink receives backend status reports. The reconciler is the production
// implementation; tests substitute recorders.
type Sink interface {
	Apply(Status)
}
