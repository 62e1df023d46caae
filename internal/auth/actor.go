package auth

// BackendKind identifies one of the three identity backends.
type BackendKind string

const (
	// BackendInteractive is the delegated backend: a person signs in through
	// the identity provider and the console acts with their tokens.
	BackendInteractive BackendKind = "interactive"
	// BackendAppOnly is the service-credential backend: a remote session
	// service holds an app-credential session addressed by a session ID.
	BackendAppOnly BackendKind = "appOnly"
	// BackendHosted is the hosting portal backend: a surrounding portal owns
	// the sign-in and lends the console its token and user.
	BackendHosted BackendKind = "hosted"
)

// Actor is the identity the console currently acts as. Exactly one actor is
// authoritative at a time, no matter how many backends report one.
type Actor struct {
	// ID is the backend's stable identifier for the identity.
	ID string `json:"id"`
	// DisplayName is the human-readable name.
	DisplayName string `json:"displayName"`
	// Email is the identity's email address, when the backend supplies one.
	Email string `json:"email,omitempty"`
	// Backend names the backend that authenticated the identity.
	Backend BackendKind `json:"backend"`
}
