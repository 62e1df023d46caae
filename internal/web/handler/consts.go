package handler

const (
	// RootPath is the root path of a route group.
	RootPath = "/"

	// APIPath is the prefix shared by all JSON API routes.
	APIPath = "/api"

	// ErrNilACRFatalLogMsg is used if the app, cfg or rec pointer is nil.
	ErrNilACRFatalLogMsg = "app, cfg or rec is nil"
)
