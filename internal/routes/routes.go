// Package routes defines HTTP route constants for the application.
package routes

// Ambient
const (
	RobotsPath  = "/robots.txt"
	HealthPath  = "/healthz"
	ThemeToggle = "/theme/toggle"
	SyntaxTheme = "/syntax-theme/set"

	// SSE
	SSEPath = "/sse"

	NotificationsCurrent = "/notifications/current"
	NotificationsDismiss = "/notifications/dismiss"
)

// Listing
const (
	RootPath      = "/{$}"
	PartialsPosts = "/partials/posts"
	DeletePost    = "/posts/{id}"
	Search        = "/search"
	SearchClear   = "/search/clear"
)

// Editor
const (
	CreatePost       = "/create-post"
	UpdatePost       = "/update-post/{slug}"
	UpdatePostPrefix = "/update-post/"

	FormField     = "/form/{form}/field"
	FormThumbnail = "/form/{form}/thumbnail"
	FormImage     = "/form/{form}/image"
	FormSubmit    = "/form/{form}/submit"
	FormReset     = "/form/{form}/reset"
	FormPreview   = "/form/{form}/preview"

	MarkdownHint = "/partials/markdown-hint"
)
