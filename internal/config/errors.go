package config

// User-facing messages. These end up in notifications, so keep them short.
const (
	ErrTitleRequired   = "Title is required"
	ErrContentRequired = "Content is required"
	ErrTagsRequired    = "Tags is required"
	ErrMetaRequired    = "Meta description is required"

	ErrNotAnImage   = "This is not an image!"
	WarnTooManyTags = "Only first four tags will be Selected"

	MsgPostUpdated   = "Post updated successfully"
	MsgConfirmDelete = "Are you sure!"
)

const (
	ErrInitializeDatabaseFmt = "Failed to initialize database: %v"
	ErrInternalServerError   = "Internal server error"
	ErrFormNotFound          = "Form not found"
)
