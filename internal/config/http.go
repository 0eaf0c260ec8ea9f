package config

const (
	HCType        = "Content-Type"
	HETag         = "ETag"
	HCacheControl = "Cache-Control"
	HRequestID    = "X-Request-ID"

	HHxRedirect = "Hx-Redirect"
	HHxTrigger  = "Hx-Trigger"
	HHxRequest  = "Hx-Request"

	CTypeCSS  = "text/css"
	CTypeHTML = "text/html"
	CTypeJSON = "application/json"
	CTypeForm = "application/x-www-form-urlencoded"
)

const (
	HTTPErrMethodNotAllowed = "Method not allowed"
)

const (
	CookieTheme       = "theme"
	CookieSyntaxTheme = "syntax-theme"
	CookieSession     = "admin-session"
)
