package model

type NotificationKind string

const (
	KindNone    NotificationKind = ""
	KindError   NotificationKind = "error"
	KindWarning NotificationKind = "warning"
	KindSuccess NotificationKind = "success"
)

const (
	ColorError   = "bg-red-500"
	ColorWarning = "bg-orange-500"
	ColorSuccess = "bg-green-500"
)

type Notification struct {
	Kind    NotificationKind
	Message string
}

func (n Notification) Visible() bool {
	return n.Message != ""
}

// Color maps a kind to its presentation class. Unknown kinds render as errors.
func (n Notification) Color() string {
	switch n.Kind {
	case KindWarning:
		return ColorWarning
	case KindSuccess:
		return ColorSuccess
	default:
		return ColorError
	}
}
