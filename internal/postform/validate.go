package postform

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/debemdeboas/the-archive-admin/internal/config"
)

// ValidationError reports the first required field that was left blank.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Validate checks title, content, tags and meta in that order and stops at
// the first blank one.
func Validate(f Fields) error {
	checks := []struct {
		field string
		value string
		rule  validation.Rule
	}{
		{"title", f.Title, validation.Required.Error(config.ErrTitleRequired)},
		{"content", f.Content, validation.Required.Error(config.ErrContentRequired)},
		{"tags", f.Tags, validation.Required.Error(config.ErrTagsRequired)},
		{"meta", f.Meta, validation.Required.Error(config.ErrMetaRequired)},
	}

	for _, c := range checks {
		if err := validation.Validate(strings.TrimSpace(c.value), c.rule); err != nil {
			return &ValidationError{Field: c.field, Err: err}
		}
	}
	return nil
}
