// Package service implements the synchronization engine: reading
// history, bookmarks, goals, and streaks, reconciled between the local
// cache and the remote store.
package service

import (
	"errors"
	"reflect"

	"github.com/go-playground/validator/v10"

	domainerrors "github.com/gleamverse/readsync/internal/errors"
)

// Sentinel errors shared across services.
var (
	// ErrNotInHistory is returned when a book has no history record.
	ErrNotInHistory = domainerrors.ErrNotFound.WithMessage("book not found in reading history")

	// ErrNotBookmarked is returned when a book has no bookmark entry.
	ErrNotBookmarked = domainerrors.ErrNotFound.WithMessage("book is not bookmarked")

	// ErrGoalNotFound is returned when a goal ID has no entry.
	ErrGoalNotFound = domainerrors.ErrNotFound.WithMessage("reading goal not found")

	// ErrGoalTitleEmpty is returned when an update would blank a title.
	ErrGoalTitleEmpty = domainerrors.ErrValidation.WithMessage("title cannot be empty")
)

// validate is the shared validator instance for request structs.
var validate = func() *validator.Validate {
	v := validator.New()
	// Use JSON tag names for field names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("json")
		if name == "" {
			return fld.Name
		}
		// Remove any options (like omitempty, -)
		for i := range len(name) {
			if name[i] == ',' {
				return name[:i]
			}
		}
		return name
	})
	return v
}()

// formatValidationError converts validator errors to domain errors with
// readable messages.
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		// Return first validation error as a domain error
		for _, e := range validationErrs {
			field := e.Field()
			switch e.Tag() {
			case "required":
				return domainerrors.Validationf("%s is required", field)
			case "min":
				return domainerrors.Validationf("%s must be at least %s", field, e.Param())
			case "max":
				return domainerrors.Validationf("%s must be at most %s", field, e.Param())
			case "oneof":
				return domainerrors.Validationf("%s must be one of: %s", field, e.Param())
			default:
				return domainerrors.Validationf("%s is invalid", field)
			}
		}
	}
	return err
}
