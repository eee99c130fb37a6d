package utils

import (
	"errors"
	"fmt"
)

// ErrorWithSuggestion wraps an error with a user-friendly suggestion.
type ErrorWithSuggestion struct {
	Err        error
	Suggestion string
}

// Error implements the error interface.
func (e *ErrorWithSuggestion) Error() string {
	return fmt.Sprintf("%s\n\nSuggestion: %s", e.Err.Error(), e.Suggestion)
}

// GetSuggestion returns the suggestion text.
func (e *ErrorWithSuggestion) GetSuggestion() string {
	return e.Suggestion
}

// Unwrap returns the underlying error for error chain support.
func (e *ErrorWithSuggestion) Unwrap() error {
	return e.Err
}

// WrapWithSuggestion wraps an existing error with a suggestion.
func WrapWithSuggestion(err error, suggestion string) error {
	return &ErrorWithSuggestion{
		Err:        err,
		Suggestion: suggestion,
	}
}

// ErrTodoNotFound returns an error for when a todo is not found.
func ErrTodoNotFound(searchTerm string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("todo not found: %s", searchTerm),
		Suggestion: "Check the id or title, or run 'thingsish show' to see the active project",
	}
}

// ErrProjectNotFound returns an error for when a project is not found.
func ErrProjectNotFound(name string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("project not found: %s", name),
		Suggestion: fmt.Sprintf("Create the project with 'thingsish project add %s'", name),
	}
}

// ErrDuplicateProject returns an error for a project name that is already used.
func ErrDuplicateProject(name string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("name %q is already used", name),
		Suggestion: "Project names are compared case-insensitively; pick a different name",
	}
}

// ErrInboxProtected returns an error for attempts to delete the Inbox.
func ErrInboxProtected() error {
	return &ErrorWithSuggestion{
		Err:        errors.New("the Inbox project cannot be deleted"),
		Suggestion: "Delete the todos in the Inbox instead",
	}
}

// ErrEmptyInput returns an error for a required field left blank.
func ErrEmptyInput(field string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("%s cannot be empty", field),
		Suggestion: fmt.Sprintf("Provide a non-blank %s", field),
	}
}

// ErrInvalidDate returns an error for an invalid date string.
func ErrInvalidDate(dateStr string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("invalid date: %s", dateStr),
		Suggestion: "Use date format YYYY-MM-DD (e.g., 2026-01-15), today, tomorrow or +Nd",
	}
}

// ErrUnknownStorage returns an error for an unregistered storage backend.
func ErrUnknownStorage(name string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("unknown storage backend: %s", name),
		Suggestion: "Set storage.backend to sqlite, file or memory in your config file",
	}
}
