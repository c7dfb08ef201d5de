package riskmodel

import (
	"errors"
	"fmt"
)

// NotFoundError reports that a required record could not be located.
// Lookups that hit it are fatal to a generation request; everything
// else in the pipeline degrades instead of failing.
type NotFoundError struct {
	Kind string // "assessment", "recipe", "prompt", "site"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
