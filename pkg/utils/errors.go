package utils

import (
	"errors"
	"fmt"
	"strings"
)

// CombineErrors combines multiple errors into one
func CombineErrors(errs ...error) error {
	var messages []string
	for _, err := range errs {
		if err != nil {
			messages = append(messages, err.Error())
		}
	}
	if len(messages) == 0 {
		return nil
	}
	return fmt.Errorf("multiple errors: %s", strings.Join(messages, "; "))
}

// FailuresError turns collected per-unit failure messages into one error, nil when empty
func FailuresError(step string, failures []string) error {
	if len(failures) == 0 {
		return nil
	}
	errs := make([]error, 0, len(failures))
	for _, f := range failures {
		errs = append(errs, errors.New(f))
	}
	return fmt.Errorf("%s: %w", step, CombineErrors(errs...))
}
