package utils

import (
	"fmt"
	"regexp"
	"strings"

	"taskquest/pkg/models"
)

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]{3,50}$`)
	colorRegex    = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
)

// ValidateUsername checks the username format used by the user collaborator
func ValidateUsername(username string) error {
	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("%w: username must be 3-50 letters, digits or underscores", models.ErrInvalidInput)
	}
	return nil
}

// ValidateCategory checks seedable category fields
func ValidateCategory(c *models.Category) error {
	if strings.TrimSpace(c.Name) == "" || len(c.Name) > 50 {
		return fmt.Errorf("%w: category name must be 1-50 characters", models.ErrInvalidInput)
	}
	if c.XPMultiplier < 0 {
		return fmt.Errorf("%w: xp multiplier must not be negative", models.ErrInvalidInput)
	}
	if c.Color != "" && !colorRegex.MatchString(c.Color) {
		return fmt.Errorf("%w: color must look like #rrggbb", models.ErrInvalidInput)
	}
	return nil
}

// ValidateLimit clamps a listing limit into [1, max], using def when unset
func ValidateLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
