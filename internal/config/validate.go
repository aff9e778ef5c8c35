package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ErrDuplicateProperty is returned when two fields share a frontmatter key.
var ErrDuplicateProperty = errors.New("duplicate property name")

var validate = validator.New()

// Validate checks enum values and that every managed property name is unique.
func (s *Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	seen := make(map[string]bool)
	for _, name := range s.Fields.ManagedPropertyNames() {
		if seen[name] {
			return fmt.Errorf("%w: %q", ErrDuplicateProperty, name)
		}
		seen[name] = true
	}
	return nil
}
