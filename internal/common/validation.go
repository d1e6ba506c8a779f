package common

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
)

// ValidationError represents validation failures
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s' with value '%v': %s", e.Field, e.Value, e.Message)
}

// Rule renders the violation as "field: message", the form surfaced to HTTP callers.
func (e ValidationError) Rule() string {
	return e.Field + ": " + e.Message
}

// FieldErrors is the error returned when one or more field rules fail.
type FieldErrors []ValidationError

func (fe FieldErrors) Error() string {
	messages := make([]string, 0, len(fe))
	for _, err := range fe {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, "; ")
}

func (fe FieldErrors) Is(target error) bool {
	return target == ErrValidation
}

// Rules lists the violated rules in "field: message" form.
func (fe FieldErrors) Rules() []string {
	out := make([]string, 0, len(fe))
	for _, err := range fe {
		out = append(out, err.Rule())
	}
	return out
}

// Validator provides validation utilities
type Validator struct {
	errors []ValidationError
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{
		errors: make([]ValidationError, 0),
	}
}

// Field validates a field and collects errors
func (v *Validator) Field(fieldName string, value interface{}, rules ...ValidationRule) *Validator {
	for _, rule := range rules {
		if err := rule(fieldName, value); err != nil {
			v.errors = append(v.errors, *err)
		}
	}
	return v
}

// HasErrors returns true if there are validation errors
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Errors returns all validation errors
func (v *Validator) Errors() []ValidationError {
	return v.errors
}

// Error returns the collected violations as FieldErrors, or nil.
func (v *Validator) Error() error {
	if !v.HasErrors() {
		return nil
	}
	out := make(FieldErrors, len(v.errors))
	copy(out, v.errors)
	return out
}

// ValidationRule represents a single validation rule
type ValidationRule func(fieldName string, value interface{}) *ValidationError

// Required - Common validation rules
func Required(fieldName string, value interface{}) *ValidationError {
	if value == nil {
		return &ValidationError{Field: fieldName, Value: value, Message: "is required"}
	}

	switch v := value.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return &ValidationError{Field: fieldName, Value: value, Message: "is required"}
		}
	case *string:
		if v == nil || strings.TrimSpace(*v) == "" {
			return &ValidationError{Field: fieldName, Value: value, Message: "is required"}
		}
	case []string:
		if v == nil {
			return &ValidationError{Field: fieldName, Value: value, Message: "is required"}
		}
	}
	return nil
}

// OrSentinel lets a value equal to sentinel bypass the wrapped rule.
func OrSentinel(sentinel string, rule ValidationRule) ValidationRule {
	return func(fieldName string, value interface{}) *ValidationError {
		if s, ok := value.(string); ok && s == sentinel {
			return nil
		}
		return rule(fieldName, value)
	}
}

// Email accepts a bare address such as "jane@example.com".
// Display-name forms ("Jane <jane@example.com>") are rejected.
func Email(fieldName string, value interface{}) *ValidationError {
	str, ok := value.(string)
	if !ok {
		return &ValidationError{Field: fieldName, Value: value, Message: "must be a string"}
	}
	addr, err := mail.ParseAddress(str)
	if err != nil || addr.Address != str || !strings.Contains(addr.Address[strings.LastIndexByte(addr.Address, '@')+1:], ".") {
		return &ValidationError{Field: fieldName, Value: value, Message: "must be a valid email address"}
	}
	return nil
}

// Pattern returns a rule matching a string against re.
func Pattern(re *regexp.Regexp, description string) ValidationRule {
	return func(fieldName string, value interface{}) *ValidationError {
		str, ok := value.(string)
		if !ok {
			return &ValidationError{Field: fieldName, Value: value, Message: "must be a string"}
		}
		if !re.MatchString(str) {
			return &ValidationError{Field: fieldName, Value: value, Message: "must match " + description}
		}
		return nil
	}
}

// NonBlankItems rejects string lists containing blank entries.
func NonBlankItems(fieldName string, value interface{}) *ValidationError {
	items, ok := value.([]string)
	if !ok {
		return &ValidationError{Field: fieldName, Value: value, Message: "must be a list of strings"}
	}
	for i, it := range items {
		if strings.TrimSpace(it) == "" {
			return &ValidationError{
				Field:   fieldName,
				Value:   value,
				Message: fmt.Sprintf("entry %d must not be blank", i),
			}
		}
	}
	return nil
}
