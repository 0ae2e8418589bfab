// Package validation provides custom validation rules for the application.
package validation

import (
	"regexp"
	"strings"

	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/dbgrant/internal/errors"
)

var (
	// emailRegex is a basic email validation pattern
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

	// hostRegex covers hostnames with an optional port
	hostRegex = regexp.MustCompile(`^[a-zA-Z0-9.\-]+(:\d{1,5})?$`)
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// Email validates email format using regex
var Email = validation.NewStringRuleWithError(
	func(s string) bool {
		return emailRegex.MatchString(s)
	},
	validation.NewError("validation_email_format", "must be a valid email address"),
)

// Host validates a database host name with an optional port
var Host = validation.NewStringRuleWithError(
	func(s string) bool {
		return hostRegex.MatchString(s)
	},
	validation.NewError("validation_host_format", "must be a valid host name"),
)

// Role validates that a string is one of the two grantable roles
var Role = validation.NewStringRuleWithError(
	func(s string) bool {
		return s == "read" || s == "readWrite"
	},
	validation.NewError("validation_role", "must be one of 'read' or 'readWrite'"),
)

// RuleKind validates that a string names one of the rule collections
var RuleKind = validation.NewStringRuleWithError(
	func(s string) bool {
		return s == "allow" || s == "deny"
	},
	validation.NewError("validation_rule_kind", "must be one of 'allow' or 'deny'"),
)

// ValidateEmailParam validates a raw email URL parameter, wrapping failures
// as ErrInvalidInput.
func ValidateEmailParam(email string) error {
	if err := validation.Validate(email, validation.Required, Email); err != nil {
		return WrapValidationError(err)
	}
	return nil
}

// NotBlank validates that a string is not empty after trimming whitespace
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)
