// Package dto provides data transfer objects for the broker HTTP surface.
package dto

import (
	validation "github.com/jellydator/validation"

	customValidation "github.com/allisson/dbgrant/internal/validation"
)

// GrantRequest carries the form fields of a credential grant call.
// The fetch token comes from the URL, not the body.
type GrantRequest struct {
	Host string `form:"host"`
	DB   string `form:"db"`
	Role string `form:"role"`
}

// Validate checks if the grant request is valid.
func (r *GrantRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Host, validation.Required, customValidation.Host),
		validation.Field(&r.DB, validation.Required, customValidation.NotBlank),
		validation.Field(&r.Role, validation.Required, customValidation.Role),
	)
}

// SetRuleRequest carries the form fields of a rule-setting call.
type SetRuleRequest struct {
	Email string `form:"email"`
	Host  string `form:"host"`
	DB    string `form:"db"`
	Role  string `form:"role"`
	Which string `form:"which"`
}

// Validate checks if the set rule request is valid.
func (r *SetRuleRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Email, validation.Required, customValidation.Email),
		validation.Field(&r.Host, validation.Required, customValidation.Host),
		validation.Field(&r.DB, validation.Required, customValidation.NotBlank),
		validation.Field(&r.Role, validation.Required, customValidation.Role),
		validation.Field(&r.Which, validation.Required, customValidation.RuleKind),
	)
}
