package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/ledgerly/compliance-api/internal/models"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate

	gstinPattern = regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z][0-9A-Z]Z[0-9A-Z]$`)
	panPattern   = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)
)

func init() {
	Validate = validator.New()

	// Register custom validators for enums and tax identifiers
	// These should never fail in normal operation, but log if they do
	if err := Validate.RegisterValidation("user_role", validateUserRole); err != nil {
		panic(fmt.Sprintf("failed to register user_role validator: %v", err))
	}
	if err := Validate.RegisterValidation("user_status", validateUserStatus); err != nil {
		panic(fmt.Sprintf("failed to register user_status validator: %v", err))
	}
	if err := Validate.RegisterValidation("compliance_type", validateComplianceType); err != nil {
		panic(fmt.Sprintf("failed to register compliance_type validator: %v", err))
	}
	if err := Validate.RegisterValidation("compliance_status", validateComplianceStatus); err != nil {
		panic(fmt.Sprintf("failed to register compliance_status validator: %v", err))
	}
	if err := Validate.RegisterValidation("task_priority", validateTaskPriority); err != nil {
		panic(fmt.Sprintf("failed to register task_priority validator: %v", err))
	}
	if err := Validate.RegisterValidation("account_type", validateAccountType); err != nil {
		panic(fmt.Sprintf("failed to register account_type validator: %v", err))
	}
	if err := Validate.RegisterValidation("gstin", validateGSTIN); err != nil {
		panic(fmt.Sprintf("failed to register gstin validator: %v", err))
	}
	if err := Validate.RegisterValidation("pan", validatePAN); err != nil {
		panic(fmt.Sprintf("failed to register pan validator: %v", err))
	}
}

func validateUserRole(fl validator.FieldLevel) bool {
	return models.ValidRole(fl.Field().String())
}

func validateUserStatus(fl validator.FieldLevel) bool {
	return models.ValidUserStatus(fl.Field().String())
}

func validateComplianceType(fl validator.FieldLevel) bool {
	return models.ValidComplianceType(fl.Field().String())
}

func validateComplianceStatus(fl validator.FieldLevel) bool {
	return models.ValidComplianceStatus(fl.Field().String())
}

func validateTaskPriority(fl validator.FieldLevel) bool {
	return models.ValidTaskPriority(fl.Field().String())
}

func validateAccountType(fl validator.FieldLevel) bool {
	return models.ValidAccountType(fl.Field().String())
}

// validateGSTIN checks the 15-character Indian GST identification format
func validateGSTIN(fl validator.FieldLevel) bool {
	return gstinPattern.MatchString(fl.Field().String())
}

// validatePAN checks the 10-character Indian permanent account number format
func validatePAN(fl validator.FieldLevel) bool {
	return panPattern.MatchString(fl.Field().String())
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	// Trim whitespace
	text = strings.TrimSpace(text)

	// Remove control characters except newline and tab
	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// ValidateGSTIN validates a GSTIN string value
func ValidateGSTIN(value string) error {
	if !gstinPattern.MatchString(value) {
		return fmt.Errorf("invalid gstin: %s (expected 15-character GST identification number)", value)
	}
	return nil
}

// ValidateRole validates a user role string value
func ValidateRole(value string) error {
	if !models.ValidRole(value) {
		return fmt.Errorf("invalid role: %s (must be 'admin', 'manager', 'accountant', 'auditor', 'data_entry', or 'client')", value)
	}
	return nil
}

// ValidateComplianceType validates a compliance type string value
func ValidateComplianceType(value string) error {
	if !models.ValidComplianceType(value) {
		return fmt.Errorf("invalid type: %s (must be 'gst', 'tds', 'itr', 'pf', 'esi', 'roc', or 'custom')", value)
	}
	return nil
}
