// utils/validation.go
package utils

import (
	"regexp"
	"strings"
)

var (
	phoneRegex = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)
	panRegex   = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)
	gstinRegex = regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z][1-9A-Z]Z[0-9A-Z]$`)
)

// ValidatePhone checks if a phone number is in a valid international format
func ValidatePhone(phone string) bool {
	// Clean the phone number
	cleaned := strings.ReplaceAll(phone, " ", "")
	cleaned = strings.ReplaceAll(cleaned, "-", "")
	cleaned = strings.ReplaceAll(cleaned, "(", "")
	cleaned = strings.ReplaceAll(cleaned, ")", "")

	return phoneRegex.MatchString(cleaned)
}

// ValidatePan checks the Indian PAN format (e.g. ABCDE1234F).
func ValidatePan(pan string) bool {
	return panRegex.MatchString(strings.ToUpper(strings.TrimSpace(pan)))
}

// ValidateGstin checks the 15-character GSTIN format.
func ValidateGstin(gstin string) bool {
	return gstinRegex.MatchString(strings.ToUpper(strings.TrimSpace(gstin)))
}
