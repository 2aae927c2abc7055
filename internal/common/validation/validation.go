// Package validation holds field-level validators shared by the step screens
// and the wizard's advance gates.
package validation

import "regexp"

var (
	emailPattern  = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	mobilePattern = regexp.MustCompile(`^[6-9]\d{9}$`)
	otpPattern    = regexp.MustCompile(`^\d{6}$`)
	panPattern    = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)
)

// ValidateEmail validates email format.
func ValidateEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidateMobile validates a 10-digit Indian mobile number.
func ValidateMobile(mobile string) bool {
	return mobilePattern.MatchString(mobile)
}

// ValidateOTP validates a 6-digit numeric code.
func ValidateOTP(code string) bool {
	return otpPattern.MatchString(code)
}

// ValidatePAN validates a permanent account number.
func ValidatePAN(pan string) bool {
	return panPattern.MatchString(pan)
}
