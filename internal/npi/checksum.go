package npi

import (
	"fmt"
	"strings"
)

// cmsPrefix is the card-issuer prefix CMS prepends to every NPI before
// applying the Luhn formula (ISO/IEC 7812, health applications).
const cmsPrefix = "80840"

const (
	ReasonEmpty    = "NPI is empty"
	ReasonFormat   = "NPI must be exactly 10 digits"
	ReasonChecksum = "NPI failed Luhn check digit validation"
)

// ChecksumResult is the outcome of format and check digit validation.
type ChecksumResult struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// Validate checks that s is a well-formed NPI: ten ASCII digits whose last
// digit is the Luhn check digit over the prefixed number. Surrounding
// whitespace is ignored. Only the first failing rule is reported, in the
// order empty, format, checksum.
func Validate(s string) ChecksumResult {
	s = strings.TrimSpace(s)
	if s == "" {
		return ChecksumResult{Error: ReasonEmpty}
	}
	if !isTenDigits(s) {
		return ChecksumResult{Error: ReasonFormat}
	}
	if luhnSum(cmsPrefix+s)%10 != 0 {
		return ChecksumResult{Error: ReasonChecksum}
	}
	return ChecksumResult{Valid: true}
}

// IsValid reports whether s passes Validate.
func IsValid(s string) bool {
	return Validate(s).Valid
}

// Normalize trims surrounding whitespace. It does not validate.
func Normalize(s string) string {
	return strings.TrimSpace(s)
}

// CheckDigit returns the check digit that completes the 9-digit base into a
// valid NPI.
func CheckDigit(base string) (byte, error) {
	if len(base) != 9 || !allDigits(base) {
		return 0, fmt.Errorf("NPI base must be exactly 9 digits, got %q", base)
	}
	// Appending a zero puts the base digits in their final positions; the
	// check digit is whatever brings the sum up to the next multiple of ten.
	sum := luhnSum(cmsPrefix + base + "0")
	return byte('0' + (10-sum%10)%10), nil
}

// luhnSum walks digits right to left, doubling every second digit starting
// with the one left of the check digit.
func luhnSum(digits string) int {
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum
}

func isTenDigits(s string) bool {
	return len(s) == 10 && allDigits(s)
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
