package utils

import (
	"fmt"
	"math"
	"path/filepath"
	"regexp"
	"strings"
)

var controlChars = regexp.MustCompile(`[\x00-\x1f\x7f]`)

// SanitizeFilename reduces a client supplied name to a safe base name.
// Directory components and control characters are removed.
func SanitizeFilename(name string) string {
	name = controlChars.ReplaceAllString(name, "")
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}

// HasExtension reports whether name ends with one of exts, ignoring case
func HasExtension(name string, exts ...string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return false
	}
	for _, e := range exts {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}

// ValidateAmount validates an extracted monetary amount
func ValidateAmount(amount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return fmt.Errorf("amount is not a number: %v", amount)
	}
	if amount < 0 {
		return fmt.Errorf("amount must not be negative: %.2f", amount)
	}
	if amount > 100_000_000 {
		return fmt.Errorf("amount exceeds maximum limit: %.2f", amount)
	}
	return nil
}

// RoundCents rounds to two decimal places
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
