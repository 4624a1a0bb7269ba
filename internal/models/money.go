package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

func wrapValidation(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

// FormatCents renders an amount in cents as a decimal string, e.g. 30000 -> "300.00".
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// ParseCents parses a decimal amount such as "150", "150.5" or "150.00" into cents.
// Only digits are accepted on either side of the point.
func ParseCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	invalid := wrapValidation(fmt.Sprintf("invalid amount %q", s))

	whole, frac, hasPoint := strings.Cut(s, ".")
	if !isDigits(whole) || len(frac) > 2 || (hasPoint && !isDigits(frac)) {
		return 0, invalid
	}
	for len(frac) < 2 {
		frac += "0"
	}

	w, err := strconv.ParseUint(whole, 10, 63)
	if err != nil || w > (math.MaxInt64-99)/100 {
		return 0, invalid
	}
	f, err := strconv.ParseUint(frac, 10, 8)
	if err != nil {
		return 0, invalid
	}
	return int64(w)*100 + int64(f), nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
