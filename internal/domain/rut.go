package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Chilean RUT handling: normalization to the canonical dotted form
// (NN.NNN.NNN-DV) and modulo-11 check-digit verification.

var (
	rutDotted = regexp.MustCompile(`^(\d{1,2})\.?(\d{3})\.?(\d{3})-([\dkK])$`)
	rutPlain  = regexp.MustCompile(`^(\d{7,8})-([\dkK])$`)
)

// ErrInvalidRUT is returned when a RUT cannot be parsed at all
var ErrInvalidRUT = errors.New("malformed RUT")

// NormalizeRUT returns the canonical dotted form of a RUT, accepting input
// with or without dots, with unicode dashes, and lowercase verifier digit.
func NormalizeRUT(rut string) (string, error) {
	rut = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(rut), " ", ""))
	for _, dash := range []string{"‐", "–", "—"} {
		rut = strings.ReplaceAll(rut, dash, "-")
	}

	if m := rutDotted.FindStringSubmatch(rut); m != nil {
		return fmt.Sprintf("%s.%s.%s-%s", m[1], m[2], m[3], m[4]), nil
	}

	plain := strings.ReplaceAll(rut, ".", "")
	m := rutPlain.FindStringSubmatch(plain)
	if m == nil {
		return "", ErrInvalidRUT
	}

	num := fmt.Sprintf("%08s", m[1])
	return fmt.Sprintf("%s.%s.%s-%s", num[0:2], num[2:5], num[5:8], m[2]), nil
}

// IsValidRUT reports whether the RUT parses and its check digit matches
func IsValidRUT(rut string) bool {
	formatted, err := NormalizeRUT(rut)
	if err != nil {
		return false
	}

	bare := strings.ReplaceAll(formatted, ".", "")
	parts := strings.SplitN(bare, "-", 2)
	return checkDigit(parts[0]) == parts[1]
}

// checkDigit computes the modulo-11 verifier for a RUT number
func checkDigit(number string) string {
	factors := []int{2, 3, 4, 5, 6, 7}
	sum := 0
	for i := 0; i < len(number); i++ {
		d := int(number[len(number)-1-i] - '0')
		sum += d * factors[i%len(factors)]
	}
	switch mod := 11 - (sum % 11); mod {
	case 11:
		return "0"
	case 10:
		return "K"
	default:
		return fmt.Sprintf("%d", mod)
	}
}
