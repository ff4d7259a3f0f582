package normalize

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrNonNumericAmount is returned when a cargo amount cannot be read as a number
var ErrNonNumericAmount = errors.New("non-numeric cargo amount")

// NaN is written in place of an amount that is not a number
const NaN = "NaN"

var decimalPattern = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// CoerceAmount strips thousands separators and rewrites raw as a plain base-10 number:
// "1,234" -> "1234", "12.50" -> "12.5". Anything else yields NaN and ErrNonNumericAmount.
func CoerceAmount(raw string) (string, error) {
	s := strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	if !decimalPattern.MatchString(s) {
		return NaN, fmt.Errorf("%w: %q", ErrNonNumericAmount, raw)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return NaN, fmt.Errorf("%w: %q", ErrNonNumericAmount, raw)
	}
	return strconv.FormatFloat(f, 'f', -1, 64), nil
}

// IsNumeric reports whether s reads as a plain decimal number
func IsNumeric(s string) bool {
	return decimalPattern.MatchString(strings.TrimSpace(s))
}
