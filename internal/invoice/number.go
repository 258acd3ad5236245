package invoice

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseNumber converts a localized numeric string into a float. When both
// "." and "," occur, the separator appearing later in the string is the
// decimal separator and the other one marks thousands. Spaces, including
// non-breaking ones, are stripped first. A string that cannot be parsed
// yields 0.0, which callers must treat as "unparsed" rather than free.
func ParseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")
	if strings.Contains(s, ",") && strings.Contains(s, ".") {
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	} else {
		s = strings.ReplaceAll(s, ",", ".")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0.0
	}
	f, _ := d.Float64()
	return f
}
