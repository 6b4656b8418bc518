package model

import (
	"strconv"
	"strings"
)

// FormatDecimal renders v in shortest form while always keeping a fractional
// part: 0 -> "0.0", 0.25 -> "0.25", NaN -> "NaN".
func FormatDecimal(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEN") {
		s += ".0"
	}
	return s
}
