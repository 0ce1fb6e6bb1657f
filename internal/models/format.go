package models

import (
	"fmt"
	"math"
	"strconv"
)

// FormatUSD renders a dollar amount the way the site does: rounded to whole
// dollars with comma grouping, e.g. 5500 -> "$5,500".
func FormatUSD(value float64) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		value = 0
	}
	neg := value < 0
	n := int64(math.Round(math.Abs(value)))

	s := strconv.FormatInt(n, 10)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	if neg {
		return fmt.Sprintf("-$%s", s)
	}
	return "$" + s
}
