package parser

import "strconv"

// ParseAmount coerces a human-written numeral into an integer by stripping
// every non-digit rune. Thousands separators ('.') and decimal commas are
// both discarded: "12.345,00$" parses to 1234500. Empty input parses to 0.
func ParseAmount(value string) int64 {
	digits := make([]byte, 0, len(value))
	for i := 0; i < len(value); i++ {
		if value[i] >= '0' && value[i] <= '9' {
			digits = append(digits, value[i])
		}
	}
	if len(digits) == 0 {
		return 0
	}
	n, err := strconv.ParseInt(string(digits), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// amount is a convenience wrapper returning a pointer for optional money/qty
// columns.
func amount(value string) *int64 {
	n := ParseAmount(value)
	return &n
}
