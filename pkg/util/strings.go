package util

import "strings"

// IsBlank reports whether a cell holds no value.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
