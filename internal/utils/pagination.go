// Package utils provides small, generic helpers shared across layers. They
// carry no domain or business logic.
package utils

import "strconv"

// AtoiDefault parses s as an int and falls back to def when s is empty or
// malformed. Used for query parameters like page and page_size, where a
// garbled value should degrade to the default rather than fail the request.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}
