package domain

import "regexp"

// nameRe is the charset shared by client names, check names, and result
// sources across the HTTP surface and the registry key shapes.
var nameRe = regexp.MustCompile(`^[A-Za-z0-9_.\-]+$`)

// ValidName reports whether s is a well-formed client or check name.
func ValidName(s string) bool {
	return nameRe.MatchString(s)
}

// HistoryWindow is how many recent status codes a client history read
// returns per check. The list itself is bounded by the pipeline.
const HistoryWindow = 21
