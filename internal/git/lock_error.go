// Package git provides the version-control operations srcstage needs.
// This file recognizes git's lock contention errors.
package git

import "strings"

// lockErrorPatterns are the lowercase fragments git prints when another
// process holds a ref or index lock.
var lockErrorPatterns = []string{ //nolint:gochecknoglobals // read-only pattern table
	"index.lock",
	".lock': file exists",
	"unable to create '",
	"another git process seems to be running",
}

// MatchesLockFileError reports whether msg is git's lock contention error.
func MatchesLockFileError(msg string) bool {
	lower := strings.ToLower(msg)
	for _, p := range lockErrorPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
