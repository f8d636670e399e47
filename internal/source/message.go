package source

import "strings"

// DefaultBugURLTemplate turns a numeric bug id into a link.
const DefaultBugURLTemplate = "http://b/%s"

// FormatBug returns a numeric bug expanded through urlTemplate ("%s" is
// replaced by the id). Anything else is returned unchanged.
func FormatBug(bug, urlTemplate string) string {
	bug = strings.TrimSpace(bug)
	if bug == "" || !isDigits(bug) {
		return bug
	}
	if urlTemplate == "" {
		urlTemplate = DefaultBugURLTemplate
	}
	return strings.ReplaceAll(urlTemplate, "%s", bug)
}

// FormatCommitMessage expands version in template and, when bug is set,
// appends a "Bug:" trailer after a blank line.
func FormatCommitMessage(template, version, bug, bugURLTemplate string) string {
	msg := Expand(template, version)
	if ref := FormatBug(bug, bugURLTemplate); ref != "" {
		msg += "\n\nBug: " + ref
	}
	return msg
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
