// Package source imports upstream source releases into a repository as a
// single reviewable commit.
package source

import (
	"fmt"
	"regexp"
	"strings"

	srcerrors "github.com/mrz1836/srcstage/internal/errors"
)

// versionPattern must match at the start of a version string.
var versionPattern = regexp.MustCompile(`^\d+\.\d+\.\d+`)

// VersionPlaceholder is expanded in branch, commit and URL templates.
const VersionPlaceholder = "{version}"

// Channel is a release channel.
type Channel string

// Release channels.
const (
	ChannelStable  Channel = ""
	ChannelBeta    Channel = "beta"
	ChannelNightly Channel = "nightly"
)

// ParseChannel validates a channel name. Empty and "stable" mean ChannelStable.
func ParseChannel(s string) (Channel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "stable":
		return ChannelStable, nil
	case string(ChannelBeta):
		return ChannelBeta, nil
	case string(ChannelNightly):
		return ChannelNightly, nil
	default:
		return "", fmt.Errorf("%q: %w", s, srcerrors.ErrUnknownChannel)
	}
}

// ValidateVersion checks that version starts with MAJOR.MINOR.PATCH.
func ValidateVersion(version string) error {
	if !versionPattern.MatchString(version) {
		return fmt.Errorf("%q is not formatted as MAJOR.MINOR.PATCH: %w", version, srcerrors.ErrInvalidVersion)
	}
	return nil
}

// Tag returns the version with the channel appended, e.g. 1.2.3-beta.
func Tag(version string, channel Channel) string {
	if channel == ChannelStable {
		return version
	}
	return version + "-" + string(channel)
}

// Expand substitutes VersionPlaceholder in template.
func Expand(template, version string) string {
	return strings.ReplaceAll(template, VersionPlaceholder, version)
}
