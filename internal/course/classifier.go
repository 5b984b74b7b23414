package course

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Classification is the result of classifying a single file name.
type Classification struct {
	Role        FileRole
	Ordinal     string
	DisplayName string
}

// roleByExt is the fixed extension→role table. Lookup is
// case-insensitive; anything unlisted (or extensionless) is RoleOther.
var roleByExt = map[string]FileRole{
	".mp4":  RoleVideo,
	".vtt":  RoleSubtitle,
	".pdf":  RolePDF,
	".html": RoleHTML,
	".txt":  RoleText,
	".zip":  RoleArchive,
	".odp":  RolePresentation,
}

// ordinalRe matches a leading run of digits immediately followed by a
// literal dot, e.g. "12. Deployment.mp4".
var ordinalRe = regexp.MustCompile(`^(\d+)\.`)

// extSuffixRe strips a trailing recognized extension from a display
// name. Applied after the ordinal prefix is removed, so a name like
// "12.mp4" (where the ordinal's dot is the extension's dot) degrades
// gracefully instead of double-stripping.
var extSuffixRe = regexp.MustCompile(`(?i)\.(mp4|vtt|pdf|html|txt|zip|odp)$`)

// Classify maps a file name to its role, leading ordinal, and display
// name. It is a pure function and never fails: unmatched extensions
// fall back to RoleOther and names without a numeric prefix get ordinal
// "0", so unordered files collapse into a single group rather than
// erroring.
func Classify(name string) Classification {
	c := Classification{
		Role:    RoleOther,
		Ordinal: "0",
	}

	ext := strings.ToLower(filepath.Ext(name))
	if role, ok := roleByExt[ext]; ok {
		c.Role = role
	}

	display := name
	if m := ordinalRe.FindStringSubmatch(name); m != nil {
		c.Ordinal = m[1]
		display = display[len(m[0]):]
	}

	// Strip a trailing recognized extension; unknown extensions stay
	// part of the display name.
	display = extSuffixRe.ReplaceAllString(display, "")

	c.DisplayName = strings.TrimSpace(display)
	return c
}

// StripOrdinal removes a leading "<digits>." prefix from a name and
// trims whitespace. Used for section directory display names, which
// carry ordinals for sort order but no extension.
func StripOrdinal(name string) string {
	if m := ordinalRe.FindStringSubmatch(name); m != nil {
		name = name[len(m[0]):]
	}
	return strings.TrimSpace(name)
}
