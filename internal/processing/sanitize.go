// Package processing holds text helpers shared by ingestion and the
// interview stages: paragraph chunking and file-name sanitizing.
package processing

import "regexp"

var unsafeName = regexp.MustCompile(`[^\p{L}\p{N}_\-.]`)

// SanitizeName replaces every character that is not a letter, digit,
// underscore, hyphen or dot with an underscore, so topic names can be used
// as file names.
func SanitizeName(s string) string {
	return unsafeName.ReplaceAllString(s, "_")
}
