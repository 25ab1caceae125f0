// ABOUTME: SQL helpers for the request log filters.
// ABOUTME: Escapes path prefixes so the log browser matches them literally.

package store

import "strings"

// escapeSQLLike escapes a path prefix for a LIKE ... ESCAPE '\' clause, so a
// filter such as "/api/top_n" matches only paths starting with that text.
func escapeSQLLike(prefix string) string {
	// Backslash first, or the escapes added below would be doubled.
	prefix = strings.ReplaceAll(prefix, `\`, `\\`)
	prefix = strings.ReplaceAll(prefix, "%", `\%`)
	return strings.ReplaceAll(prefix, "_", `\_`)
}
