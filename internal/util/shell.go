// Package util provides common utility functions used across the codebase.
package util

import "strings"

// ShellQuote wraps a string in single quotes, escaping any existing single
// quotes. Safe for use in shell commands where the string should be treated
// literally. Used for paths embedded in remote probe commands.
func ShellQuote(s string) string {
	// Replace ' with '\'' (end quote, escaped quote, start quote)
	escaped := strings.ReplaceAll(s, "'", "'\\''")
	return "'" + escaped + "'"
}

// EscapeDoubleQuotes escapes every double quote so a command can be embedded
// inside a double-quoted remote invocation and reach the remote shell
// literally.
func EscapeDoubleQuotes(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}
