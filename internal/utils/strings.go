package utils

import "unicode/utf8"

// Truncate returns at most n characters of s, never splitting a rune.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// Mask shows the first n characters of a secret followed by "...".
func Mask(secret string, n int) string {
	if secret == "" {
		return ""
	}
	return Truncate(secret, n) + "..."
}
