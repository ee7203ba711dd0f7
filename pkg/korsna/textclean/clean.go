// Package textclean normalises raw forum text before tokenization.
package textclean

import (
	"regexp"

	"golang.org/x/text/unicode/norm"
)

var (
	urlPattern        = regexp.MustCompile(`https?://\S+|www\.\S+`)
	emailPattern      = regexp.MustCompile(`\S*@\S*\s?`)
	whitespacePattern = regexp.MustCompile(`[\s\p{Z}\x{85}]+`)
	// Hangul syllables, ASCII digits and letters, whitespace.
	disallowedPattern = regexp.MustCompile(`[^\x{AC00}-\x{D7A3}0-9a-zA-Z\s]`)
)

// Clean applies the preprocessing chain:
//
//  1. NFC normalisation so decomposed jamo become syllables
//  2. URL removal
//  3. email removal
//  4. whitespace runs collapsed to a single space
//  5. removal of every character that is not a Hangul syllable, ASCII
//     digit or letter, or whitespace
//
// Removing characters in step 5 can leave adjacent spaces, so runs are
// collapsed once more. Clean(Clean(s)) == Clean(s).
func Clean(text string) string {
	t := norm.NFC.String(text)
	t = RemoveURLs(t)
	t = RemoveEmails(t)
	t = CollapseWhitespace(t)
	t = RemoveDisallowed(t)
	return CollapseWhitespace(t)
}

// RemoveURLs strips http(s) and www URLs.
func RemoveURLs(text string) string {
	return urlPattern.ReplaceAllString(text, "")
}

// RemoveEmails strips anything containing '@' up to and including one
// trailing whitespace character.
func RemoveEmails(text string) string {
	return emailPattern.ReplaceAllString(text, "")
}

// CollapseWhitespace replaces each run of whitespace, including newlines and
// Unicode spaces, with one ASCII space.
func CollapseWhitespace(text string) string {
	return whitespacePattern.ReplaceAllString(text, " ")
}

// RemoveDisallowed keeps Hangul syllables, ASCII alphanumerics and whitespace.
func RemoveDisallowed(text string) string {
	return disallowedPattern.ReplaceAllString(text, "")
}

// CleanAll cleans every text, preserving order.
func CleanAll(texts []string) []string {
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = Clean(t)
	}
	return out
}
