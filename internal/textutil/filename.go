// Package textutil turns free-form video titles into safe download file names.
package textutil

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	maxTitleLen    = 80
	fallbackTitle  = "clip"
	fallbackBundle = "clips"
)

// SanitizeTitle folds accents, keeps ASCII letters, digits, '-' and '_',
// turns whitespace into '_' and drops everything else. Runs of '_' collapse
// and the result is capped at 80 bytes. An empty result becomes "clip".
func SanitizeTitle(title string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), title)
	if err != nil {
		folded = title
	}

	var b strings.Builder
	lastUnderscore := false
	for _, r := range folded {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-'):
			b.WriteRune(r)
			lastUnderscore = false
		case r == '_' || unicode.IsSpace(r):
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
		if b.Len() >= maxTitleLen {
			break
		}
	}

	out := strings.Trim(b.String(), "_-")
	if len(out) > maxTitleLen {
		out = strings.TrimRight(out[:maxTitleLen], "_-")
	}
	if out == "" {
		return fallbackTitle
	}
	return out
}

// ClipFileName is the download name for the clip at 1-based position.
func ClipFileName(title string, position int) string {
	return fmt.Sprintf("%s_%d.mp4", SanitizeTitle(title), position)
}

// BundleFileName is the download name for a job's zip archive.
func BundleFileName(title string) string {
	name := SanitizeTitle(title)
	if name == fallbackTitle {
		name = fallbackBundle
	}
	return name + ".zip"
}
