package domain

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxTitleRunes = 100

// LocalFilename returns a filesystem-safe name for the episode's media:
// the creation timestamp, a sanitized title and the id, followed by ext.
func (e Episode) LocalFilename(ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	stamp := e.CreatedAt.UTC().Format("2006-01-02_15-04-05")
	return fmt.Sprintf("%s_%s_%d%s", stamp, SanitizeTitle(e.Title), e.ID, ext)
}

// SanitizeTitle folds diacritics, drops path and reserved characters and
// caps the result length.
func SanitizeTitle(title string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, title)
	if err != nil {
		folded = title
	}

	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ':', '/', '\\', '*', '?', '"', '<', '>', '|':
			return -1
		}
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, folded)
	cleaned = strings.Join(strings.Fields(cleaned), " ")

	if r := []rune(cleaned); len(r) > maxTitleRunes {
		cleaned = strings.TrimSpace(string(r[:maxTitleRunes]))
	}
	if cleaned == "" {
		return "episode"
	}
	return cleaned
}
