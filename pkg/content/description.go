package content

import (
	"html"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"podcast-sync/pkg/domain"

	"github.com/PuerkitoBio/goquery"
)

const minLinkLength = 8

// labelPatterns find a labeled reference ("show notes", "more info", and the Dutch
// "meer info") followed by an optional colon and preposition. They are tried in order.
// Group 1 is the first token after the label, group 2 an optional follower.
var labelPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bshow\s*notes\b\s*:?\s*(?:(?:at|on|op)\s+)?(\S+)(?:[ \t]+(\S+))?`),
	regexp.MustCompile(`(?i)\bmore\s+info(?:rmation)?\b\s*:?\s*(?:(?:at|on|op)\s+)?(\S+)(?:[ \t]+(\S+))?`),
	regexp.MustCompile(`(?i)\bmeer\s+info(?:rmatie)?\b\s*:?\s*(?:(?:at|on|op)\s+)?(\S+)(?:[ \t]+(\S+))?`),
}

var (
	bareURLPattern     = regexp.MustCompile(`(?i)\bhttps?://[^\s<>"']+`)
	domainShapePattern = regexp.MustCompile(`(?i)^(?:www\.)?[a-z0-9](?:[a-z0-9-]*[a-z0-9])?(?:\.[a-z0-9](?:[a-z0-9-]*[a-z0-9])?)*\.[a-z]{2,}(?:[/?#]\S*)?$`)
	followerPattern    = regexp.MustCompile(`^[a-z0-9][a-z0-9/#?=&%_.~+-]*$`)
	chapterPattern     = regexp.MustCompile(`\((\d{2}:\d{2}:\d{2})\)[ \t]*([^\r\n]+)`)
)

var conjunctions = map[string]bool{
	"and": true, "or": true, "but": true, "nor": true, "for": true, "the": true,
	"en": true, "of": true, "und": true, "et": true, "to": true, "a": true, "an": true,
}

var linkStopWords = map[string]bool{
	"http://":   true,
	"https://":  true,
	"available": true,
	"download":  true,
	"episodes":  true,
	"homepage":  true,
}

const trailingPunct = `.,;:!?)]}>"'*`
const leadingPunct = `([{<"'*`

// NormalizeText strips markup from a description, decodes entities and collapses whitespace.
func NormalizeText(description string) string {
	text := description
	if strings.ContainsAny(description, "<>") {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader("<div>" + description + "</div>"))
		if err == nil {
			doc.Find("br").ReplaceWithHtml(" ")
			doc.Find("p, div, li").AppendHtml(" ")
			text = doc.Text()
		}
	} else {
		text = html.UnescapeString(description)
	}
	return strings.Join(strings.Fields(text), " ")
}

// ExtractLink returns the show-notes reference found in text, or nil.
// Labeled references win over bare URLs; within each phase the first valid match wins.
func ExtractLink(text string) *string {
	if link, ok := labeledLink(text); ok {
		return &link
	}
	if link, ok := bareLink(text); ok {
		return &link
	}
	return nil
}

func labeledLink(text string) (string, bool) {
	for _, re := range labelPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			candidate := joinFollower(m[1], m[2])
			if link, ok := validateLink(candidate); ok {
				return link, true
			}
		}
	}
	return "", false
}

func bareLink(text string) (string, bool) {
	for _, m := range bareURLPattern.FindAllString(text, -1) {
		if link, ok := validateLink(m); ok {
			return link, true
		}
	}
	for _, token := range strings.Fields(text) {
		token = trimPunct(token)
		if strings.Contains(token, "@") || !domainShapePattern.MatchString(token) {
			continue
		}
		if link, ok := validateLink(token); ok {
			return link, true
		}
	}
	return "", false
}

// joinFollower glues a follower onto the first token when the first token was
// visibly cut at a path or domain separator.
func joinFollower(first, follower string) string {
	if follower == "" {
		return first
	}
	switch {
	case strings.HasSuffix(first, "/"):
	case strings.HasSuffix(first, ".") && !strings.Contains(strings.TrimSuffix(first, "."), "."):
		// host cut before its top-level domain
	default:
		return first
	}
	if !followerPattern.MatchString(follower) {
		return first
	}
	word := strings.TrimRight(follower, trailingPunct)
	if conjunctions[strings.ToLower(word)] {
		return first
	}
	// a short word only continues a host as its top-level domain
	if isLetters(word) && len(word) <= 3 && !strings.HasSuffix(first, ".") {
		return first
	}
	return first + follower
}

// validateLink cleans a candidate and checks that it names a plausible host.
func validateLink(candidate string) (string, bool) {
	candidate = trimPunct(candidate)
	if len(candidate) < minLinkLength || linkStopWords[strings.ToLower(candidate)] {
		return "", false
	}

	lower := strings.ToLower(candidate)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		if strings.Contains(candidate, "://") {
			return "", false
		}
		candidate = "https://" + candidate
	}

	u, err := url.Parse(candidate)
	if err != nil {
		return "", false
	}
	host := u.Hostname()
	if !strings.Contains(host, ".") || len(host) <= 3 {
		return "", false
	}
	if strings.HasPrefix(host, ".") || strings.HasSuffix(host, ".") || strings.Contains(host, "..") {
		return "", false
	}
	return candidate, true
}

func trimPunct(s string) string {
	return strings.TrimLeft(strings.TrimRight(s, trailingPunct), leadingPunct)
}

func isLetters(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// ExtractChapters returns the "(HH:MM:SS) Title" markers of a raw description in order.
// Timestamps are taken as written.
func ExtractChapters(raw string) []domain.Chapter {
	var chapters []domain.Chapter
	for _, m := range chapterPattern.FindAllStringSubmatch(raw, -1) {
		title := strings.TrimSpace(m[2])
		if title == "" {
			continue
		}
		chapters = append(chapters, domain.Chapter{Start: m[1], Title: title})
	}
	return chapters
}
