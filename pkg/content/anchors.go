package content

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var labelWord = regexp.MustCompile(`(?i)\b(?:show\s*notes|more\s+info(?:rmation)?|meer\s+info(?:rmatie)?)\b`)

// anchorLinks collects absolute hrefs from the anchors in an HTML description.
// Anchors whose text carries a show-notes label are returned in labeled, the
// rest in plain, both in document order.
func anchorLinks(description string) (labeled, plain []string) {
	if !strings.Contains(strings.ToLower(description), "<a") {
		return nil, nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(description))
	if err != nil {
		return nil, nil
	}

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href := strings.TrimSpace(sel.AttrOr("href", ""))
		lowerHref := strings.ToLower(href)
		if !strings.HasPrefix(lowerHref, "http://") && !strings.HasPrefix(lowerHref, "https://") {
			return
		}
		if anchorTextMentionsLabel(sel.Text()) {
			labeled = append(labeled, href)
		} else {
			plain = append(plain, href)
		}
	})
	return labeled, plain
}

// anchorTextMentionsLabel returns true if the anchor text names a show-notes style reference
func anchorTextMentionsLabel(text string) bool {
	return labelWord.MatchString(text)
}

// ExtractDescriptionLink finds the reference link of a raw, possibly HTML, description.
// Labeled anchors rank first, then the text heuristics of ExtractLink, then any other anchor.
func ExtractDescriptionLink(description string) *string {
	labeled, plain := anchorLinks(description)
	for _, href := range labeled {
		if link, ok := validateLink(href); ok {
			return &link
		}
	}
	if link := ExtractLink(NormalizeText(description)); link != nil {
		return link
	}
	for _, href := range plain {
		if link, ok := validateLink(href); ok {
			return &link
		}
	}
	return nil
}
