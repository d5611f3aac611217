package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizer cleans user supplied post and comment content.
// Policies are safe for concurrent use.
type ContentSanitizer struct {
	strict *bluemonday.Policy
	ugc    *bluemonday.Policy
}

func NewContentSanitizer() *ContentSanitizer {
	ugc := bluemonday.UGCPolicy()
	ugc.RequireNoReferrerOnLinks(true)
	ugc.AddTargetBlankToFullyQualifiedLinks(true)

	return &ContentSanitizer{
		strict: bluemonday.StrictPolicy(),
		ugc:    ugc,
	}
}

// PlainText strips every tag and returns trimmed, unescaped text.
func (s *ContentSanitizer) PlainText(input string) string {
	return strings.TrimSpace(html.UnescapeString(s.strict.Sanitize(input)))
}

// RichText keeps the formatting tags allowed in user generated content.
func (s *ContentSanitizer) RichText(input string) string {
	return strings.TrimSpace(s.ugc.Sanitize(input))
}

// Tags sanitizes each tag as plain text and drops the empty ones.
func (s *ContentSanitizer) Tags(tags []string) []string {
	cleaned := make([]string, 0, len(tags))
	for _, tag := range tags {
		if t := s.PlainText(tag); t != "" {
			cleaned = append(cleaned, t)
		}
	}
	return cleaned
}
