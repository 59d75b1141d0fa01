// Package sanitize strips markup from page- and visitor-supplied text before
// it is persisted or interpolated into a model prompt. It is the first layer
// of defense against stored prompt injection.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	// Comments first, including multi-line bodies and extra dashes.
	commentRe = regexp.MustCompile(`(?s)<!--.*?-->`)

	// Remaining tag-like substrings. The body is length-bounded so a long
	// unclosed "<" run cannot cause pathological scanning.
	tagRe = regexp.MustCompile(`<[^<>]{0,512}>`)

	// Numeric character references are stripped, never decoded.
	numericRefRe = regexp.MustCompile(`&#[xX]?[0-9a-fA-F]{1,8};`)
)

// entityReplacer decodes the fixed allow-list of named entities. The
// apostrophe reference is decoded here, before numeric stripping, and
// &amp; is handled last so escaped entity text stays literal.
var entityReplacer = strings.NewReplacer(
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
)

const maxStripPasses = 8

// Clean sanitizes text for storage and prompt use. It never fails; empty
// input yields an empty string.
func Clean(text string) string {
	if text == "" {
		return ""
	}

	text = strings.ReplaceAll(text, "\x00", "")

	// Tag and comment removal can expose new candidates (e.g. "<<b>>"),
	// so repeat until stable.
	for i := 0; i < maxStripPasses; i++ {
		stripped := commentRe.ReplaceAllString(text, "")
		stripped = tagRe.ReplaceAllString(stripped, "")
		if stripped == text {
			break
		}
		text = stripped
	}

	text = strings.ReplaceAll(text, "&#x27;", "'")
	text = numericRefRe.ReplaceAllString(text, "")
	text = entityReplacer.Replace(text)
	text = strings.ReplaceAll(text, "&amp;", "&")

	return strings.TrimSpace(text)
}
