// Package parse holds the pure text handling used by the quote pipelines:
// splitting a pasted product list into individual descriptions and pulling
// email addresses out of free text.
package parse

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MinProductLength is the shortest trimmed line (in characters) accepted as a
// product when the input holds several lines.
const MinProductLength = 10

// HeaderKeywords mark a line as a table header when found anywhere in it,
// compared case-insensitively.
var HeaderKeywords = []string{"produto", "item"}

var separatorLine = regexp.MustCompile(`^[-=]+$`)

// Products splits raw input into product descriptions.
//
// Input with at most one non-blank line is a single product. Otherwise every
// non-blank line that is not a header or separator becomes a product, in
// input order. When nothing survives the filter the whole trimmed input is
// returned as one product, never just its first line.
func Products(input string) []string {
	whole := strings.TrimSpace(input)

	lines := nonBlankLines(input)
	if len(lines) <= 1 {
		return []string{whole}
	}

	products := make([]string, 0, len(lines))
	for _, line := range lines {
		if IsHeaderLine(line) {
			continue
		}
		products = append(products, line)
	}

	if len(products) == 0 {
		return []string{whole}
	}
	return products
}

// IsHeaderLine reports whether a trimmed line looks like a header, a
// separator, or is too short to describe a product.
func IsHeaderLine(line string) bool {
	if utf8.RuneCountInString(line) < MinProductLength {
		return true
	}
	lower := strings.ToLower(line)
	for _, kw := range HeaderKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return separatorLine.MatchString(line)
}

func nonBlankLines(input string) []string {
	raw := strings.Split(input, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if t := strings.TrimSpace(l); t != "" {
			lines = append(lines, t)
		}
	}
	return lines
}
