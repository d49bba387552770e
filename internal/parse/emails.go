package parse

import "regexp"

// EmailPattern matches an email address anywhere in free text. The top-level
// label needs at least two letters; nothing beyond the shape is checked.
const EmailPattern = `[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`

var emailRe = regexp.MustCompile(EmailPattern)

// Emails returns every address found in text, deduplicated by exact match
// and kept in first-seen order. The result is never nil.
func Emails(text string) []string {
	return Union(emailRe.FindAllString(text, -1))
}

// Union concatenates lists and drops exact duplicates, keeping the first
// occurrence. The result is never nil.
func Union(lists ...[]string) []string {
	n := 0
	for _, l := range lists {
		n += len(l)
	}

	seen := make(map[string]struct{}, n)
	out := make([]string, 0, n)
	for _, l := range lists {
		for _, s := range l {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}
