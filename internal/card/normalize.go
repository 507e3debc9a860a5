package card

import (
	"regexp"
	"sort"
	"strings"
)

// whitespaceRegex matches one or more whitespace characters
var whitespaceRegex = regexp.MustCompile(`\s+`)

// doiRegex finds a DOI embedded in free text.
var doiRegex = regexp.MustCompile(`(?i)10\.\d{4,9}/[^\s"<>]+`)

// doiPrefixes are resolver prefixes stripped from DOI values, longest first.
var doiPrefixes = []string{
	"https://dx.doi.org/",
	"http://dx.doi.org/",
	"https://doi.org/",
	"http://doi.org/",
	"dx.doi.org/",
	"doi.org/",
	"doi:",
}

// Normalize trims, lowercases and collapses internal whitespace.
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return whitespaceRegex.ReplaceAllString(s, " ")
}

// NormalizeDOI strips resolver prefixes and trailing punctuation from a DOI.
// Returns "" when s does not look like a DOI.
func NormalizeDOI(s string) string {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	for _, p := range doiPrefixes {
		if strings.HasPrefix(lower, p) {
			s = s[len(p):]
			break
		}
	}
	s = strings.TrimRight(s, ".,;:)]}")
	if !strings.HasPrefix(s, "10.") || !strings.Contains(s, "/") {
		return ""
	}
	return s
}

// ExtractDOI returns the first DOI found in the given texts, normalized.
func ExtractDOI(texts ...string) string {
	for _, t := range texts {
		if m := doiRegex.FindString(t); m != "" {
			if doi := NormalizeDOI(m); doi != "" {
				return doi
			}
		}
	}
	return ""
}

// NormalizeTags trims, drops empties and de-duplicates tags.
// Tags are a set, so the result is sorted for stable storage.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// AddBadges appends badges that are not already present, keeping order.
func AddBadges(badges []string, add ...string) []string {
	seen := make(map[string]bool, len(badges)+len(add))
	out := make([]string, 0, len(badges)+len(add))
	for _, b := range append(append([]string(nil), badges...), add...) {
		b = strings.TrimSpace(b)
		if b == "" || seen[b] {
			continue
		}
		seen[b] = true
		out = append(out, b)
	}
	return out
}
