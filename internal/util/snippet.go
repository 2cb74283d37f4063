package util

import (
	"sort"
	"strings"
	"unicode"
)

const defaultSnippetRunes = 320

var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "to": {}, "of": {}, "in": {}, "on": {},
	"for": {}, "is": {}, "are": {}, "was": {}, "were": {}, "what": {}, "how": {}, "why": {},
	"which": {}, "that": {}, "this": {}, "these": {}, "those": {}, "with": {}, "from": {},
}

// Snippet picks the sentences of chunk that share the most terms with query
// and trims the result to maxRunes.
func Snippet(chunk, query string, maxRunes int) string {
	if maxRunes <= 0 {
		maxRunes = defaultSnippetRunes
	}
	chunk = normalizeWhitespace(SanitizeText(chunk))
	if chunk == "" {
		return ""
	}
	terms := queryTerms(query)
	sentences := splitSentences(chunk)
	if len(terms) == 0 || len(sentences) < 2 {
		return truncateRunes(chunk, maxRunes)
	}

	type scored struct {
		idx   int
		score int
	}
	list := make([]scored, 0, len(sentences))
	for i, s := range sentences {
		low := strings.ToLower(s)
		n := 0
		for _, term := range terms {
			if strings.Contains(low, term) {
				n++
			}
		}
		list = append(list, scored{idx: i, score: n})
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].score > list[j].score })

	if list[0].score == 0 {
		return truncateRunes(chunk, maxRunes)
	}
	picked := []int{list[0].idx}
	if list[1].score > 0 {
		picked = append(picked, list[1].idx)
		sort.Ints(picked)
	}
	parts := make([]string, 0, len(picked))
	for _, i := range picked {
		parts = append(parts, sentences[i])
	}
	return truncateRunes(strings.Join(parts, " "), maxRunes)
}

func splitSentences(s string) []string {
	out := make([]string, 0, 8)
	var b strings.Builder
	for _, r := range s {
		b.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if x := strings.TrimSpace(b.String()); x != "" {
				out = append(out, x)
			}
			b.Reset()
		}
	}
	if rest := strings.TrimSpace(b.String()); rest != "" {
		out = append(out, rest)
	}
	return out
}

func queryTerms(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	seen := map[string]struct{}{}
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) < 3 {
			continue
		}
		if _, ok := stopWords[f]; ok {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		terms = append(terms, f)
	}
	return terms
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return strings.TrimSpace(string(r[:max])) + "..."
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// FirstLine returns the first non-empty line of s, trimmed to maxRunes.
func FirstLine(s string, maxRunes int) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return truncateRunes(normalizeWhitespace(line), maxRunes)
		}
	}
	return ""
}
