package chunker

import (
	"regexp"
	"strings"
	"unicode"
)

// Boundary is the text-boundary detection strategy used by the splitter.
// The default is regex based; it can be swapped for a real NLP sentence
// splitter without touching the accumulation algorithm.
type Boundary interface {
	SplitSentences(text string) []string
	HeadingTitle(line string) (string, bool)
}

type regexBoundary struct{}

func DefaultBoundary() Boundary {
	return regexBoundary{}
}

var (
	//a sentence ends at ./!/? followed by whitespace
	sentenceBreak = regexp.MustCompile(`[.!?]\s+`)
	markdownHead  = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
	numberedHead  = regexp.MustCompile(`^\d+(\.\d+)*[.)]?\s+\S`)
)

func (regexBoundary) SplitSentences(text string) []string {
	var sentences []string
	last := 0
	for _, loc := range sentenceBreak.FindAllStringIndex(text, -1) {
		//keep the terminating punctuation, drop the whitespace
		s := strings.TrimSpace(text[last : loc[0]+1])
		if s != "" {
			sentences = append(sentences, s)
		}
		last = loc[1]
	}
	if tail := strings.TrimSpace(text[last:]); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

func (regexBoundary) HeadingTitle(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return "", false
	}

	if m := markdownHead.FindStringSubmatch(trimmed); m != nil {
		return strings.TrimSpace(strings.TrimRight(m[2], "#")), true
	}

	if isAllCapsHeading(trimmed) {
		return trimmed, true
	}

	if numberedHead.MatchString(trimmed) {
		return trimmed, true
	}

	return "", false
}

// isAllCapsHeading treats short shouty lines ("PROJECT OVERVIEW") as section
// headings. Requires at least 6 chars, at least one letter, and no lowercase.
func isAllCapsHeading(line string) bool {
	if len(line) < 6 {
		return false
	}
	hasLetter := false
	for _, r := range line {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	return hasLetter
}
