package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizeTerm prepares a term for lookup, caching and storage:
//   - NFC normalization (pinyin diacritics have composed and decomposed forms)
//   - trims leading/trailing whitespace
//   - collapses internal whitespace runs into a single space
//
// Case is preserved: Latin letters inside Chinese terms (e.g. "卡拉OK") are
// meaningful.
func NormalizeTerm(text string) string {
	text = norm.NFC.String(text)
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(text))
	prevSpace := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			if prevSpace {
				continue
			}
			prevSpace = true
			b.WriteRune(' ')
			continue
		}
		prevSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

// IsHanzi reports whether r is in the CJK Unified Ideographs block.
func IsHanzi(r rune) bool {
	return r >= 0x4E00 && r <= 0x9FFF
}

// ContainsHanzi reports whether s contains at least one Chinese character.
func ContainsHanzi(s string) bool {
	for _, r := range s {
		if IsHanzi(r) {
			return true
		}
	}
	return false
}

// ExtractHanziRuns returns the maximal runs of Chinese characters in s,
// in order of appearance.
func ExtractHanziRuns(s string) []string {
	var runs []string
	start := -1
	for i, r := range s {
		if IsHanzi(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			runs = append(runs, s[start:i])
			start = -1
		}
	}
	if start >= 0 {
		runs = append(runs, s[start:])
	}
	return runs
}
