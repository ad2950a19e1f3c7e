// Package tone renders Chinese text as tone-colored pinyin and hanzi.
//
// Every function here is pure and safe for concurrent use.
package tone

import (
	"regexp"
	"strings"

	"github.com/mozillazg/go-pinyin"
)

// Neutral is the tone number of a syllable that carries no tone mark.
const Neutral = 0

var toneMarks = map[rune]int{
	'ā': 1, 'á': 2, 'ǎ': 3, 'à': 4,
	'ō': 1, 'ó': 2, 'ǒ': 3, 'ò': 4,
	'ē': 1, 'é': 2, 'ě': 3, 'è': 4,
	'ī': 1, 'í': 2, 'ǐ': 3, 'ì': 4,
	'ū': 1, 'ú': 2, 'ǔ': 3, 'ù': 4,
	'ǖ': 1, 'ǘ': 2, 'ǚ': 3, 'ǜ': 4,
}

var toneColors = [...]string{
	1: "#ff0000",
	2: "#ffaa00",
	3: "#00aa00",
	4: "#0000ff",
}

// ToneOf returns the tone (1-4) of the first tone-marked vowel in syllable,
// or Neutral when there is none.
func ToneOf(syllable string) int {
	for _, r := range syllable {
		if t, ok := toneMarks[r]; ok {
			return t
		}
	}
	return Neutral
}

// ColorOf returns the display color of a tone. The boolean is false for the
// neutral tone and anything out of range; such syllables are emitted unmarked.
func ColorOf(tone int) (string, bool) {
	if tone < 1 || tone >= len(toneColors) {
		return "", false
	}
	return toneColors[tone], true
}

func wrap(color, s string) string {
	return `<span style="color:` + color + `">` + s + `</span>`
}

// pinyinArgs converts one rune at a time; unknown runes echo themselves so
// callers can detect a failed lookup by comparing against the input.
func pinyinArgs() pinyin.Args {
	a := pinyin.NewArgs()
	a.Style = pinyin.Tone
	a.Heteronym = false
	a.Fallback = func(r rune, _ pinyin.Args) []string {
		return []string{string(r)}
	}
	return a
}

var args = pinyinArgs()

// syllableOf returns the tone-marked pinyin of a single rune, or the rune
// itself when it has no reading.
func syllableOf(r rune) string {
	py := pinyin.LazyPinyin(string(r), args)
	if len(py) == 0 || py[0] == "" {
		return string(r)
	}
	return py[0]
}

// Style converts text to (styled pronunciation, styled text). Each character
// contributes one pronunciation token; tokens are space-separated, styled
// characters are concatenated. Characters without a reading, and neutral-tone
// syllables, pass through unmarked. Invalid UTF-8 bytes are replaced with
// U+FFFD.
func Style(text string) (string, string) {
	if text == "" {
		return "", ""
	}

	var (
		pron   []string
		styled strings.Builder
	)
	for _, r := range text {
		ch := string(r)
		syl := syllableOf(r)
		p, s := styleOne(syl, ch)
		pron = append(pron, p)
		styled.WriteString(s)
	}
	return strings.Join(pron, " "), styled.String()
}

// StyleSyllables styles a dictionary-supplied syllable list against the
// characters of term, pairing them by position. Characters beyond the last
// syllable are appended unmarked.
func StyleSyllables(syllables []string, term string) (string, string) {
	chars := []rune(term)
	pron := make([]string, 0, len(syllables))
	var styled strings.Builder

	for i, syl := range syllables {
		ch := ""
		if i < len(chars) {
			ch = string(chars[i])
		}
		p, s := styleOne(syl, ch)
		pron = append(pron, p)
		styled.WriteString(s)
	}
	for i := len(syllables); i < len(chars); i++ {
		styled.WriteRune(chars[i])
	}
	return strings.Join(pron, " "), styled.String()
}

func styleOne(syllable, char string) (string, string) {
	if syllable == char {
		return char, char
	}
	color, ok := ColorOf(ToneOf(syllable))
	if !ok {
		return syllable, char
	}
	if char == "" {
		return wrap(color, syllable), ""
	}
	return wrap(color, syllable), wrap(color, char)
}

var spanTag = regexp.MustCompile(`</?span[^>]*>`)

// Strip removes tone markup, returning the visible text.
func Strip(styled string) string {
	return spanTag.ReplaceAllString(styled, "")
}
