// Package provider holds the result types shared by the external source
// adapters and the enrichment service.
package provider

// DictionaryCandidate is one entry returned by a dictionary lookup.
type DictionaryCandidate struct {
	Term        string
	Traditional string
	// Syllables is the tone-marked pinyin, one element per syllable.
	Syllables  []string
	Definition string
}

// StrokeResult is the outcome of a stroke-diagram lookup.
type StrokeResult struct {
	// GlossLines are per-character meaning notes, best effort.
	GlossLines  []string
	DiagramURLs []string
}

// Sentence is one generated example sentence.
type Sentence struct {
	Chinese string `json:"chinese"`
	Pinyin  string `json:"pinyin"`
	English string `json:"english"`
}
