package domain

import (
	"strings"
)

// MaxStrokeDiagrams is the number of stroke-diagram columns in the export
// format; enrichment never emits more diagrams than this.
const MaxStrokeDiagrams = 6

// VocabularyRecord is the display-ready result of enriching one term.
// Every field defaults to empty; a record with all fields empty means the
// pipeline found nothing for the term.
type VocabularyRecord struct {
	Term                  string            `json:"term"`
	StyledPronunciation   string            `json:"styled_pronunciation"`
	StyledTerm            string            `json:"styled_term"`
	Traditional           string            `json:"traditional"`
	Translation           string            `json:"translation"`
	Gloss                 string            `json:"gloss"`
	ExampleSentences      []ExampleSentence `json:"example_sentences"`
	RelatedEntries        []RelatedEntry    `json:"related_entries"`
	IllustrativeImageRef  string            `json:"illustrative_image_ref"`
	PronunciationAudioRef string            `json:"pronunciation_audio_ref"`
	StrokeDiagramRefs     []string          `json:"stroke_diagram_refs"`
}

// ExampleSentence is one generated usage example.
type ExampleSentence struct {
	SourceText          string `json:"source_text"`
	StyledText          string `json:"styled_text"`
	StyledPronunciation string `json:"styled_pronunciation"`
	TranslationText     string `json:"translation_text"`
	AudioRef            string `json:"audio_ref"`
}

// RelatedEntry is a dictionary candidate that was not chosen as the main
// entry (compounds and homographs shown under the card).
type RelatedEntry struct {
	Term                string `json:"term"`
	StyledTerm          string `json:"styled_term"`
	StyledPronunciation string `json:"styled_pronunciation"`
	Definition          string `json:"definition"`
	AudioRef            string `json:"audio_ref"`
}

// NewVocabularyRecord returns an empty record with all collections allocated.
func NewVocabularyRecord() VocabularyRecord {
	return VocabularyRecord{
		ExampleSentences:  []ExampleSentence{},
		RelatedEntries:    []RelatedEntry{},
		StrokeDiagramRefs: []string{},
	}
}

// IsEmpty reports whether no enrichment stage contributed anything.
// Term is the input and does not count.
func (r VocabularyRecord) IsEmpty() bool {
	return r.StyledPronunciation == "" &&
		r.StyledTerm == "" &&
		r.Traditional == "" &&
		r.Translation == "" &&
		r.Gloss == "" &&
		len(r.ExampleSentences) == 0 &&
		len(r.RelatedEntries) == 0 &&
		r.IllustrativeImageRef == "" &&
		r.PronunciationAudioRef == "" &&
		len(r.StrokeDiagramRefs) == 0
}

// ExportColumns is the column order of the flat flashcard export.
var ExportColumns = []string{
	"term", "styled_term", "pronunciation", "translation", "gloss",
	"audio", "sentences", "image",
	"stroke_1", "stroke_2", "stroke_3", "stroke_4", "stroke_5", "stroke_6",
}

// ExportRow flattens the record into ExportColumns order. Missing stroke
// diagrams are exported as empty cells.
func (r VocabularyRecord) ExportRow() []string {
	row := make([]string, 0, len(ExportColumns))
	row = append(row,
		r.Term,
		r.StyledTerm,
		r.StyledPronunciation,
		r.Translation,
		r.Gloss,
		r.PronunciationAudioRef,
		r.sentenceBlock(),
		r.IllustrativeImageRef,
	)
	for i := 0; i < MaxStrokeDiagrams; i++ {
		if i < len(r.StrokeDiagramRefs) {
			row = append(row, r.StrokeDiagramRefs[i])
		} else {
			row = append(row, "")
		}
	}
	return row
}

func (r VocabularyRecord) sentenceBlock() string {
	if len(r.ExampleSentences) == 0 {
		return ""
	}
	var b strings.Builder
	for _, s := range r.ExampleSentences {
		b.WriteString(`<div class="example">`)
		b.WriteString(`<div class="hanzi">` + s.StyledText + `</div>`)
		b.WriteString(`<div class="pinyin">` + s.StyledPronunciation + `</div>`)
		if s.AudioRef != "" {
			b.WriteString(`<audio src="` + s.AudioRef + `" preload="auto"></audio>`)
		}
		b.WriteString(`<div class="translation">` + s.TranslationText + `</div>`)
		b.WriteString(`</div>`)
	}
	return b.String()
}
