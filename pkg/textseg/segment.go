package textseg

import "strings"

// DefaultTerminators are the sentence-ending runes for Japanese prose:
// 。(U+3002), ！(U+FF01), ？(U+FF1F) and newline.
var DefaultTerminators = []rune{'。', '！', '？', '\n'}

// Sentence is one sentence of the source text with its span in code points.
// The span is half-open [Start, End) and measured on the untrimmed text;
// trimming affects only Text. Offsets count Unicode code points (not bytes)
// because the parse API reports positions in utf32 units.
type Sentence struct {
	Text  string
	Start int
	End   int
}

// Segmenter splits text into sentences at runs of terminator runes.
type Segmenter struct {
	terminators map[rune]bool
}

// NewSegmenter creates a Segmenter for the given terminator runes.
// With no arguments it uses DefaultTerminators.
func NewSegmenter(terminators ...rune) *Segmenter {
	if len(terminators) == 0 {
		terminators = DefaultTerminators
	}
	set := make(map[rune]bool, len(terminators))
	for _, r := range terminators {
		set[r] = true
	}
	return &Segmenter{terminators: set}
}

// Split returns the sentences of text in order. A maximal run of terminators
// ends a sentence, so consecutive terminators collapse into one boundary.
// Trailing text after the last run becomes a final sentence if non-blank.
// Sentences that are blank after trimming are skipped but their span is not
// merged into a neighbor, so spans stay strictly increasing.
func (s *Segmenter) Split(text string) []Sentence {
	runes := []rune(text)
	var sentences []Sentence
	start := 0
	i := 0
	for i < len(runes) {
		if !s.terminators[runes[i]] {
			i++
			continue
		}
		for i < len(runes) && s.terminators[runes[i]] {
			i++
		}
		if t := strings.TrimSpace(string(runes[start:i])); t != "" {
			sentences = append(sentences, Sentence{Text: t, Start: start, End: i})
		}
		start = i
	}
	if start < len(runes) {
		if t := strings.TrimSpace(string(runes[start:])); t != "" {
			sentences = append(sentences, Sentence{Text: t, Start: start, End: len(runes)})
		}
	}
	return sentences
}

// SentenceAt returns the sentence whose span contains the given code-point
// position, or false when no sentence covers it.
func SentenceAt(sentences []Sentence, pos int) (Sentence, bool) {
	for _, s := range sentences {
		if s.Start <= pos && pos < s.End {
			return s, true
		}
	}
	return Sentence{}, false
}
