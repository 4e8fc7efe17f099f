package morph

import (
	"regexp"
	"strings"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// Token is a single analyzed unit of text.
type Token struct {
	Surface    string // the text as it appears (e.g. "行っ")
	BaseForm   string // the dictionary form (e.g. "行く")
	Reading    string // hiragana reading
	PrimaryPOS string // first part-of-speech label (Kagome IPA)
}

// Analyzer wraps a kagome tokenizer for offline analysis. It is used by the
// offline preview mode only; real parsing is delegated to the jpdb service.
type Analyzer struct {
	t *tokenizer.Tokenizer
}

// NewAnalyzer creates a tokenizer backed by the IPA dictionary.
func NewAnalyzer() (*Analyzer, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, err
	}
	return &Analyzer{t: t}, nil
}

// Analyze breaks text into tokens with readings and base forms.
// Whitespace-only tokens are dropped.
func (a *Analyzer) Analyze(text string) []Token {
	var result []Token
	for _, token := range a.t.Tokenize(text) {
		if token.Class == tokenizer.DUMMY {
			continue
		}
		if strings.TrimSpace(token.Surface) == "" {
			continue
		}

		// Kagome IPA features: 0 POS, 1-3 sub-POS, 4-5 conjugation,
		// 6 base form, 7 reading.
		features := token.Features()

		base := token.Surface
		if len(features) > 6 && features[6] != "*" {
			base = features[6]
		}
		reading := ""
		if len(features) > 7 && features[7] != "*" {
			reading = ToHiragana(features[7])
		}
		primaryPOS := ""
		if len(features) > 0 {
			primaryPOS = features[0]
		}

		result = append(result, Token{
			Surface:    token.Surface,
			BaseForm:   base,
			Reading:    reading,
			PrimaryPOS: primaryPOS,
		})
	}
	return result
}

var asciiOnly = regexp.MustCompile(`^[a-zA-Z0-9\s[:punct:]]+$`)

// ContentWords filters tokens down to countable vocabulary: symbols,
// particles, auxiliary verbs and pure-ASCII runs are dropped.
func ContentWords(tokens []Token) []Token {
	var out []Token
	for _, t := range tokens {
		switch t.PrimaryPOS {
		case "記号", "補助記号", "助詞", "助動詞":
			continue
		}
		if asciiOnly.MatchString(t.Surface) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// UniqueLemmas returns the distinct base forms in first-seen order.
func UniqueLemmas(tokens []Token) []string {
	seen := make(map[string]bool, len(tokens))
	var out []string
	for _, t := range tokens {
		lemma := t.BaseForm
		if lemma == "" || lemma == "*" {
			lemma = t.Surface
		}
		if seen[lemma] {
			continue
		}
		seen[lemma] = true
		out = append(out, lemma)
	}
	return out
}

// ToHiragana converts katakana runes to hiragana, leaving others untouched.
func ToHiragana(s string) string {
	runes := []rune(s)
	for i, r := range runes {
		if r >= 0x30A1 && r <= 0x30F6 {
			runes[i] = r - 0x60
		}
	}
	return string(runes)
}
