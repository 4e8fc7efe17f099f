package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"

	"github.com/go-shiori/go-readability"
)

var (
	// (?s) allows dot to match newlines
	reRT = regexp.MustCompile(`(?si)<rt\b[^>]*>.*?</rt>`)
	reRP = regexp.MustCompile(`(?si)<rp\b[^>]*>.*?</rp>`)
)

// StripRuby removes ruby text (<rt>...</rt>) and ruby parentheses
// (<rp>...</rp>) from HTML content. Readability extracts all text including
// furigana, which otherwise duplicates the base text (e.g. "漢字" becomes
// "漢字かんじ") and confuses the parse positions downstream.
func StripRuby(content []byte) []byte {
	cleaned := reRT.ReplaceAll(content, []byte{})
	return reRP.ReplaceAll(cleaned, []byte{})
}

// Article is the readable text pulled out of an HTML document.
type Article struct {
	Title string
	Text  string
}

// FromHTML extracts the main article text from raw HTML, stripping ruby
// annotations first.
func FromHTML(content []byte) (*Article, error) {
	u, _ := url.Parse("http://localhost/")
	article, err := readability.FromReader(bytes.NewReader(StripRuby(content)), u)
	if err != nil {
		return nil, fmt.Errorf("failed to extract article: %w", err)
	}
	return &Article{Title: article.Title, Text: article.TextContent}, nil
}
