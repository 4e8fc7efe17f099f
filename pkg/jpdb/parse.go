package jpdb

import (
	"context"
	"encoding/json"
	"fmt"
)

// Vocabulary is one occurrence of a word in parsed text. Position and Length
// are utf32 code-point units relative to the text submitted to Parse.
// CardState is nil when the learner has no card for this word yet.
type Vocabulary struct {
	VID       int
	SID       int
	Spelling  string
	Reading   string
	CardState *string
	Position  int
	Length    int
}

// IsNew reports whether the learner has no learning record for this word.
func (v Vocabulary) IsNew() bool { return v.CardState == nil }

type parseRequest struct {
	Text                   string   `json:"text"`
	TokenFields            []string `json:"token_fields"`
	VocabularyFields       []string `json:"vocabulary_fields"`
	PositionLengthEncoding string   `json:"position_length_encoding"`
}

type parseResponse struct {
	Tokens     [][]int             `json:"tokens"`
	Vocabulary [][]json.RawMessage `json:"vocabulary"`
}

// Parse tokenizes Japanese text and returns one Vocabulary per token, in
// token order. Positions are relative to the submitted text; callers that
// chunk a larger document must shift them by the chunk's offset.
func (c *Client) Parse(ctx context.Context, text string) ([]Vocabulary, error) {
	req := parseRequest{
		Text:                   text,
		TokenFields:            []string{"vocabulary_index", "position", "length"},
		VocabularyFields:       []string{"vid", "sid", "spelling", "reading", "card_state"},
		PositionLengthEncoding: "utf32",
	}
	var resp parseResponse
	if err := c.post(ctx, "/api/v1/parse", req, &resp); err != nil {
		return nil, err
	}

	vocab := make([]Vocabulary, 0, len(resp.Tokens))
	for _, tok := range resp.Tokens {
		if len(tok) < 3 {
			continue
		}
		idx := tok[0]
		if idx < 0 || idx >= len(resp.Vocabulary) {
			continue
		}
		v, err := decodeVocabularyRow(resp.Vocabulary[idx])
		if err != nil {
			return nil, fmt.Errorf("malformed vocabulary row %d: %w", idx, err)
		}
		v.Position = tok[1]
		v.Length = tok[2]
		vocab = append(vocab, v)
	}
	return vocab, nil
}

// decodeVocabularyRow unpacks the positional [vid, sid, spelling, reading,
// card_state] array the API returns. card_state may be absent or null.
func decodeVocabularyRow(row []json.RawMessage) (Vocabulary, error) {
	var v Vocabulary
	if len(row) < 4 {
		return v, fmt.Errorf("expected at least 4 fields, got %d", len(row))
	}
	if err := json.Unmarshal(row[0], &v.VID); err != nil {
		return v, fmt.Errorf("vid: %w", err)
	}
	if err := json.Unmarshal(row[1], &v.SID); err != nil {
		return v, fmt.Errorf("sid: %w", err)
	}
	if err := json.Unmarshal(row[2], &v.Spelling); err != nil {
		return v, fmt.Errorf("spelling: %w", err)
	}
	if err := json.Unmarshal(row[3], &v.Reading); err != nil {
		return v, fmt.Errorf("reading: %w", err)
	}
	if len(row) > 4 {
		if err := json.Unmarshal(row[4], &v.CardState); err != nil {
			return v, fmt.Errorf("card_state: %w", err)
		}
	}
	return v, nil
}
