package deck

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/japaniel/jpdbdeck/pkg/jpdb"
	"github.com/japaniel/jpdbdeck/pkg/textseg"
	"github.com/japaniel/jpdbdeck/pkg/vocab"
)

// Service is the narrow slice of the jpdb API a run needs. Keeping it an
// interface lets the chunking and attribution logic run against a canned
// implementation in tests.
type Service interface {
	Ping(ctx context.Context) error
	Parse(ctx context.Context, text string) ([]jpdb.Vocabulary, error)
	CreateDeck(ctx context.Context, name string) (int64, error)
	AddVocabulary(ctx context.Context, deckID int64, refs [][2]int) error
	SetCardSentence(ctx context.Context, vid, sid int, sentence string) error
}

// Builder drives a full deck-building run: chunked parsing, aggregation,
// deck creation, vocabulary addition and per-card sentence setting.
type Builder struct {
	Client    Service
	Segmenter *textseg.Segmenter

	// ChunkSize is the maximum code points per parse request.
	ChunkSize int
	// BatchSize is the number of vocabulary pairs per add-vocabulary call.
	BatchSize int
	// ChunkPause is slept between parse requests, SentencePause after every
	// ten set-card-sentence calls. Both only lower the odds of being rate
	// limited; correctness does not depend on them.
	ChunkPause    time.Duration
	SentencePause time.Duration

	DryRun   bool
	AllWords bool
	Verbose  bool

	// Logger receives progress output. nil disables it.
	Logger *log.Logger
}

// NewBuilder creates a Builder with the defaults the jpdb API tolerates.
func NewBuilder(client Service) *Builder {
	return &Builder{
		Client:        client,
		Segmenter:     textseg.NewSegmenter(),
		ChunkSize:     5000,
		BatchSize:     100,
		ChunkPause:    300 * time.Millisecond,
		SentencePause: 500 * time.Millisecond,
	}
}

// Summary reports what a run did, or for a dry run, would have done.
type Summary struct {
	Tokens          int
	UniqueWords     int
	Sentences       int
	TargetWords     int
	DeckID          int64
	VocabularyAdded int
	SentencesSet    int
	Errors          int
	DryRun          bool
}

// Run parses text, builds the deck and sets per-card sentences. Failures on
// individual set-card-sentence calls are tallied in Summary.Errors and never
// abort the run; parse, deck-creation and add-vocabulary failures do.
func (b *Builder) Run(ctx context.Context, text, deckName string) (*Summary, error) {
	sentences := b.Segmenter.Split(text)
	chunks := b.Segmenter.Plan(text, b.ChunkSize)

	if b.Verbose && len(chunks) > 1 {
		b.logf("  Text too large, splitting into %d chunks...", len(chunks))
	}

	results := make([][]jpdb.Vocabulary, len(chunks))
	for i, chunk := range chunks {
		if b.Verbose && len(chunks) > 1 {
			b.logf("  Parsing chunk %d/%d (%d chars)...", i+1, len(chunks), len([]rune(chunk.Text)))
		}
		parsed, err := b.Client.Parse(ctx, chunk.Text)
		if err != nil {
			return nil, fmt.Errorf("parse chunk %d/%d: %w", i+1, len(chunks), err)
		}
		results[i] = parsed
		if i < len(chunks)-1 {
			b.pause(ctx, b.ChunkPause)
		}
	}

	agg := vocab.Aggregate(chunks, results, sentences)
	unique := agg.Unique()
	targets := agg.Targets(b.AllWords)

	summary := &Summary{
		Tokens:      len(agg.Occurrences),
		UniqueWords: len(unique),
		Sentences:   len(sentences),
		TargetWords: len(targets),
		DryRun:      b.DryRun,
	}

	b.logf("Found %d tokens, %d unique words", summary.Tokens, summary.UniqueWords)
	b.logf("Split into %d sentences", summary.Sentences)
	if b.AllWords {
		b.logf("Found %d words to set sentences for", summary.TargetWords)
	} else {
		b.logf("Found %d new words to set sentences for", summary.TargetWords)
	}

	if b.Verbose {
		b.logTargets(targets)
	}

	if b.DryRun {
		// Projection only: same counts, no remote mutations.
		summary.VocabularyAdded = len(unique)
		summary.SentencesSet = len(targets)
		return summary, nil
	}

	b.logf("Creating deck: %s", deckName)
	deckID, err := b.Client.CreateDeck(ctx, deckName)
	if err != nil {
		return nil, fmt.Errorf("create deck: %w", err)
	}
	summary.DeckID = deckID
	b.logf("Created deck with ID: %d", deckID)

	keys := agg.Keys()
	b.logf("Adding %d vocabulary items to deck...", len(keys))
	batches := (len(keys) + b.BatchSize - 1) / b.BatchSize
	for i := 0; i < len(keys); i += b.BatchSize {
		end := i + b.BatchSize
		if end > len(keys) {
			end = len(keys)
		}
		if err := b.Client.AddVocabulary(ctx, deckID, keys[i:end]); err != nil {
			return nil, fmt.Errorf("add vocabulary batch %d/%d: %w", i/b.BatchSize+1, batches, err)
		}
		if b.Verbose {
			b.logf("  Added batch %d/%d", i/b.BatchSize+1, batches)
		}
	}
	summary.VocabularyAdded = len(keys)

	b.logf("Setting custom sentences for %d words...", len(targets))
	for i, e := range targets {
		if !e.HasSentence {
			if b.Verbose {
				b.logf("  Skipping %s: no sentence found", e.Spelling)
			}
			continue
		}
		if err := b.Client.SetCardSentence(ctx, e.VID, e.SID, e.Sentence); err != nil {
			summary.Errors++
			if b.Verbose {
				b.logf("  [%d/%d] Error setting sentence for %s: %v", i+1, len(targets), e.Spelling, err)
			}
		} else {
			summary.SentencesSet++
			if b.Verbose {
				b.logf("  [%d/%d] Set sentence for %s", i+1, len(targets), e.Spelling)
			}
		}
		if (i+1)%10 == 0 && i < len(targets)-1 {
			b.pause(ctx, b.SentencePause)
		}
	}

	return summary, nil
}

// pause sleeps for d but returns early when ctx is canceled.
func (b *Builder) pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (b *Builder) logf(format string, v ...any) {
	if b.Logger != nil {
		b.Logger.Printf(format, v...)
	}
}

// logTargets prints the first few target words and their sentences.
func (b *Builder) logTargets(targets []*vocab.Entry) {
	if len(targets) == 0 {
		return
	}
	b.logf("Words and their sentences:")
	limit := len(targets)
	if limit > 10 {
		limit = 10
	}
	for _, e := range targets[:limit] {
		sentence := "(no sentence found)"
		if e.HasSentence {
			sentence = truncate(e.Sentence, 50)
		}
		b.logf("  %s (%s): %s", e.Spelling, e.Reading, sentence)
	}
	if len(targets) > 10 {
		b.logf("  ... and %d more", len(targets)-10)
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
