package deck

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/japaniel/jpdbdeck/pkg/jpdb"
)

// fakeService records calls and serves canned parse results.
type fakeService struct {
	parse func(text string) []jpdb.Vocabulary

	parsedTexts   []string
	createdDecks  []string
	addCalls      [][][2]int
	sentenceCalls map[int]string // vid -> sentence

	sentenceErrFor map[int]bool // vids whose SetCardSentence fails
}

func newFakeService(parse func(text string) []jpdb.Vocabulary) *fakeService {
	return &fakeService{
		parse:          parse,
		sentenceCalls:  make(map[int]string),
		sentenceErrFor: make(map[int]bool),
	}
}

func (f *fakeService) Ping(ctx context.Context) error { return nil }

func (f *fakeService) Parse(ctx context.Context, text string) ([]jpdb.Vocabulary, error) {
	f.parsedTexts = append(f.parsedTexts, text)
	return f.parse(text), nil
}

func (f *fakeService) CreateDeck(ctx context.Context, name string) (int64, error) {
	f.createdDecks = append(f.createdDecks, name)
	return 42, nil
}

func (f *fakeService) AddVocabulary(ctx context.Context, deckID int64, refs [][2]int) error {
	f.addCalls = append(f.addCalls, refs)
	return nil
}

func (f *fakeService) SetCardSentence(ctx context.Context, vid, sid int, sentence string) error {
	if f.sentenceErrFor[vid] {
		return fmt.Errorf("boom")
	}
	f.sentenceCalls[vid] = sentence
	return nil
}

func occ(vid, pos int, spelling string, state *string) jpdb.Vocabulary {
	return jpdb.Vocabulary{VID: vid, SID: 1, Spelling: spelling, CardState: state, Position: pos, Length: 1}
}

func quietBuilder(svc Service) *Builder {
	b := NewBuilder(svc)
	b.ChunkPause = 0
	b.SentencePause = 0
	return b
}

const twoSentences = "猫が大好きです。犬も大好きです。"

func TestRunBuildsDeckAndSetsSentences(t *testing.T) {
	known := "known"
	svc := newFakeService(func(text string) []jpdb.Vocabulary {
		return []jpdb.Vocabulary{
			occ(1, 0, "猫", nil),
			occ(2, 3, "好き", &known),
			occ(3, 8, "犬", nil),
		}
	})
	b := quietBuilder(svc)

	summary, err := b.Run(context.Background(), twoSentences, "Test Deck")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(svc.createdDecks) != 1 || svc.createdDecks[0] != "Test Deck" {
		t.Errorf("created decks = %v", svc.createdDecks)
	}
	if len(svc.addCalls) != 1 || len(svc.addCalls[0]) != 3 {
		t.Errorf("expected one add-vocabulary call with 3 items, got %v", svc.addCalls)
	}
	// Only the two new words get sentences; the known word is skipped.
	if len(svc.sentenceCalls) != 2 {
		t.Fatalf("expected 2 sentence calls, got %d", len(svc.sentenceCalls))
	}
	if svc.sentenceCalls[1] != "猫が大好きです。" {
		t.Errorf("猫 sentence = %q", svc.sentenceCalls[1])
	}
	if svc.sentenceCalls[3] != "犬も大好きです。" {
		t.Errorf("犬 sentence = %q", svc.sentenceCalls[3])
	}

	if summary.Tokens != 3 || summary.UniqueWords != 3 || summary.Sentences != 2 {
		t.Errorf("summary counts = %+v", summary)
	}
	if summary.DeckID != 42 || summary.VocabularyAdded != 3 || summary.SentencesSet != 2 || summary.Errors != 0 {
		t.Errorf("summary results = %+v", summary)
	}
}

func TestDryRunPerformsNoMutations(t *testing.T) {
	svc := newFakeService(func(text string) []jpdb.Vocabulary {
		return []jpdb.Vocabulary{occ(1, 0, "猫", nil), occ(2, 8, "犬", nil)}
	})
	b := quietBuilder(svc)
	b.DryRun = true

	summary, err := b.Run(context.Background(), twoSentences, "Test Deck")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(svc.createdDecks) != 0 || len(svc.addCalls) != 0 || len(svc.sentenceCalls) != 0 {
		t.Errorf("dry run made remote mutations: decks=%v adds=%v sentences=%v",
			svc.createdDecks, svc.addCalls, svc.sentenceCalls)
	}
	if summary.VocabularyAdded != 2 || summary.SentencesSet != 2 {
		t.Errorf("dry-run projection = %+v", summary)
	}
	if !summary.DryRun {
		t.Error("summary should be flagged as dry run")
	}
}

func TestAllWordsIncludesKnownEntries(t *testing.T) {
	known := "known"
	svc := newFakeService(func(text string) []jpdb.Vocabulary {
		return []jpdb.Vocabulary{
			occ(1, 0, "猫", nil),
			occ(2, 8, "犬", &known),
		}
	})
	b := quietBuilder(svc)
	b.AllWords = true

	summary, err := b.Run(context.Background(), twoSentences, "Test Deck")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.TargetWords != 2 || summary.SentencesSet != 2 {
		t.Errorf("all-words summary = %+v", summary)
	}
	if _, ok := svc.sentenceCalls[2]; !ok {
		t.Error("known word should receive a sentence in all-words mode")
	}
}

func TestSentenceFailuresAreCountedNotFatal(t *testing.T) {
	svc := newFakeService(func(text string) []jpdb.Vocabulary {
		return []jpdb.Vocabulary{
			occ(1, 0, "猫", nil),
			occ(2, 8, "犬", nil),
		}
	})
	svc.sentenceErrFor[1] = true
	b := quietBuilder(svc)

	summary, err := b.Run(context.Background(), twoSentences, "Test Deck")
	if err != nil {
		t.Fatalf("Run should not fail on per-sentence errors: %v", err)
	}
	if summary.Errors != 1 || summary.SentencesSet != 1 {
		t.Errorf("summary = %+v, want 1 error and 1 sentence set", summary)
	}
}

func TestVocabularyIsAddedInBatches(t *testing.T) {
	svc := newFakeService(func(text string) []jpdb.Vocabulary {
		var out []jpdb.Vocabulary
		for i := 0; i < 250; i++ {
			out = append(out, occ(i+1, i, "語", nil))
		}
		return out
	})
	b := quietBuilder(svc)

	summary, err := b.Run(context.Background(), "一文だけ。", "Big Deck")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.VocabularyAdded != 250 {
		t.Errorf("vocabulary added = %d, want 250", summary.VocabularyAdded)
	}
	if len(svc.addCalls) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(svc.addCalls))
	}
	for i, want := range []int{100, 100, 50} {
		if len(svc.addCalls[i]) != want {
			t.Errorf("batch %d size = %d, want %d", i, len(svc.addCalls[i]), want)
		}
	}
}

func TestChunkedRunTranslatesPositions(t *testing.T) {
	// Three sentences of 10 code points each; chunk size forces one per chunk.
	text := "あああああああああ。いいいいいいいいい。ううううううううう。"
	next := 0
	svc := newFakeService(func(chunk string) []jpdb.Vocabulary {
		next++
		// One occurrence at the start of each chunk, all distinct words.
		return []jpdb.Vocabulary{occ(next, 0, "語", nil)}
	})
	b := quietBuilder(svc)
	b.ChunkSize = 10

	summary, err := b.Run(context.Background(), text, "Chunked")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if strings.Join(svc.parsedTexts, "") != text {
		t.Errorf("parsed chunks do not reassemble the input: %q", svc.parsedTexts)
	}
	if len(svc.parsedTexts) != 3 {
		t.Fatalf("expected 3 parse calls, got %d", len(svc.parsedTexts))
	}
	// Position 0 in chunk i lands in sentence i after translation.
	wantSentences := map[int]string{
		1: "あああああああああ。",
		2: "いいいいいいいいい。",
		3: "ううううううううう。",
	}
	for vid, want := range wantSentences {
		if got := svc.sentenceCalls[vid]; got != want {
			t.Errorf("word %d attributed to %q, want %q", vid, got, want)
		}
	}
	if summary.SentencesSet != 3 {
		t.Errorf("sentences set = %d, want 3", summary.SentencesSet)
	}
}
