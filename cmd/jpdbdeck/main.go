package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/japaniel/jpdbdeck/pkg/config"
	"github.com/japaniel/jpdbdeck/pkg/deck"
	"github.com/japaniel/jpdbdeck/pkg/extract"
	"github.com/japaniel/jpdbdeck/pkg/history"
	"github.com/japaniel/jpdbdeck/pkg/jpdb"
	"github.com/japaniel/jpdbdeck/pkg/morph"
	"github.com/japaniel/jpdbdeck/pkg/textseg"
)

func main() {
	apiKeyFlag := flag.String("api-key", "", "jpdb API key (or set JPDB_API_KEY, or ~/.jpdb_api_key)")
	dryRun := flag.Bool("dry-run", false, "Parse text and show what would be done without making changes")
	allWords := flag.Bool("all-words", false, "Set sentences for all words, not just new ones")
	verbose := flag.Bool("v", false, "Show verbose output")
	chunkSize := flag.Int("chunk-size", 0, "Maximum characters per parse request (default 5000)")
	htmlInput := flag.Bool("html", false, "Treat the input file as HTML and extract the article text")
	offline := flag.Bool("offline", false, "Estimate counts locally without the jpdb API (implies -dry-run)")
	historyPath := flag.String("history", "", "Record the run summary in this sqlite database")
	flag.Parse()

	if flag.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "Usage: jpdbdeck [flags] <input-file> <deck-name>")
		flag.PrintDefaults()
		os.Exit(1)
	}
	inputPath := flag.Arg(0)
	deckName := flag.Arg(1)

	// Setup context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfgPath, err := config.DefaultPath()
	if err != nil {
		log.Fatalf("Failed to locate config: %v", err)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *chunkSize > 0 {
		cfg.ChunkSize = *chunkSize
	}
	if *historyPath != "" {
		cfg.HistoryPath = *historyPath
	}

	text, err := readInput(inputPath, *htmlInput)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	if strings.TrimSpace(text) == "" {
		log.Fatalf("Error: input file is empty: %s", inputPath)
	}

	if *offline {
		runOffline(text, deckName, *verbose)
		return
	}

	apiKey := config.ResolveAPIKey(*apiKeyFlag)
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "Error: no API key provided.")
		fmt.Fprintln(os.Stderr, "Provide via -api-key, JPDB_API_KEY, or ~/.jpdb_api_key")
		os.Exit(1)
	}

	client := jpdb.NewClient(cfg.BaseURL, apiKey)

	if !*dryRun {
		fmt.Println("Validating API key...")
		if err := client.Ping(ctx); err != nil {
			log.Fatalf("Error: invalid API key: %v", err)
		}
	}

	builder := deck.NewBuilder(client)
	builder.ChunkSize = cfg.ChunkSize
	builder.ChunkPause = cfg.ChunkPause()
	builder.SentencePause = cfg.SentencePause()
	builder.DryRun = *dryRun
	builder.AllWords = *allWords
	builder.Verbose = *verbose
	builder.Logger = log.New(os.Stdout, "", 0)

	fmt.Printf("Parsing text (%d characters)...\n", len([]rune(text)))
	summary, err := builder.Run(ctx, text, deckName)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	printSummary(summary, deckName)

	if cfg.HistoryPath != "" {
		recordRun(cfg.HistoryPath, deckName, inputPath, summary)
	}
}

// readInput loads the source text, extracting the readable article when the
// input is HTML.
func readInput(path string, html bool) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("file not found: %s", path)
		}
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	if html {
		article, err := extract.FromHTML(data)
		if err != nil {
			return "", err
		}
		if article.Title != "" {
			fmt.Printf("Title: %s\n", article.Title)
		}
		return article.Text, nil
	}
	return string(data), nil
}

// runOffline analyzes the text locally with kagome and prints a projection.
// Card states live on the jpdb side, so this is an estimate only.
func runOffline(text, deckName string, verbose bool) {
	analyzer, err := morph.NewAnalyzer()
	if err != nil {
		log.Fatalf("Failed to create analyzer: %v", err)
	}

	sentences := textseg.NewSegmenter().Split(text)
	tokens := morph.ContentWords(analyzer.Analyze(text))
	lemmas := morph.UniqueLemmas(tokens)

	fmt.Printf("Analyzed offline: %d content tokens, %d unique words, %d sentences\n",
		len(tokens), len(lemmas), len(sentences))

	if verbose {
		limit := len(lemmas)
		if limit > 10 {
			limit = 10
		}
		fmt.Println("First words found:")
		for _, lemma := range lemmas[:limit] {
			fmt.Printf("  %s\n", lemma)
		}
		if len(lemmas) > 10 {
			fmt.Printf("  ... and %d more\n", len(lemmas)-10)
		}
	}

	fmt.Println("\n[Offline preview - counts are a local estimate; run against the API for card states]")
	fmt.Printf("Would create deck: %s\n", deckName)
	fmt.Printf("Would add up to %d vocabulary items\n", len(lemmas))
}

func printSummary(s *deck.Summary, deckName string) {
	if s.DryRun {
		fmt.Println("\n[Dry run - no changes made]")
		fmt.Printf("Would create deck: %s\n", deckName)
		fmt.Printf("Would add %d vocabulary items\n", s.VocabularyAdded)
		fmt.Printf("Would set %d custom sentences\n", s.SentencesSet)
		return
	}
	fmt.Println("\nDone!")
	fmt.Printf("  Deck created: %s (ID: %d)\n", deckName, s.DeckID)
	fmt.Printf("  Vocabulary added: %d\n", s.VocabularyAdded)
	fmt.Printf("  Sentences set: %d\n", s.SentencesSet)
	if s.Errors > 0 {
		fmt.Printf("  Errors: %d\n", s.Errors)
	}
}

// recordRun is best-effort; a broken history db never fails the run.
func recordRun(path, deckName, inputPath string, s *deck.Summary) {
	store, err := history.Open(path)
	if err != nil {
		log.Printf("Warning: failed to open history db: %v", err)
		return
	}
	defer store.Close()

	if _, err := store.Record(history.Run{
		DeckID:       s.DeckID,
		DeckName:     deckName,
		InputPath:    inputPath,
		Tokens:       s.Tokens,
		UniqueWords:  s.UniqueWords,
		TargetWords:  s.TargetWords,
		SentencesSet: s.SentencesSet,
		Errors:       s.Errors,
		DryRun:       s.DryRun,
	}); err != nil {
		log.Printf("Warning: failed to record run: %v", err)
	}
}
