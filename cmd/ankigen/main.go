package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ankigen/ankigen/internal/app"
	"github.com/ankigen/ankigen/internal/qa"
)

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var (
		pageURL       string
		configPath    string
		envFile       string
		deck          string
		noteType      string
		tags          string
		ankiURL       string
		llmBaseURL    string
		llmModel      string
		llmKey        string
		cardCount     int
		contextHint   string
		reservedOut   int
		include       string
		excludeTags   string
		excludeIDs    string
		excludeCls    string
		userAgent     string
		fetchTimeout  time.Duration
		fetchAttempts int
		listModels    bool
		modelsFilter  string
		listDecks     bool
		dryRun        bool
		assumeYes     bool
		logPath       string
		exportPDF     string
		verbose       bool
		showVersion   bool
	)

	flag.StringVar(&pageURL, "url", "", "Web page to turn into flashcards")
	flag.StringVar(&configPath, "config", "ankigen.yaml", "Path to YAML or JSON config file")
	flag.StringVar(&envFile, "env", ".env", "Path to dotenv file loaded before the config")
	flag.StringVar(&deck, "deck", "Ankigen", "Target Anki deck")
	flag.StringVar(&noteType, "note.type", "Basic", "Anki note type for new cards")
	flag.StringVar(&tags, "tags", "", "Comma-separated tags for added notes")
	flag.StringVar(&ankiURL, "anki.url", "http://127.0.0.1:8765", "AnkiConnect endpoint")
	flag.StringVar(&llmBaseURL, "llm.base", os.Getenv("LLM_BASE_URL"), "OpenAI-compatible base URL")
	flag.StringVar(&llmModel, "llm.model", os.Getenv("LLM_MODEL"), "Model name")
	flag.StringVar(&llmKey, "llm.key", os.Getenv("LLM_API_KEY"), "API key for OpenAI-compatible server")
	flag.IntVar(&cardCount, "cards", 10, "How many cards to ask for (0 lets the model decide)")
	flag.StringVar(&contextHint, "context", "", "Optional subject hint passed to the model")
	flag.IntVar(&reservedOut, "reserve.output", 0, "Tokens reserved for the model reply")
	flag.StringVar(&include, "include", "", "Comma-separated tags to extract text from (empty keeps every element)")
	flag.StringVar(&excludeTags, "exclude.tags", "", "Comma-separated tags dropped with their contents")
	flag.StringVar(&excludeIDs, "exclude.ids", "", "Comma-separated id substrings dropped with their contents")
	flag.StringVar(&excludeCls, "exclude.classes", "", "Comma-separated class substrings dropped with their contents")
	flag.StringVar(&userAgent, "ua", "ankigen/1.0 (+https://github.com/ankigen/ankigen)", "User-Agent for page fetches")
	flag.DurationVar(&fetchTimeout, "fetch.timeout", 15*time.Second, "Per-request timeout for page fetches")
	flag.IntVar(&fetchAttempts, "fetch.attempts", 2, "Fetch attempts including retries on transient errors")
	flag.BoolVar(&listModels, "list.models", false, "List models served by the LLM backend and exit")
	flag.StringVar(&modelsFilter, "models.filter", "", "Substring filter for -list.models")
	flag.BoolVar(&listDecks, "list.decks", false, "List Anki decks and exit")
	flag.BoolVar(&dryRun, "dry-run", false, "Generate and print cards without touching Anki")
	flag.BoolVar(&assumeYes, "yes", false, "Skip the interactive review and add every card")
	flag.StringVar(&logPath, "log", "", "CSV file to append added cards to (empty disables)")
	flag.StringVar(&exportPDF, "export.pdf", "", "Also write the accepted cards to a printable PDF sheet")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("ankigen %s (%s, %s)\n", app.BuildVersion, app.BuildCommit, app.BuildDate)
		return
	}

	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	// Dotenv first so env-backed defaults below can see it.
	if err := app.LoadEnvFiles(envFile); err != nil {
		log.Warn().Err(err).Str("path", envFile).Msg("dotenv load failed")
	}

	cfg := app.Config{
		URL:                  pageURL,
		AnkiConnectURL:       ankiURL,
		Deck:                 deck,
		NoteType:             noteType,
		Tags:                 splitList(tags),
		LLMBaseURL:           llmBaseURL,
		LLMModel:             llmModel,
		LLMAPIKey:            llmKey,
		CardCount:            cardCount,
		ContextHint:          contextHint,
		ReservedOutputTokens: reservedOut,
		IncludeTags:          splitList(include),
		ExcludeTags:          splitList(excludeTags),
		ExcludeIDs:           splitList(excludeIDs),
		ExcludeClasses:       splitList(excludeCls),
		UserAgent:            userAgent,
		FetchTimeout:         fetchTimeout,
		FetchAttempts:        fetchAttempts,
		ListModels:           listModels,
		ModelsFilter:         modelsFilter,
		ListDecks:            listDecks,
		DryRun:               dryRun,
		AssumeYes:            assumeYes,
		LogPath:              logPath,
		ExportPDFPath:        exportPDF,
		Verbose:              verbose,
	}

	// Config file fills whatever the flags left at their defaults, env fills
	// the rest. Flags stay the highest precedence.
	if fc, err := app.LoadConfigFile(configPath); err == nil {
		app.ApplyFileConfig(&cfg, fc)
	} else if !errors.Is(err, os.ErrNotExist) {
		log.Error().Err(err).Str("path", configPath).Msg("config file unreadable")
		os.Exit(1)
	}
	app.ApplyEnvToConfig(&cfg)

	if err := app.ValidateConfig(cfg); err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		flag.Usage()
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		log.Error().Err(err).Msg("run failed")
		// Exit code policy: 2 when the pipeline ran but produced nothing
		// usable, 1 for real failures.
		if isNothingUsable(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

// isNothingUsable reports the "ran fine but produced nothing" family of
// outcomes. Kept narrow so real faults keep exit code 1.
func isNothingUsable(err error) bool {
	return errors.Is(err, app.ErrNothingExtracted) ||
		errors.Is(err, app.ErrNoPairs) ||
		errors.Is(err, qa.ErrNoContent)
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	list := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			list = append(list, v)
		}
	}
	return list
}

func run(cfg app.Config) error {
	ctx := context.Background()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()

	return a.Run(ctx)
}
