package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/ankigen/ankigen/internal/anki"
	"github.com/ankigen/ankigen/internal/budget"
	"github.com/ankigen/ankigen/internal/cardlog"
	"github.com/ankigen/ankigen/internal/export"
	"github.com/ankigen/ankigen/internal/extract"
	"github.com/ankigen/ankigen/internal/fetch"
	"github.com/ankigen/ankigen/internal/llm"
	"github.com/ankigen/ankigen/internal/qa"
)

type App struct {
	cfg  Config
	ai   llm.Client
	anki *anki.Client

	// in and out drive the interactive review; tests substitute buffers.
	in  io.Reader
	out io.Writer
}

// ErrNothingExtracted is returned when the page yields zero text fragments
// after filtering. ErrNoPairs is returned when the model reply parses to zero
// cards. Per the exit code policy both map to a distinct non-zero exit.
var (
	ErrNothingExtracted = fmt.Errorf("no text extracted")
	ErrNoPairs          = fmt.Errorf("no flashcard pairs")
)

func New(ctx context.Context, cfg Config) (*App, error) {
	// Build OpenAI-compatible config
	transportCfg := openai.DefaultConfig(cfg.LLMAPIKey)
	if cfg.LLMBaseURL != "" {
		transportCfg.BaseURL = cfg.LLMBaseURL
	}
	transportCfg.HTTPClient = newHTTPClient()
	client := openai.NewClientWithConfig(transportCfg)

	a := &App{
		cfg:  cfg,
		ai:   &llm.OpenAIProvider{Inner: client},
		anki: &anki.Client{BaseURL: cfg.AnkiConnectURL},
		in:   os.Stdin,
		out:  os.Stdout,
	}

	// Quick connectivity check against AnkiConnect. Best-effort: dry runs and
	// model listing never write to Anki, and for the rest the add step will
	// surface a hard failure itself.
	if !cfg.DryRun && !cfg.ListModels {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if v, err := a.anki.Version(ctx); err != nil {
			log.Warn().Err(err).Str("url", cfg.AnkiConnectURL).Msg("AnkiConnect unreachable; continuing")
		} else {
			log.Debug().Int("version", v).Msg("AnkiConnect reachable")
		}
	}

	return a, nil
}

func (a *App) Close() {
	// nothing yet
}

func (a *App) Run(ctx context.Context) error {
	// Utility modes short-circuit the pipeline.
	if a.cfg.ListModels {
		return a.listModels(ctx, a.out)
	}
	if a.cfg.ListDecks {
		return a.listDecks(ctx, a.out)
	}

	// 1) Fetch the page
	fetcher := &fetch.Client{
		HTTPClient:        newHTTPClient(),
		UserAgent:         a.cfg.UserAgent,
		MaxAttempts:       a.cfg.FetchAttempts,
		PerRequestTimeout: a.cfg.FetchTimeout,
	}
	body, _, err := fetcher.Get(ctx, a.cfg.URL)
	if err != nil {
		return fmt.Errorf("fetch page: %w", err)
	}

	// 2) Extract readable text through the include/exclude filters.
	// Extraction faults degrade to zero fragments rather than aborting.
	fragments, err := extract.Fragments(string(body), buildFilter(a.cfg))
	if err != nil {
		log.Warn().Err(err).Msg("extraction degraded")
	}
	if len(fragments) == 0 {
		log.Warn().Str("url", a.cfg.URL).Msg("no text extracted from page")
		return ErrNothingExtracted
	}

	// 3) Cap the page text to the model's context window
	overhead := qa.PromptOverhead(a.cfg.ContextHint, a.cfg.CardCount)
	allowed := budget.PromptCharBudget(a.cfg.LLMModel, a.cfg.ReservedOutputTokens, overhead)
	capped, truncated := budget.CapFragments(fragments, allowed)
	if truncated {
		log.Warn().Int("kept", len(capped)).Int("extracted", len(fragments)).
			Msg("page text truncated to fit model context")
	}
	pageText := strings.Join(capped, "\n\n")

	// 4) Generate question/answer pairs
	gen := &qa.Generator{
		Client:    a.ai,
		Model:     a.cfg.LLMModel,
		Context:   a.cfg.ContextHint,
		CardCount: a.cfg.CardCount,
	}
	pairs, err := gen.Generate(ctx, pageText)
	if err != nil {
		return fmt.Errorf("generate cards: %w", err)
	}
	if len(pairs) == 0 {
		log.Warn().Msg("model reply contained no usable pairs")
		return ErrNoPairs
	}
	log.Info().Int("pairs", len(pairs)).Msg("generated candidate cards")

	// 5) Dry run prints the candidates and stops before any Anki write
	if a.cfg.DryRun {
		printPairs(a.out, pairs)
		return nil
	}

	// 6) Interactive review unless the user pre-approved everything
	accepted := pairs
	if !a.cfg.AssumeYes {
		accepted, err = reviewPairs(a.in, a.out, pairs)
		if err != nil {
			return fmt.Errorf("review: %w", err)
		}
	}
	if len(accepted) == 0 {
		log.Info().Msg("no cards accepted")
		return nil
	}

	// 7) Add the accepted cards to Anki
	if err := a.anki.EnsureDeck(ctx, a.cfg.Deck); err != nil {
		return fmt.Errorf("ensure deck: %w", err)
	}
	notes := make([]anki.Note, 0, len(accepted))
	for _, p := range accepted {
		notes = append(notes, anki.Note{
			Deck:  a.cfg.Deck,
			Model: a.cfg.NoteType,
			Front: p.Front,
			Back:  p.Back,
			Tags:  a.cfg.Tags,
		})
	}
	ids, err := a.anki.AddNotes(ctx, notes)
	if err != nil {
		if len(ids) == 0 {
			return fmt.Errorf("add notes: %w", err)
		}
		log.Warn().Err(err).Msg("some cards were rejected")
	}
	added := 0
	for _, id := range ids {
		if id != 0 {
			added++
		}
	}
	log.Info().Int("added", added).Str("deck", a.cfg.Deck).Msg("cards added")

	// 8) Append the CSV card log for the cards that made it in
	if a.cfg.LogPath != "" {
		now := time.Now()
		entries := make([]cardlog.Entry, 0, added)
		for i, p := range accepted {
			if i >= len(ids) || ids[i] == 0 {
				continue
			}
			entries = append(entries, cardlog.Entry{
				When:   now,
				URL:    a.cfg.URL,
				Deck:   a.cfg.Deck,
				Model:  a.cfg.NoteType,
				Front:  p.Front,
				Back:   p.Back,
				NoteID: ids[i],
			})
		}
		if err := cardlog.Append(a.cfg.LogPath, entries); err != nil {
			log.Warn().Err(err).Str("path", a.cfg.LogPath).Msg("card log write failed")
		}
	}

	// 9) Optional printable sheet of the accepted cards
	if a.cfg.ExportPDFPath != "" {
		cards := make([]export.Card, 0, len(accepted))
		for _, p := range accepted {
			cards = append(cards, export.Card{Front: p.Front, Back: p.Back})
		}
		if err := export.WriteCardSheet(a.cfg.Deck, a.cfg.URL, cards, a.cfg.ExportPDFPath); err != nil {
			return fmt.Errorf("export pdf: %w", err)
		}
		log.Info().Str("out", a.cfg.ExportPDFPath).Msg("wrote card sheet")
	}

	return nil
}

// listModels prints the models the LLM backend serves, optionally filtered by
// a case-insensitive substring.
func (a *App) listModels(ctx context.Context, w io.Writer) error {
	lister, ok := a.ai.(llm.ModelLister)
	if !ok {
		return fmt.Errorf("model listing not supported by this backend")
	}
	models, err := lister.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	filter := strings.ToLower(strings.TrimSpace(a.cfg.ModelsFilter))
	matched := 0
	for _, m := range models.Models {
		if filter != "" && !strings.Contains(strings.ToLower(m.ID), filter) {
			continue
		}
		fmt.Fprintln(w, m.ID)
		matched++
	}
	if matched == 0 {
		log.Warn().Str("filter", a.cfg.ModelsFilter).Msg("no models matched")
	}
	return nil
}

// listDecks prints the decks of the running Anki instance.
func (a *App) listDecks(ctx context.Context, w io.Writer) error {
	decks, err := a.anki.DeckNames(ctx)
	if err != nil {
		return fmt.Errorf("list decks: %w", err)
	}
	for _, d := range decks {
		fmt.Fprintln(w, d)
	}
	return nil
}

func buildFilter(cfg Config) extract.Filter {
	return extract.Filter{
		IncludeTags:    cfg.IncludeTags,
		ExcludeTags:    cfg.ExcludeTags,
		ExcludeIDs:     cfg.ExcludeIDs,
		ExcludeClasses: cfg.ExcludeClasses,
	}
}

func printPairs(w io.Writer, pairs []qa.Pair) {
	for i, p := range pairs {
		fmt.Fprintf(w, "%d. Q: %s\n   A: %s\n", i+1, p.Front, p.Back)
	}
}
