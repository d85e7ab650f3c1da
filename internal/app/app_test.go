package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// newPageServer serves a fixed HTML document the way a real article page would.
func newPageServer(t *testing.T, html string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(html))
	}))
	t.Cleanup(srv.Close)
	return srv
}

// newLLMServer is a minimal OpenAI-compatible stub returning a fixed chat
// completion for every request.
func newLLMServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-test",
			"object": "chat.completion",
			"model":  "test-model",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		})
	})
	mux.HandleFunc("/models", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data": []map[string]any{
				{"id": "qwen2.5", "object": "model"},
				{"id": "llama3", "object": "model"},
			},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// ankiRecorder captures what the app sends to AnkiConnect.
type ankiRecorder struct {
	mu      sync.Mutex
	actions []string
	decks   []string
	notes   []recordedNote
}

type recordedNote struct {
	DeckName  string            `json:"deckName"`
	ModelName string            `json:"modelName"`
	Fields    map[string]string `json:"fields"`
	Tags      []string          `json:"tags"`
}

func (rec *ankiRecorder) actionCount(action string) int {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	n := 0
	for _, a := range rec.actions {
		if a == action {
			n++
		}
	}
	return n
}

// newAnkiServer emulates enough of AnkiConnect for pipeline tests: version,
// deckNames, createDeck and addNotes. Every submitted note is accepted.
func newAnkiServer(t *testing.T) (*httptest.Server, *ankiRecorder) {
	t.Helper()
	rec := &ankiRecorder{decks: []string{"Default"}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Action  string          `json:"action"`
			Version int             `json:"version"`
			Params  json.RawMessage `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode ankiconnect request: %v", err)
			return
		}
		rec.mu.Lock()
		rec.actions = append(rec.actions, req.Action)
		rec.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch req.Action {
		case "version":
			fmt.Fprint(w, `{"result": 6, "error": null}`)
		case "deckNames":
			rec.mu.Lock()
			decks := append([]string{}, rec.decks...)
			rec.mu.Unlock()
			_ = json.NewEncoder(w).Encode(map[string]any{"result": decks, "error": nil})
		case "createDeck":
			var p struct {
				Deck string `json:"deck"`
			}
			_ = json.Unmarshal(req.Params, &p)
			rec.mu.Lock()
			rec.decks = append(rec.decks, p.Deck)
			rec.mu.Unlock()
			fmt.Fprint(w, `{"result": 1, "error": null}`)
		case "addNotes":
			var p struct {
				Notes []recordedNote `json:"notes"`
			}
			_ = json.Unmarshal(req.Params, &p)
			ids := make([]*int64, len(p.Notes))
			rec.mu.Lock()
			for i := range p.Notes {
				rec.notes = append(rec.notes, p.Notes[i])
				id := int64(1496198395707 + len(rec.notes))
				ids[i] = &id
			}
			rec.mu.Unlock()
			_ = json.NewEncoder(w).Encode(map[string]any{"result": ids, "error": nil})
		default:
			fmt.Fprintf(w, `{"result": null, "error": "unsupported action: %s"}`, req.Action)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

const articleHTML = `<!doctype html>
<html><head><title>Mitosis</title></head>
<body>
<nav id="sidebar">Home | About</nav>
<p>Mitosis is the process by which a cell divides.</p>
<p>The result is two genetically identical daughter cells.</p>
<div class="ad-banner">Subscribe now!</div>
</body></html>`

const twoCardReply = "1. Q: What is mitosis? A: The process by which a cell divides.\n" +
	"2. Q: What does mitosis produce? A: Two genetically identical daughter cells."

func pipelineConfig(pageURL, llmURL, ankiURL string) Config {
	return Config{
		URL:            pageURL,
		AnkiConnectURL: ankiURL,
		Deck:           "Biology",
		NoteType:       "Basic",
		Tags:           []string{"auto"},
		LLMBaseURL:     llmURL,
		LLMModel:       "test-model",
		CardCount:      2,
		IncludeTags:    []string{"p"},
		FetchAttempts:  1,
		FetchTimeout:   5 * time.Second,
	}
}

func TestRun_DryRunPrintsWithoutTouchingAnki(t *testing.T) {
	t.Parallel()
	page := newPageServer(t, articleHTML)
	llmSrv := newLLMServer(t, twoCardReply)
	ankiSrv, rec := newAnkiServer(t)

	cfg := pipelineConfig(page.URL, llmSrv.URL, ankiSrv.URL)
	cfg.DryRun = true

	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer a.Close()
	var out bytes.Buffer
	a.out = &out

	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := out.String(); !strings.Contains(got, "1. Q: What is mitosis?") {
		t.Fatalf("dry run output missing candidates:\n%s", got)
	}
	rec.mu.Lock()
	calls := len(rec.actions)
	rec.mu.Unlock()
	if calls != 0 {
		t.Fatalf("dry run must not call AnkiConnect, saw %d calls", calls)
	}
}

func TestRun_EmptyPageReportsNothingExtracted(t *testing.T) {
	t.Parallel()
	page := newPageServer(t, `<html><body><p>   </p></body></html>`)
	llmSrv := newLLMServer(t, twoCardReply)

	cfg := pipelineConfig(page.URL, llmSrv.URL, "")
	cfg.DryRun = true

	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer a.Close()

	err = a.Run(context.Background())
	if !errors.Is(err, ErrNothingExtracted) {
		t.Fatalf("expected ErrNothingExtracted, got %v", err)
	}
}

func TestRun_MarkerlessReplyReportsNoPairs(t *testing.T) {
	t.Parallel()
	page := newPageServer(t, articleHTML)
	llmSrv := newLLMServer(t, "I cannot produce flashcards from this material.")

	cfg := pipelineConfig(page.URL, llmSrv.URL, "")
	cfg.DryRun = true

	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer a.Close()

	err = a.Run(context.Background())
	if !errors.Is(err, ErrNoPairs) {
		t.Fatalf("expected ErrNoPairs, got %v", err)
	}
}

func TestListModels_FiltersBySubstring(t *testing.T) {
	t.Parallel()
	llmSrv := newLLMServer(t, "")

	a, err := New(context.Background(), Config{
		ListModels:   true,
		ModelsFilter: "qwen",
		LLMBaseURL:   llmSrv.URL,
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer a.Close()
	var out bytes.Buffer
	a.out = &out

	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := out.String(); got != "qwen2.5\n" {
		t.Fatalf("filtered model list = %q, want %q", got, "qwen2.5\n")
	}
}

func TestListDecks_PrintsDeckNames(t *testing.T) {
	t.Parallel()
	ankiSrv, _ := newAnkiServer(t)

	a, err := New(context.Background(), Config{
		ListDecks:      true,
		AnkiConnectURL: ankiSrv.URL,
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer a.Close()
	var out bytes.Buffer
	a.out = &out

	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := out.String(); got != "Default\n" {
		t.Fatalf("deck list = %q, want %q", got, "Default\n")
	}
}
