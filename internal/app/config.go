package app

import "time"

// Config holds runtime configuration for the application.
type Config struct {
	// Source page
	URL string

	// Anki
	AnkiConnectURL string
	Deck           string
	NoteType       string
	Tags           []string

	// LLM
	LLMBaseURL string
	LLMModel   string
	LLMAPIKey  string

	// Generation
	CardCount   int
	ContextHint string
	// ReservedOutputTokens is held back from the model context for the reply.
	ReservedOutputTokens int

	// Page filtering
	IncludeTags    []string
	ExcludeTags    []string
	ExcludeIDs     []string
	ExcludeClasses []string

	// Fetching
	UserAgent     string
	FetchTimeout  time.Duration
	FetchAttempts int

	// Modes
	ListModels   bool
	ModelsFilter string
	ListDecks    bool
	DryRun       bool
	AssumeYes    bool

	// Outputs
	LogPath       string
	ExportPDFPath string

	Verbose bool
}
