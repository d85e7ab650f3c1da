package app

import (
	"os"
	"strconv"
	"strings"
)

// ApplyEnvToConfig populates unset fields of cfg from environment variables.
// Explicit cfg values take precedence over env.
func ApplyEnvToConfig(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.LLMBaseURL == "" {
		cfg.LLMBaseURL = os.Getenv("LLM_BASE_URL")
	}
	if cfg.LLMModel == "" {
		cfg.LLMModel = os.Getenv("LLM_MODEL")
	}
	if cfg.LLMAPIKey == "" {
		cfg.LLMAPIKey = os.Getenv("LLM_API_KEY")
	}

	if cfg.AnkiConnectURL == "" || cfg.AnkiConnectURL == ankiURLDefault {
		if v := os.Getenv("ANKI_CONNECT_URL"); v != "" {
			cfg.AnkiConnectURL = v
		}
	}
	if cfg.Deck == "" || cfg.Deck == deckDefault {
		if v := os.Getenv("ANKIGEN_DECK"); v != "" {
			cfg.Deck = v
		}
	}
	if cfg.NoteType == "" || cfg.NoteType == noteTypeDefault {
		if v := os.Getenv("ANKIGEN_NOTE_TYPE"); v != "" {
			cfg.NoteType = v
		}
	}

	if cfg.LogPath == "" {
		cfg.LogPath = os.Getenv("ANKIGEN_LOG")
	}
	if cfg.ContextHint == "" {
		cfg.ContextHint = os.Getenv("ANKIGEN_CONTEXT")
	}

	if cfg.CardCount == 0 || cfg.CardCount == cardCountDefault {
		if s := strings.TrimSpace(os.Getenv("ANKIGEN_CARDS")); s != "" {
			if n, err := strconv.Atoi(s); err == nil && n > 0 {
				cfg.CardCount = n
			}
		}
	}

	// Booleans
	setBool := func(dst *bool, envKey string) {
		if *dst {
			return
		}
		if s := strings.ToLower(strings.TrimSpace(os.Getenv(envKey))); s != "" {
			if s == "1" || s == "true" || s == "yes" || s == "on" {
				*dst = true
			}
		}
	}
	setBool(&cfg.DryRun, "DRY_RUN")
	setBool(&cfg.Verbose, "VERBOSE")
	setBool(&cfg.AssumeYes, "ANKIGEN_YES")
}
