package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig represents the single-file configuration schema.
// Nested sections improve readability and map naturally to flags/env.
type FileConfig struct {
	URL string `yaml:"url" json:"url"`

	Anki struct {
		URL  string   `yaml:"url" json:"url"`
		Deck string   `yaml:"deck" json:"deck"`
		Note string   `yaml:"note" json:"note"`
		Tags []string `yaml:"tags" json:"tags"`
	} `yaml:"anki" json:"anki"`

	LLM struct {
		BaseURL string `yaml:"base" json:"base"`
		Model   string `yaml:"model" json:"model"`
		APIKey  string `yaml:"key" json:"key"`
	} `yaml:"llm" json:"llm"`

	Cards struct {
		Count                int    `yaml:"count" json:"count"`
		Context              string `yaml:"context" json:"context"`
		ReservedOutputTokens int    `yaml:"reservedOutputTokens" json:"reservedOutputTokens"`
	} `yaml:"cards" json:"cards"`

	Scrape struct {
		Include        []string     `yaml:"include" json:"include"`
		ExcludeTags    []string     `yaml:"excludeTags" json:"excludeTags"`
		ExcludeIDs     []string     `yaml:"excludeIds" json:"excludeIds"`
		ExcludeClasses []string     `yaml:"excludeClasses" json:"excludeClasses"`
		UA             string       `yaml:"ua" json:"ua"`
		Timeout        fileDuration `yaml:"timeout" json:"timeout"`
		Attempts       int          `yaml:"attempts" json:"attempts"`
	} `yaml:"scrape" json:"scrape"`

	Log struct {
		File string `yaml:"file" json:"file"`
	} `yaml:"log" json:"log"`

	Export struct {
		PDF string `yaml:"pdf" json:"pdf"`
	} `yaml:"export" json:"export"`

	DryRun  bool `yaml:"dryRun" json:"dryRun"`
	Yes     bool `yaml:"yes" json:"yes"`
	Verbose bool `yaml:"verbose" json:"verbose"`
}

// fileDuration accepts human-friendly duration strings ("20s", "1m30s") in
// YAML or JSON config. Bare integers are taken as nanoseconds so serialized
// time.Duration values stay readable.
type fileDuration time.Duration

func (d *fileDuration) UnmarshalYAML(value *yaml.Node) error {
	var n int64
	if err := value.Decode(&n); err == nil {
		*d = fileDuration(n)
		return nil
	}
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = fileDuration(v)
	return nil
}

func (d *fileDuration) UnmarshalJSON(b []byte) error {
	var n int64
	if err := json.Unmarshal(b, &n); err == nil {
		*d = fileDuration(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = fileDuration(v)
	return nil
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		// Try YAML then JSON
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// Defaults from flag parsing that file config may override when the flags were
// left untouched.
const (
	deckDefault          = "Ankigen"
	noteTypeDefault      = "Basic"
	ankiURLDefault       = "http://127.0.0.1:8765"
	userAgentDefault     = "ankigen/1.0 (+https://github.com/ankigen/ankigen)"
	cardCountDefault     = 10
	fetchAttemptsDefault = 2
	fetchTimeoutDefault  = 15 * time.Second
)

// ApplyFileConfig overlays values from FileConfig into cfg for any fields that
// are currently unset or still at their flag default. Flags should already
// have been parsed; this function lets file config supply defaults while
// preserving explicit flags.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}

	if cfg.URL == "" && fc.URL != "" {
		cfg.URL = fc.URL
	}

	if (cfg.AnkiConnectURL == "" || cfg.AnkiConnectURL == ankiURLDefault) && fc.Anki.URL != "" {
		cfg.AnkiConnectURL = fc.Anki.URL
	}
	if (cfg.Deck == "" || cfg.Deck == deckDefault) && fc.Anki.Deck != "" {
		cfg.Deck = fc.Anki.Deck
	}
	if (cfg.NoteType == "" || cfg.NoteType == noteTypeDefault) && fc.Anki.Note != "" {
		cfg.NoteType = fc.Anki.Note
	}
	if len(cfg.Tags) == 0 && len(fc.Anki.Tags) > 0 {
		cfg.Tags = append([]string{}, fc.Anki.Tags...)
	}

	if cfg.LLMBaseURL == "" && fc.LLM.BaseURL != "" {
		cfg.LLMBaseURL = fc.LLM.BaseURL
	}
	if cfg.LLMModel == "" && fc.LLM.Model != "" {
		cfg.LLMModel = fc.LLM.Model
	}
	if cfg.LLMAPIKey == "" && fc.LLM.APIKey != "" {
		cfg.LLMAPIKey = fc.LLM.APIKey
	}

	if (cfg.CardCount == 0 || cfg.CardCount == cardCountDefault) && fc.Cards.Count > 0 {
		cfg.CardCount = fc.Cards.Count
	}
	if cfg.ContextHint == "" && fc.Cards.Context != "" {
		cfg.ContextHint = fc.Cards.Context
	}
	if cfg.ReservedOutputTokens == 0 && fc.Cards.ReservedOutputTokens > 0 {
		cfg.ReservedOutputTokens = fc.Cards.ReservedOutputTokens
	}

	if len(cfg.IncludeTags) == 0 && len(fc.Scrape.Include) > 0 {
		cfg.IncludeTags = append([]string{}, fc.Scrape.Include...)
	}
	if len(cfg.ExcludeTags) == 0 && len(fc.Scrape.ExcludeTags) > 0 {
		cfg.ExcludeTags = append([]string{}, fc.Scrape.ExcludeTags...)
	}
	if len(cfg.ExcludeIDs) == 0 && len(fc.Scrape.ExcludeIDs) > 0 {
		cfg.ExcludeIDs = append([]string{}, fc.Scrape.ExcludeIDs...)
	}
	if len(cfg.ExcludeClasses) == 0 && len(fc.Scrape.ExcludeClasses) > 0 {
		cfg.ExcludeClasses = append([]string{}, fc.Scrape.ExcludeClasses...)
	}
	if (cfg.UserAgent == "" || cfg.UserAgent == userAgentDefault) && fc.Scrape.UA != "" {
		cfg.UserAgent = fc.Scrape.UA
	}
	if (cfg.FetchTimeout == 0 || cfg.FetchTimeout == fetchTimeoutDefault) && fc.Scrape.Timeout > 0 {
		cfg.FetchTimeout = time.Duration(fc.Scrape.Timeout)
	}
	if (cfg.FetchAttempts == 0 || cfg.FetchAttempts == fetchAttemptsDefault) && fc.Scrape.Attempts > 0 {
		cfg.FetchAttempts = fc.Scrape.Attempts
	}

	if cfg.LogPath == "" && fc.Log.File != "" {
		cfg.LogPath = fc.Log.File
	}
	if cfg.ExportPDFPath == "" && fc.Export.PDF != "" {
		cfg.ExportPDFPath = fc.Export.PDF
	}

	if !cfg.DryRun && fc.DryRun {
		cfg.DryRun = true
	}
	if !cfg.AssumeYes && fc.Yes {
		cfg.AssumeYes = true
	}
	if !cfg.Verbose && fc.Verbose {
		cfg.Verbose = true
	}
}

// ValidateConfig performs minimal schema validation for required settings.
// The listing modes run without a source page or model.
func ValidateConfig(cfg Config) error {
	if cfg.CardCount < 0 || cfg.FetchAttempts < 0 || cfg.ReservedOutputTokens < 0 {
		return errors.New("config: negative limits are not allowed")
	}
	if cfg.ListModels || cfg.ListDecks {
		return nil
	}
	if strings.TrimSpace(cfg.URL) == "" {
		return errors.New("config: url is required")
	}
	if strings.TrimSpace(cfg.Deck) == "" {
		return errors.New("config: anki.deck is required")
	}
	if strings.TrimSpace(cfg.NoteType) == "" {
		return errors.New("config: anki.note is required")
	}
	if strings.TrimSpace(cfg.LLMModel) == "" {
		return errors.New("config: llm.model is required (or set LLM_MODEL)")
	}
	return nil
}
