// Package cardlog keeps an append-only CSV trail of every card the tool adds
// to Anki, so past runs stay auditable outside of Anki itself.
package cardlog

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Entry is one added card.
type Entry struct {
	When   time.Time
	URL    string
	Deck   string
	Model  string
	Front  string
	Back   string
	NoteID int64
}

var header = []string{"added_at", "source_url", "deck", "note_type", "front", "back", "note_id"}

// Append writes entries to the CSV file at path, creating the file with a
// header row on first use. An empty path disables logging.
func Append(path string, entries []Entry) error {
	if path == "" || len(entries) == 0 {
		return nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open card log: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat card log: %w", err)
	}
	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(header); err != nil {
			return fmt.Errorf("write card log header: %w", err)
		}
	}
	for _, e := range entries {
		record := []string{
			e.When.UTC().Format(time.RFC3339),
			e.URL,
			e.Deck,
			e.Model,
			e.Front,
			e.Back,
			strconv.FormatInt(e.NoteID, 10),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write card log entry: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush card log: %w", err)
	}
	return nil
}
