package cardlog

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func readAll(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	return rows
}

func TestAppend_CreatesWithHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cards.csv")
	when := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	err := Append(path, []Entry{{
		When:   when,
		URL:    "https://example.com/a",
		Deck:   "Biology",
		Model:  "Basic",
		Front:  "What is mitosis?",
		Back:   "Cell division",
		NoteID: 42,
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rows := readAll(t, path)
	if len(rows) != 2 {
		t.Fatalf("expected header + 1 entry, got %d rows", len(rows))
	}
	if rows[0][0] != "added_at" || rows[0][6] != "note_id" {
		t.Fatalf("unexpected header: %v", rows[0])
	}
	if rows[1][0] != "2024-05-01T12:30:00Z" {
		t.Fatalf("unexpected timestamp: %q", rows[1][0])
	}
	if rows[1][4] != "What is mitosis?" || rows[1][6] != "42" {
		t.Fatalf("unexpected entry: %v", rows[1])
	}
}

func TestAppend_NoSecondHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cards.csv")
	e := Entry{When: time.Now(), URL: "u", Deck: "d", Model: "m", Front: "f", Back: "b", NoteID: 1}
	if err := Append(path, []Entry{e}); err != nil {
		t.Fatalf("first append: %v", err)
	}
	if err := Append(path, []Entry{e, e}); err != nil {
		t.Fatalf("second append: %v", err)
	}

	rows := readAll(t, path)
	if len(rows) != 4 {
		t.Fatalf("expected header + 3 entries, got %d rows", len(rows))
	}
	for _, row := range rows[1:] {
		if row[0] == "added_at" {
			t.Fatalf("header repeated: %v", rows)
		}
	}
}

func TestAppend_QuotesAwkwardText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cards.csv")
	front := "Comma, \"quote\" and\nnewline?"
	if err := Append(path, []Entry{{When: time.Now(), Front: front, Back: "b"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rows := readAll(t, path)
	if rows[1][4] != front {
		t.Fatalf("front not preserved: %q", rows[1][4])
	}
}

func TestAppend_EmptyPathIsDisabled(t *testing.T) {
	if err := Append("", []Entry{{Front: "f"}}); err != nil {
		t.Fatalf("empty path must be a no-op, got %v", err)
	}
}

func TestAppend_NoEntriesWritesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cards.csv")
	if err := Append(path, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected no file for zero entries")
	}
}
