package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteCardSheet_ProducesPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cards.pdf")
	cards := []Card{
		{Front: "What is mitosis?", Back: "Cell division producing identical daughter cells"},
		{Front: "Quelle est la capitale?", Back: "C'est Paris, bien sûr"},
	}
	if err := WriteCardSheet("Biology", "https://example.com/bio", cards, path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sheet: %v", err)
	}
	if !strings.HasPrefix(string(b), "%PDF-") {
		t.Fatalf("output is not a PDF, starts with %q", string(b[:8]))
	}
	if len(b) < 500 {
		t.Fatalf("suspiciously small PDF: %d bytes", len(b))
	}
}

func TestWriteCardSheet_ManyCards(t *testing.T) {
	dir := t.TempDir()
	small := filepath.Join(dir, "small.pdf")
	large := filepath.Join(dir, "large.pdf")

	one := []Card{{Front: "f", Back: "b"}}
	many := make([]Card, 200)
	for i := range many {
		many[i] = Card{Front: "A question that wraps across the column width of the sheet?", Back: "An answer long enough to take a couple of lines when rendered."}
	}

	if err := WriteCardSheet("t", "", one, small); err != nil {
		t.Fatalf("small sheet: %v", err)
	}
	if err := WriteCardSheet("t", "", many, large); err != nil {
		t.Fatalf("large sheet: %v", err)
	}

	si, err := os.Stat(small)
	if err != nil {
		t.Fatalf("stat small: %v", err)
	}
	li, err := os.Stat(large)
	if err != nil {
		t.Fatalf("stat large: %v", err)
	}
	if li.Size() <= si.Size() {
		t.Fatalf("expected the 200 card sheet to outgrow the 1 card sheet (%d <= %d)", li.Size(), si.Size())
	}
}
