package app

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ankigen/ankigen/internal/qa"
)

func samplePairs() []qa.Pair {
	return []qa.Pair{
		{Front: "What is mitosis?", Back: "Cell division producing identical daughter cells."},
		{Front: "What is meiosis?", Back: "Cell division producing gametes."},
		{Front: "What is cytokinesis?", Back: "Division of the cytoplasm."},
	}
}

func TestReviewPairs_KeepAndSkip(t *testing.T) {
	in := strings.NewReader("y\nn\n\n")
	var out bytes.Buffer
	kept, err := reviewPairs(in, &out, samplePairs())
	if err != nil {
		t.Fatalf("reviewPairs error: %v", err)
	}
	if len(kept) != 2 {
		t.Fatalf("kept %d cards, want 2", len(kept))
	}
	if kept[0].Front != "What is mitosis?" || kept[1].Front != "What is cytokinesis?" {
		t.Fatalf("wrong cards kept: %+v", kept)
	}
	if !strings.Contains(out.String(), "Card 1/3") || !strings.Contains(out.String(), "Card 3/3") {
		t.Fatalf("prompt output missing card counters: %q", out.String())
	}
}

func TestReviewPairs_Edit(t *testing.T) {
	// Edit the first card's front, keep its back, then quit.
	in := strings.NewReader("e\nWhat is cell division called?\n\nq\n")
	var out bytes.Buffer
	kept, err := reviewPairs(in, &out, samplePairs())
	if err != nil {
		t.Fatalf("reviewPairs error: %v", err)
	}
	if len(kept) != 1 {
		t.Fatalf("kept %d cards, want 1", len(kept))
	}
	if kept[0].Front != "What is cell division called?" {
		t.Fatalf("front not edited: %q", kept[0].Front)
	}
	if kept[0].Back != "Cell division producing identical daughter cells." {
		t.Fatalf("empty line should keep the back: %q", kept[0].Back)
	}
}

func TestReviewPairs_AllKeepsRest(t *testing.T) {
	in := strings.NewReader("n\na\n")
	var out bytes.Buffer
	kept, err := reviewPairs(in, &out, samplePairs())
	if err != nil {
		t.Fatalf("reviewPairs error: %v", err)
	}
	if len(kept) != 2 {
		t.Fatalf("kept %d cards, want 2", len(kept))
	}
	if kept[0].Front != "What is meiosis?" {
		t.Fatalf("all should keep from the current card: %+v", kept)
	}
}

func TestReviewPairs_QuitDropsRest(t *testing.T) {
	in := strings.NewReader("y\nq\n")
	var out bytes.Buffer
	kept, err := reviewPairs(in, &out, samplePairs())
	if err != nil {
		t.Fatalf("reviewPairs error: %v", err)
	}
	if len(kept) != 1 || kept[0].Front != "What is mitosis?" {
		t.Fatalf("quit should keep only prior cards: %+v", kept)
	}
}

func TestReviewPairs_EOFBehavesLikeQuit(t *testing.T) {
	in := strings.NewReader("y\n")
	var out bytes.Buffer
	kept, err := reviewPairs(in, &out, samplePairs())
	if err != nil {
		t.Fatalf("reviewPairs error: %v", err)
	}
	if len(kept) != 1 {
		t.Fatalf("EOF should keep only prior cards: %+v", kept)
	}
}

func TestReviewPairs_UnrecognizedInputRepeatsCard(t *testing.T) {
	in := strings.NewReader("maybe\ny\nq\n")
	var out bytes.Buffer
	kept, err := reviewPairs(in, &out, samplePairs())
	if err != nil {
		t.Fatalf("reviewPairs error: %v", err)
	}
	if len(kept) != 1 || kept[0].Front != "What is mitosis?" {
		t.Fatalf("unrecognized input should re-ask the same card: %+v", kept)
	}
	if c := strings.Count(out.String(), "Card 1/3"); c != 2 {
		t.Fatalf("card 1 prompted %d times, want 2", c)
	}
}
