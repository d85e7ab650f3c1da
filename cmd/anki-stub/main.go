package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
)

// anki-stub is an in-memory stand-in for the AnkiConnect add-on so the CLI
// can be developed and demoed without a running Anki desktop.

type request struct {
	Action  string          `json:"action"`
	Version int             `json:"version"`
	Params  json.RawMessage `json:"params"`
}

type note struct {
	DeckName  string            `json:"deckName"`
	ModelName string            `json:"modelName"`
	Fields    map[string]string `json:"fields"`
	Tags      []string          `json:"tags"`
}

type store struct {
	mu     sync.Mutex
	decks  map[string]bool
	models map[string]bool
	notes  []note
	nextID int64
}

func newStore() *store {
	return &store{
		decks:  map[string]bool{"Default": true},
		models: map[string]bool{"Basic": true, "Basic (and reversed card)": true, "Cloze": true},
		nextID: time.Now().UnixMilli(),
	}
}

func (s *store) addNote(n note) (int64, string) {
	if !s.models[n.ModelName] {
		return 0, "model was not found: " + n.ModelName
	}
	if !s.decks[n.DeckName] {
		return 0, "deck was not found: " + n.DeckName
	}
	s.notes = append(s.notes, n)
	id := s.nextID
	s.nextID++
	return id, ""
}

func main() {
	addr := os.Getenv("ADDR")
	if strings.TrimSpace(addr) == "" {
		addr = ":8765"
	}

	st := newStore()

	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			reply(w, nil, "invalid request: "+err.Error())
			return
		}

		st.mu.Lock()
		defer st.mu.Unlock()

		switch req.Action {
		case "version":
			reply(w, 6, "")
		case "deckNames":
			names := make([]string, 0, len(st.decks))
			for d := range st.decks {
				names = append(names, d)
			}
			reply(w, names, "")
		case "createDeck":
			var p struct {
				Deck string `json:"deck"`
			}
			_ = json.Unmarshal(req.Params, &p)
			st.decks[p.Deck] = true
			log.Printf("created deck %q", p.Deck)
			reply(w, st.nextID, "")
		case "modelNames":
			names := make([]string, 0, len(st.models))
			for m := range st.models {
				names = append(names, m)
			}
			reply(w, names, "")
		case "addNote":
			var p struct {
				Note note `json:"note"`
			}
			_ = json.Unmarshal(req.Params, &p)
			id, errMsg := st.addNote(p.Note)
			if errMsg != "" {
				reply(w, nil, errMsg)
				return
			}
			log.Printf("added note %d to %q: %q", id, p.Note.DeckName, p.Note.Fields["Front"])
			reply(w, id, "")
		case "addNotes":
			var p struct {
				Notes []note `json:"notes"`
			}
			_ = json.Unmarshal(req.Params, &p)
			ids := make([]any, 0, len(p.Notes))
			for _, n := range p.Notes {
				id, errMsg := st.addNote(n)
				if errMsg != "" {
					ids = append(ids, nil)
					continue
				}
				ids = append(ids, id)
			}
			log.Printf("added %d notes", len(ids))
			reply(w, ids, "")
		default:
			reply(w, nil, "unsupported action: "+req.Action)
		}
	})

	log.Printf("anki-stub listening on %s", addr)
	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Fatal(err)
	}
}

func reply(w http.ResponseWriter, result any, errMsg string) {
	w.Header().Set("Content-Type", "application/json")
	resp := map[string]any{"result": result, "error": nil}
	if errMsg != "" {
		resp["error"] = errMsg
	}
	_ = json.NewEncoder(w).Encode(resp)
}
