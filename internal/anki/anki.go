// Package anki talks to the AnkiConnect add-on of a running Anki desktop
// instance. Every call is a POST of a small JSON envelope to the add-on's
// local HTTP endpoint.
package anki

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

// apiVersion is the AnkiConnect protocol version sent with every request.
const apiVersion = 6

// Note is one flashcard destined for a deck.
type Note struct {
	Deck  string
	Model string
	Front string
	Back  string
	Tags  []string
}

// Client issues AnkiConnect actions against a single endpoint.
type Client struct {
	// BaseURL is the AnkiConnect endpoint, e.g. http://127.0.0.1:8765.
	BaseURL string
	// Timeout bounds each call. Zero means default (10s).
	Timeout time.Duration

	http     *resty.Client
	httpOnce sync.Once
}

func (c *Client) client() *resty.Client {
	c.httpOnce.Do(func() {
		r := resty.New()
		r.SetBaseURL(c.BaseURL)
		timeout := c.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		r.SetTimeout(timeout)
		r.SetHeader("Content-Type", "application/json")
		c.http = r
	})
	return c.http
}

type envelope struct {
	Action  string `json:"action"`
	Version int    `json:"version"`
	Params  any    `json:"params,omitempty"`
}

type reply struct {
	Result json.RawMessage `json:"result"`
	Error  *string         `json:"error"`
}

// invoke posts one action and decodes its result into out when out is non-nil.
func (c *Client) invoke(ctx context.Context, action string, params any, out any) error {
	if c.BaseURL == "" {
		return fmt.Errorf("missing ankiconnect url")
	}
	resp, err := c.client().R().
		SetContext(ctx).
		SetBody(envelope{Action: action, Version: apiVersion, Params: params}).
		Post("")
	if err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("%s: unexpected status %d", action, resp.StatusCode())
	}
	var rep reply
	if err := json.Unmarshal(resp.Body(), &rep); err != nil {
		return fmt.Errorf("%s: decode response: %w", action, err)
	}
	if rep.Error != nil && *rep.Error != "" {
		return fmt.Errorf("%s: %s", action, *rep.Error)
	}
	if out != nil && len(rep.Result) > 0 {
		if err := json.Unmarshal(rep.Result, out); err != nil {
			return fmt.Errorf("%s: decode result: %w", action, err)
		}
	}
	return nil
}

// Version reports the protocol version of the reachable AnkiConnect add-on.
// It doubles as the connectivity probe.
func (c *Client) Version(ctx context.Context) (int, error) {
	var v int
	if err := c.invoke(ctx, "version", nil, &v); err != nil {
		return 0, err
	}
	return v, nil
}

// DeckNames lists the decks of the running Anki instance.
func (c *Client) DeckNames(ctx context.Context) ([]string, error) {
	var names []string
	if err := c.invoke(ctx, "deckNames", nil, &names); err != nil {
		return nil, err
	}
	return names, nil
}

// CreateDeck creates a deck. AnkiConnect treats an existing deck as success.
func (c *Client) CreateDeck(ctx context.Context, name string) error {
	return c.invoke(ctx, "createDeck", map[string]string{"deck": name}, nil)
}

// EnsureDeck creates the deck when it does not exist yet. Existing decks are
// left untouched.
func (c *Client) EnsureDeck(ctx context.Context, name string) error {
	decks, err := c.DeckNames(ctx)
	if err != nil {
		return err
	}
	for _, d := range decks {
		if d == name {
			return nil
		}
	}
	return c.CreateDeck(ctx, name)
}

// ModelNames lists the note types of the running Anki instance.
func (c *Client) ModelNames(ctx context.Context) ([]string, error) {
	var names []string
	if err := c.invoke(ctx, "modelNames", nil, &names); err != nil {
		return nil, err
	}
	return names, nil
}

// AddNote adds one note and returns its id.
func (c *Client) AddNote(ctx context.Context, n Note) (int64, error) {
	var id int64
	if err := c.invoke(ctx, "addNote", map[string]any{"note": n.toWire()}, &id); err != nil {
		return 0, err
	}
	return id, nil
}

// AddNotes adds a batch of notes. Ids are returned in input order with zero
// for any note the add-on rejected; a non-nil error reports the rejects.
func (c *Client) AddNotes(ctx context.Context, notes []Note) ([]int64, error) {
	if len(notes) == 0 {
		return nil, nil
	}
	wire := make([]noteJSON, 0, len(notes))
	for _, n := range notes {
		wire = append(wire, n.toWire())
	}
	var raw []*int64
	if err := c.invoke(ctx, "addNotes", map[string]any{"notes": wire}, &raw); err != nil {
		return nil, err
	}
	ids := make([]int64, len(raw))
	rejected := 0
	for i, id := range raw {
		if id == nil {
			rejected++
			continue
		}
		ids[i] = *id
	}
	if rejected > 0 {
		return ids, fmt.Errorf("addNotes: %d of %d notes rejected", rejected, len(notes))
	}
	return ids, nil
}

type noteJSON struct {
	DeckName  string            `json:"deckName"`
	ModelName string            `json:"modelName"`
	Fields    map[string]string `json:"fields"`
	Tags      []string          `json:"tags"`
	Options   noteOptions       `json:"options"`
}

type noteOptions struct {
	AllowDuplicate bool `json:"allowDuplicate"`
}

func (n Note) toWire() noteJSON {
	tags := n.Tags
	if tags == nil {
		tags = []string{}
	}
	return noteJSON{
		DeckName:  n.Deck,
		ModelName: n.Model,
		Fields:    map[string]string{"Front": n.Front, "Back": n.Back},
		Tags:      tags,
		// Repeated fronts stay addable; Anki's duplicate check would
		// otherwise drop cards the user already approved.
		Options: noteOptions{AllowDuplicate: true},
	}
}
