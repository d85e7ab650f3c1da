package qa

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/ankigen/ankigen/internal/llm"
)

// ErrNoContent reports a generation response that carried no textual content
// at all. It is the only hard failure of pair extraction; content without
// recognizable markers degrades to zero pairs instead.
var ErrNoContent = errors.New("generation response has no content")

// Generator asks a chat model to write flashcards about extracted page text
// and parses the reply into pairs.
type Generator struct {
	Client llm.Client
	Model  string
	// Context is an optional user-supplied hint prepended to the request,
	// e.g. the subject area of the page.
	Context string
	// CardCount is how many cards to ask for. Zero lets the model decide.
	CardCount int
}

// Generate runs one chat completion over the page text and returns the parsed
// pairs in model output order. A transport error is retried once after a
// short pause. Zero pairs from usable content is a valid, non-error result.
func (g *Generator) Generate(ctx context.Context, pageText string) ([]Pair, error) {
	if g.Client == nil || strings.TrimSpace(g.Model) == "" {
		return nil, errors.New("generator not configured")
	}
	req := openai.ChatCompletionRequest{
		Model: g.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemMessage},
			{Role: openai.ChatMessageRoleUser, Content: buildUserMessage(g.Context, g.CardCount, pageText)},
		},
		Temperature: 0.3,
		N:           1,
	}
	resp, err := g.Client.CreateChatCompletion(ctx, req)
	if err != nil {
		sleepFn(retryPause)
		resp, err = g.Client.CreateChatCompletion(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("generate call (after retry): %w", err)
		}
	}
	if len(resp.Choices) == 0 {
		return nil, ErrNoContent
	}
	raw := resp.Choices[0].Message.Content
	if strings.TrimSpace(raw) == "" {
		return nil, ErrNoContent
	}
	return ExtractPairs(raw), nil
}

const retryPause = 100 * time.Millisecond

// sleepFn lets tests replace the retry pause with a no-op.
var sleepFn = time.Sleep
