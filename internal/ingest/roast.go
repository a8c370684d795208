package ingest

import (
	"context"
	"fmt"
)

const roastPrompt = "Rewrite the following budget notification as a short, " +
	"playful roast of the user's spending habits. Keep every number and the " +
	"category name intact, one sentence, no emoji: %q"

// Roaster rewrites deterministic budget messages into playful ones. It
// satisfies the notification rewriter contract used by the goals package;
// callers fall back to the original message when it fails.
type Roaster struct {
	client *Client
}

func NewRoaster(client *Client) *Roaster {
	return &Roaster{client: client}
}

func (r *Roaster) Rewrite(ctx context.Context, message string) (string, error) {
	req := chatRequest{
		Model: chatModel,
		Messages: []chatMessage{
			{Role: "system", Content: "You are a witty financial assistant."},
			{Role: "user", Content: fmt.Sprintf(roastPrompt, message)},
		},
	}

	var resp chatResponse
	if err := r.client.postJSON(ctx, "/chat/completions", req, &resp); err != nil {
		return "", fmt.Errorf("roast message: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("roast message: empty completion")
	}
	return stripCodeFences(resp.Choices[0].Message.Content), nil
}
