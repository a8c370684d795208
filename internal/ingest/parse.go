package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strings"

	"easeabill/internal/core"

	"github.com/shopspring/decimal"
)

// Item is one purchase the LLM extracted from a transcript or receipt.
type Item struct {
	Product  string          `json:"product"`
	Price    decimal.Decimal `json:"price"`
	Category string          `json:"category"`
}

const parsePromptFormat = "The categories are: %s. " +
	"Detect the products bought, the prices (in dollars), and the categories from the following text, " +
	"and return the result in a JSON format with a list of items, each containing " +
	"'product', 'price', and 'category' fields: %q"

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type       string     `json:"type"`
	JSONSchema jsonSchema `json:"json_schema"`
}

type jsonSchema struct {
	Name   string         `json:"name"`
	Schema map[string]any `json:"schema"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

var purchaseSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"items": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"product":  map[string]any{"type": "string"},
					"price":    map[string]any{"type": "number"},
					"category": map[string]any{"type": "string"},
				},
				"required": []string{"product", "price", "category"},
			},
		},
	},
	"required": []string{"items"},
}

// ParseItems extracts structured purchase items from free text (a voice
// transcript or OCR'd receipt). Identical inputs are served from cache.
func (c *Client) ParseItems(ctx context.Context, text string) ([]Item, error) {
	cacheKey := fmt.Sprintf("%x", sha256.Sum256([]byte(text)))
	if items, ok := c.parseCache.Get(cacheKey); ok {
		return items, nil
	}

	prompt := fmt.Sprintf(parsePromptFormat, strings.Join(core.ExpenseCategories, ", "), text)

	req := chatRequest{
		Model: chatModel,
		Messages: []chatMessage{
			{Role: "system", Content: "You are a helpful assistant."},
			{Role: "user", Content: prompt},
		},
		ResponseFormat: &responseFormat{
			Type:       "json_schema",
			JSONSchema: jsonSchema{Name: "purchase_info", Schema: purchaseSchema},
		},
	}

	var resp chatResponse
	if err := c.postJSON(ctx, "/chat/completions", req, &resp); err != nil {
		return nil, fmt.Errorf("parse items: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("parse items: empty completion")
	}

	content := stripCodeFences(resp.Choices[0].Message.Content)

	var parsed struct {
		Items []Item `json:"items"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}

	c.parseCache.Set(cacheKey, parsed.Items)
	return parsed.Items, nil
}

// Models sometimes wrap JSON in a markdown code block despite the schema.
func stripCodeFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
