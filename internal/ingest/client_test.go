package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("test-key", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
}

func TestTranscribe(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/transcriptions" {
			t.Errorf("path = %s, want /audio/transcriptions", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("model"); got != transcriptionModel {
			t.Errorf("model = %q, want %q", got, transcriptionModel)
		}
		if got := r.FormValue("response_format"); got != "text" {
			t.Errorf("response_format = %q, want text", got)
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("missing file part: %v", err)
		}
		w.Write([]byte("bought coffee for five dollars"))
	})

	text, err := client.Transcribe(context.Background(), "memo.m4a", strings.NewReader("fake-audio"))
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if text != "bought coffee for five dollars" {
		t.Errorf("Transcribe() = %q", text)
	}
}

func TestTranscribeAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	})

	if _, err := client.Transcribe(context.Background(), "memo.m4a", strings.NewReader("x")); err == nil {
		t.Fatal("Transcribe() should surface non-200 responses")
	}
}

func TestExtractReceiptText(t *testing.T) {
	var gotDoc ocrDocument
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ocr" {
			t.Errorf("path = %s, want /ocr", r.URL.Path)
		}
		var req ocrRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		gotDoc = req.Document
		json.NewEncoder(w).Encode(ocrResponse{Pages: []struct {
			Markdown string `json:"markdown"`
		}{{Markdown: "COFFEE 5.00"}, {Markdown: "BAGEL 3.50"}}})
	})

	text, err := client.ExtractReceiptText(context.Background(), "receipt.jpg", []byte{0xff, 0xd8})
	if err != nil {
		t.Fatalf("ExtractReceiptText() error = %v", err)
	}
	if text != "COFFEE 5.00\nBAGEL 3.50\n" {
		t.Errorf("ExtractReceiptText() = %q", text)
	}
	if gotDoc.Type != "image_url" || !strings.HasPrefix(gotDoc.ImageURL, "data:image/jpeg;base64,") {
		t.Errorf("jpg should go as an inline image, got %+v", gotDoc)
	}

	_, err = client.ExtractReceiptText(context.Background(), "receipt.pdf", []byte("%PDF"))
	if err != nil {
		t.Fatalf("ExtractReceiptText() error = %v", err)
	}
	if gotDoc.Type != "document_url" || !strings.HasPrefix(gotDoc.DocumentURL, "data:application/pdf;base64,") {
		t.Errorf("pdf should go as a document, got %+v", gotDoc)
	}
}

func TestExtractReceiptTextUnsupportedFormat(t *testing.T) {
	client := NewClient("test-key")
	_, err := client.ExtractReceiptText(context.Background(), "notes.txt", []byte("hi"))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestParseItems(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"plain json", `{"items":[{"product":"coffee","price":5,"category":"Food & Dining"}]}`},
		{"fenced json", "```json\n{\"items\":[{\"product\":\"coffee\",\"price\":5,\"category\":\"Food & Dining\"}]}\n```"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/chat/completions" {
					t.Errorf("path = %s, want /chat/completions", r.URL.Path)
				}
				var req chatRequest
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					t.Fatalf("decode request: %v", err)
				}
				if req.ResponseFormat == nil || req.ResponseFormat.Type != "json_schema" {
					t.Error("request missing json_schema response format")
				}
				if len(req.Messages) != 2 || !strings.Contains(req.Messages[1].Content, "Grocery") {
					t.Error("prompt should enumerate the category set")
				}
				resp := map[string]any{"choices": []map[string]any{
					{"message": map[string]any{"content": tt.content}},
				}}
				json.NewEncoder(w).Encode(resp)
			})

			items, err := client.ParseItems(context.Background(), "bought coffee for five dollars")
			if err != nil {
				t.Fatalf("ParseItems() error = %v", err)
			}
			if len(items) != 1 {
				t.Fatalf("got %d items, want 1", len(items))
			}
			if items[0].Product != "coffee" || items[0].Category != "Food & Dining" {
				t.Errorf("item = %+v", items[0])
			}
			if !items[0].Price.Equal(decimal.NewFromInt(5)) {
				t.Errorf("price = %s, want 5", items[0].Price)
			}
		})
	}
}

func TestParseItemsCached(t *testing.T) {
	var calls int
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		resp := map[string]any{"choices": []map[string]any{
			{"message": map[string]any{"content": `{"items":[{"product":"milk","price":2,"category":"Grocery"}]}`}},
		}}
		json.NewEncoder(w).Encode(resp)
	})

	for i := 0; i < 3; i++ {
		items, err := client.ParseItems(context.Background(), "bought milk")
		if err != nil {
			t.Fatalf("ParseItems() error = %v", err)
		}
		if len(items) != 1 {
			t.Fatalf("got %d items, want 1", len(items))
		}
	}
	if calls != 1 {
		t.Errorf("API calls = %d, want 1 (repeats served from cache)", calls)
	}

	if _, err := client.ParseItems(context.Background(), "bought bread"); err != nil {
		t.Fatalf("ParseItems() error = %v", err)
	}
	if calls != 2 {
		t.Errorf("API calls = %d, want 2 (different input misses cache)", calls)
	}
}

func TestParseItemsEmptyCompletion(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	})

	if _, err := client.ParseItems(context.Background(), "text"); err == nil {
		t.Fatal("ParseItems() should fail on empty choices")
	}
}

func TestRoasterRewrite(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.ResponseFormat != nil {
			t.Error("roast should be free-form, not schema constrained")
		}
		resp := map[string]any{"choices": []map[string]any{
			{"message": map[string]any{"content": "Grocery at 83% already? The month has barely started."}},
		}}
		json.NewEncoder(w).Encode(resp)
	})

	out, err := NewRoaster(client).Rewrite(context.Background(), "Grocery: 83% used (+48% vs pace). Remaining 50.00.")
	if err != nil {
		t.Fatalf("Rewrite() error = %v", err)
	}
	if !strings.Contains(out, "83%") {
		t.Errorf("Rewrite() = %q", out)
	}
}
