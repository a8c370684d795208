package ingest

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned for receipt files that are neither PDFs
// nor common image formats.
var ErrUnsupportedFormat = errors.New("unsupported file format")

var imageMimeTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
}

type ocrRequest struct {
	Model    string      `json:"model"`
	Document ocrDocument `json:"document"`
}

type ocrDocument struct {
	Type        string `json:"type"`
	DocumentURL string `json:"document_url,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

type ocrResponse struct {
	Pages []struct {
		Markdown string `json:"markdown"`
	} `json:"pages"`
}

// ExtractReceiptText runs the OCR model over a receipt file and returns the
// concatenated per-page markdown. PDFs go through as documents, images as
// inline image URLs.
func (c *Client) ExtractReceiptText(ctx context.Context, filename string, data []byte) (string, error) {
	doc, err := documentFor(filename, data)
	if err != nil {
		return "", err
	}

	var resp ocrResponse
	if err := c.postJSON(ctx, "/ocr", ocrRequest{Model: ocrModel, Document: doc}, &resp); err != nil {
		return "", fmt.Errorf("receipt OCR: %w", err)
	}

	var text strings.Builder
	for _, page := range resp.Pages {
		text.WriteString(page.Markdown)
		text.WriteString("\n")
	}
	return text.String(), nil
}

func documentFor(filename string, data []byte) (ocrDocument, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	encoded := base64.StdEncoding.EncodeToString(data)

	if ext == ".pdf" {
		return ocrDocument{
			Type:        "document_url",
			DocumentURL: "data:application/pdf;base64," + encoded,
		}, nil
	}
	if mime, ok := imageMimeTypes[ext]; ok {
		return ocrDocument{
			Type:     "image_url",
			ImageURL: "data:" + mime + ";base64," + encoded,
		}, nil
	}
	return ocrDocument{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
}
