package http

import (
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"easeabill/internal/core"
	"easeabill/internal/goals"
	"easeabill/internal/ingest"
	"easeabill/internal/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// expenseJSON is the shape the client's Expense.fromJson() expects.
type expenseJSON struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
	Date        string  `json:"date"`
	Description string  `json:"description"`
	UserID      string  `json:"userId"`
}

func toExpenseJSON(e core.Expense) expenseJSON {
	return expenseJSON{
		ID:          e.ID.String(),
		Title:       e.Title,
		Amount:      e.Amount.InexactFloat64(),
		Category:    e.Category,
		Date:        e.Date.UTC().Format(time.RFC3339),
		Description: e.Description,
		UserID:      e.UserID,
	}
}

type expenseRequest struct {
	Title       *string  `json:"title"`
	Amount      *float64 `json:"amount"`
	Category    *string  `json:"category"`
	Date        *string  `json:"date"`
	Description *string  `json:"description"`
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 200)
	expenses, err := s.storage.ListExpenses(r.Context(), userIDFrom(r.Context()), limit)
	if err != nil {
		slog.ErrorContext(r.Context(), "List expenses failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list expenses")
		return
	}

	out := make([]expenseJSON, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, toExpenseJSON(e))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	e := core.Expense{UserID: userIDFrom(r.Context()), Date: time.Now().UTC()}
	if req.Title != nil {
		e.Title = sanitizeInput(*req.Title)
	}
	if req.Amount != nil {
		e.Amount = decimal.NewFromFloat(*req.Amount)
	}
	if req.Category != nil {
		e.Category = sanitizeInput(*req.Category)
	}
	if req.Description != nil {
		e.Description = sanitizeInput(*req.Description)
	}
	if req.Date != nil {
		date, err := parseExpenseDate(*req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date")
			return
		}
		e.Date = date
	}

	saved, alerts, err := s.expenseSvc.CreateExpense(r.Context(), e)
	if isValidationError(err) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Create expense failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create expense")
		return
	}

	s.httpLog.LogExpenseCreated(r.Context(), saved.UserID, saved.ID.String(), saved.Category, saved.Amount.InexactFloat64())

	writeJSON(w, http.StatusCreated, map[string]any{
		"expense": toExpenseJSON(saved),
		"alerts":  alertsJSON(alerts),
	})
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid expense ID")
		return
	}

	var req expenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var amount *decimal.Decimal
	if req.Amount != nil {
		v := decimal.NewFromFloat(*req.Amount)
		amount = &v
	}
	var date *time.Time
	if req.Date != nil {
		d, err := parseExpenseDate(*req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date")
			return
		}
		date = &d
	}

	updated, err := s.storage.UpdateExpense(r.Context(), userIDFrom(r.Context()), id,
		req.Title, amount, req.Category, date, req.Description)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Expense not found")
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Update expense failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to update expense")
		return
	}
	writeJSON(w, http.StatusOK, toExpenseJSON(updated))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid expense ID")
		return
	}

	err = s.storage.DeleteExpense(r.Context(), userIDFrom(r.Context()), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Expense not found")
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Delete expense failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete expense")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Deleted"})
}

const maxUploadBytes = 20 << 20 // 20 MiB

// handleUploadAudio transcribes a voice memo and parses purchase items out
// of the transcript. The client confirms items before they become expenses.
func (s *Server) handleUploadAudio(w http.ResponseWriter, r *http.Request) {
	if s.ingestor == nil {
		writeError(w, http.StatusServiceUnavailable, "Audio ingestion is not configured")
		return
	}

	file, header, err := uploadedFile(w, r)
	if err != nil {
		return
	}
	defer file.Close()

	transcript, err := s.ingestor.Transcribe(r.Context(), header.Filename, file)
	if err != nil {
		slog.ErrorContext(r.Context(), "Transcription failed", "error", err)
		writeError(w, http.StatusBadGateway, "Transcription failed")
		return
	}

	items, err := s.ingestor.ParseItems(r.Context(), transcript)
	if err != nil {
		slog.ErrorContext(r.Context(), "Item parsing failed", "error", err)
		writeError(w, http.StatusBadGateway, "Could not parse items from audio")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Success",
		"items":   items,
	})
}

// handleUploadImage runs OCR over a receipt photo and parses purchase items
// out of the recognized text.
func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	if s.ingestor == nil {
		writeError(w, http.StatusServiceUnavailable, "Receipt ingestion is not configured")
		return
	}

	file, header, err := uploadedFile(w, r)
	if err != nil {
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Could not read file")
		return
	}

	text, err := s.ingestor.ExtractReceiptText(r.Context(), header.Filename, data)
	if errors.Is(err, ingest.ErrUnsupportedFormat) {
		writeError(w, http.StatusBadRequest, "Unsupported file format")
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Receipt OCR failed", "error", err)
		writeError(w, http.StatusBadGateway, "Receipt OCR failed")
		return
	}

	items, err := s.ingestor.ParseItems(r.Context(), text)
	if err != nil {
		slog.ErrorContext(r.Context(), "Item parsing failed", "error", err)
		writeError(w, http.StatusBadGateway, "Could not parse items from receipt")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Success",
		"items":   items,
	})
}

func uploadedFile(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "No file provided")
		return nil, nil, err
	}
	f, h, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file provided")
		return nil, nil, err
	}
	if h.Filename == "" {
		f.Close()
		writeError(w, http.StatusBadRequest, "Empty filename")
		return nil, nil, errors.New("empty filename")
	}
	return f, h, nil
}

func alertsJSON(alerts []goals.Alert) []goals.Alert {
	if alerts == nil {
		return []goals.Alert{}
	}
	return alerts
}

func parseExpenseDate(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), nil
	}
	return time.Parse("2006-01-02", v)
}

func isValidationError(err error) bool {
	return errors.Is(err, core.ErrEmptyTitle) ||
		errors.Is(err, core.ErrEmptyCategory) ||
		errors.Is(err, core.ErrNegativeAmount)
}
