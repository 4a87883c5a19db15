// Package handlers exposes the insights pipeline over HTTP.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/eventlens-ai/insights-engine/pkg/models"
	"github.com/eventlens-ai/insights-engine/pkg/services"
)

// ChatRequest for POST /api/insights/chat.
type ChatRequest struct {
	Message string               `json:"message"`
	History []models.ChatMessage `json:"history,omitempty"`
}

// HistoryEntryResponse is one audit record in GET /api/insights/history.
type HistoryEntryResponse struct {
	ID         string `json:"id"`
	Question   string `json:"question"`
	Scope      string `json:"scope"`
	SQL        string `json:"sql,omitempty"`
	RowCount   int    `json:"row_count"`
	OK         bool   `json:"ok"`
	DurationMS int64  `json:"duration_ms"`
	CreatedAt  string `json:"created_at"`
}

// HistoryResponse for GET /api/insights/history.
type HistoryResponse struct {
	Entries []HistoryEntryResponse `json:"entries"`
	Total   int                    `json:"total"`
}

// InsightsChat is the question-answering capability behind the handler.
type InsightsChat interface {
	HandleQuestion(ctx context.Context, question string, history []models.ChatMessage) (*models.ChatAnswer, error)
}

// HistoryReader lists recent audit records.
type HistoryReader interface {
	Recent(ctx context.Context, limit int) ([]*services.HistoryRecord, error)
}

// ChatHandler handles insights chat HTTP requests.
type ChatHandler struct {
	chat    InsightsChat
	history HistoryReader // may be nil
	logger  *zap.Logger
}

// NewChatHandler creates a chat handler. history may be nil.
func NewChatHandler(chat InsightsChat, history HistoryReader, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{chat: chat, history: history, logger: logger}
}

// RegisterRoutes registers the chat handler's routes on the given mux.
func (h *ChatHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/insights/chat", h.SendMessage)
	mux.HandleFunc("GET /api/insights/history", h.GetHistory)
}

// SendMessage handles POST /api/insights/chat.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if req.Message == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "missing_message", "Message is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	answer, err := h.chat.HandleQuestion(r.Context(), req.Message, req.History)
	if err != nil {
		h.logger.Error("Chat handling failed", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to answer question"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: answer}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// GetHistory handles GET /api/insights/history.
func (h *ChatHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		if err := ErrorResponse(w, http.StatusNotFound, "history_disabled", "Query history is not enabled"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}

	records, err := h.history.Recent(r.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to get query history", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to get query history"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	data := HistoryResponse{
		Entries: make([]HistoryEntryResponse, len(records)),
		Total:   len(records),
	}
	for i, rec := range records {
		data.Entries[i] = HistoryEntryResponse{
			ID:         rec.ID.String(),
			Question:   rec.Question,
			Scope:      rec.Scope,
			SQL:        rec.SQL,
			RowCount:   rec.RowCount,
			OK:         rec.OK,
			DurationMS: rec.MS,
			CreatedAt:  rec.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: data}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
