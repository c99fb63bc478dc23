// Package webdemo exposes the dialogue engine over plain HTTP for the
// public demo page. Bookings made here are flagged as simulations.
package webdemo

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/Robinhohocepied/mediflow/internal/engine"
	"github.com/Robinhohocepied/mediflow/pkg/logging"
)

// Channel is the identifier this handler reports to the engine.
const Channel = "web_demo"

// Dialogue is the engine surface the handler drives.
type Dialogue interface {
	Process(ctx context.Context, channel, externalID, text string) (*engine.Reply, error)
	Reset(ctx context.Context, channel, externalID string) error
}

// Handler serves the demo chat endpoints.
type Handler struct {
	svc    Dialogue
	logger *logging.Logger
}

// NewHandler creates a demo handler.
func NewHandler(svc Dialogue, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// ChatRequest is one demo turn from the browser.
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

// ChatResponse carries the engine reply. Done marks terminal stages for
// the page; the demo keeps answering either way.
type ChatResponse struct {
	OK        bool            `json:"ok"`
	SessionID string          `json:"session_id"`
	Reply     *engine.Reply   `json:"reply,omitempty"`
	Options   []engine.Option `json:"options,omitempty"`
}

// HandleChat handles POST /demo/messages.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	req.SessionID = strings.TrimSpace(req.SessionID)
	if req.SessionID == "" {
		req.SessionID = uuid.New().String()
	}

	reply, err := h.svc.Process(r.Context(), Channel, req.SessionID, req.Text)
	if err != nil {
		h.logger.Error("demo turn failed", "session_id", req.SessionID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	resp := ChatResponse{OK: true, SessionID: req.SessionID, Reply: reply}
	if reply != nil {
		resp.Options = reply.Options
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleReset handles POST /demo/reset.
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	req.SessionID = strings.TrimSpace(req.SessionID)
	if req.SessionID == "" {
		http.Error(w, "session_id is required", http.StatusBadRequest)
		return
	}

	if err := h.svc.Reset(r.Context(), Channel, req.SessionID); err != nil {
		h.logger.Error("demo reset failed", "session_id", req.SessionID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
