package relay

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/freshcart/shopmate/internal/llm"
	"github.com/freshcart/shopmate/internal/version"
)

// streamErrorMarker is injected into an in-flight response body when the
// upstream stream fails after bytes have already been sent; the status
// line is long gone at that point, so the error has to ride in-band.
const streamErrorMarker = "\n\n[connection to the assistant was lost]"

// maxRequestBody bounds the chat request body (images ride inline as
// base64 data URLs).
const maxRequestBody = 8 * 1024 * 1024

// chatRequest is the single-turn passthrough request from the browser.
type chatRequest struct {
	Message           string        `json:"message"`
	Image             string        `json:"image,omitempty"` // base64 data URL
	History           []chatHistory `json:"history,omitempty"`
	SystemInstruction string        `json:"systemInstruction,omitempty"`
}

type chatHistory struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// parseDataURL splits a "data:<mime>;base64,<payload>" string into an
// image attachment.
func parseDataURL(dataURL string) (*llm.ImageAttachment, error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return nil, fmt.Errorf("image is not a data URL")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, fmt.Errorf("data URL has no payload")
	}
	mime, encoding, ok := strings.Cut(meta, ";")
	if !ok || encoding != "base64" {
		return nil, fmt.Errorf("data URL is not base64-encoded")
	}
	if mime == "" {
		return nil, fmt.Errorf("data URL has no MIME type")
	}
	return &llm.ImageAttachment{MimeType: mime, Data: payload}, nil
}

// buildExchange maps a chat request onto a provider exchange. System-role
// history entries and empty entries are dropped; the system instruction
// only ever arrives through its dedicated field.
func buildExchange(req chatRequest) (llm.Exchange, error) {
	ex := llm.Exchange{System: req.SystemInstruction}

	for _, h := range req.History {
		if h.Role == llm.RoleSystem || strings.TrimSpace(h.Content) == "" {
			continue
		}
		role := llm.RoleUser
		if h.Role == llm.RoleAssistant {
			role = llm.RoleAssistant
		}
		ex.Messages = append(ex.Messages, llm.Message{Role: role, Content: h.Content})
	}

	if msg := strings.TrimSpace(req.Message); msg != "" {
		ex.Messages = append(ex.Messages, llm.Message{Role: llm.RoleUser, Content: msg})
	}

	if req.Image != "" {
		img, err := parseDataURL(req.Image)
		if err != nil {
			return ex, err
		}
		ex.Image = img
	}

	if len(ex.Messages) == 0 && ex.Image == nil {
		return ex, fmt.Errorf("request has no message, history, or image")
	}
	return ex, nil
}

// handleChat is the single-turn passthrough: decode the request, forward
// to the provider with the server-held credential, and re-stream the raw
// text back chunk by chunk.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req chatRequest
	body := http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	ex, err := buildExchange(req)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSONError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	started := false
	streamErr := s.streamer.StreamDeltas(r.Context(), ex, func(delta string) error {
		if !started {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			started = true
		}
		if _, err := fmt.Fprint(w, delta); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})

	if streamErr != nil {
		if !started {
			// Headers are still ours to set.
			s.log.Warn().Err(streamErr).Msg("provider exchange failed before streaming")
			writeJSONError(w, http.StatusInternalServerError, streamErr.Error())
			return
		}
		// Mid-stream: the only channel left is the body itself.
		s.log.Warn().Err(streamErr).Msg("provider stream failed mid-reply, injecting error marker")
		fmt.Fprint(w, streamErrorMarker)
		flusher.Flush()
		return
	}

	if !started {
		// Provider produced nothing at all; still a 200 with empty body.
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
	}
}

// handleHealth reports liveness and build info.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"version": version.Version,
		"uptime":  time.Since(s.startedAt).Round(time.Second).String(),
	})
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: msg})
}
