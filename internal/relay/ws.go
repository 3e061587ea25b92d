package relay

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/freshcart/shopmate/internal/domain"
)

// wsRequest is one inbound exchange over the WebSocket. SessionID ties
// consecutive exchanges to a persisted transcript when the session store
// is enabled; leave it empty to start a new one.
type wsRequest struct {
	chatRequest
	SessionID string `json:"sessionId,omitempty"`
	UserID    string `json:"userId,omitempty"`
}

// wsFrame is an outbound streaming frame.
type wsFrame struct {
	Type      string `json:"type"` // "delta" | "done" | "error"
	Text      string `json:"text,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Error     string `json:"error,omitempty"`
}

// handleWebSocket upgrades to a WebSocket and serves one streamed
// exchange per inbound request frame. Deltas for one exchange are pushed
// in wire order; exchanges on one connection run sequentially.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxRequestBody)

	s.log.Debug().Str("remote", r.RemoteAddr).Msg("new websocket connection")

	for {
		var req wsRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug().Msg("websocket client closed connection")
			} else {
				s.log.Warn().Err(err).Msg("websocket read error")
			}
			return
		}
		if !s.serveExchange(r, conn, req) {
			return
		}
	}
}

// serveExchange runs one exchange and streams its frames. It reports
// whether the connection is still usable.
func (s *Server) serveExchange(r *http.Request, conn *websocket.Conn, req wsRequest) bool {
	ex, err := buildExchange(req.chatRequest)
	if err != nil {
		return conn.WriteJSON(wsFrame{Type: "error", Error: err.Error()}) == nil
	}

	sessionID := req.SessionID
	if s.sessions != nil && sessionID == "" {
		sessionID = s.sessions.Create(req.UserID)
	}

	var full strings.Builder
	streamErr := s.streamer.StreamDeltas(r.Context(), ex, func(delta string) error {
		full.WriteString(delta)
		return conn.WriteJSON(wsFrame{Type: "delta", Text: delta, SessionID: sessionID})
	})

	if streamErr != nil && full.Len() == 0 {
		return conn.WriteJSON(wsFrame{Type: "error", Error: streamErr.Error(), SessionID: sessionID}) == nil
	}
	if streamErr != nil {
		// Partial reply: surface the drop but keep what was streamed.
		s.log.Warn().Err(streamErr).Msg("websocket exchange dropped mid-stream")
	}

	if s.sessions != nil {
		if msg := strings.TrimSpace(req.Message); msg != "" {
			s.sessions.AppendTurn(sessionID, domain.Turn{Role: domain.RoleUser, Content: msg})
		}
		if full.Len() > 0 {
			s.sessions.AppendTurn(sessionID, domain.Turn{Role: domain.RoleAssistant, Content: full.String()})
		}
	}

	return conn.WriteJSON(wsFrame{Type: "done", Text: full.String(), SessionID: sessionID}) == nil
}
