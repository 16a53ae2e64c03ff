package server

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"

	"go.uber.org/zap"

	"github.com/korgalidze/persona-chat/internal/chat"
	"github.com/korgalidze/persona-chat/internal/conversation"
)

const recentConversations = 10

type askRequest struct {
	Question string `json:"question"`
}

type answerResponse struct {
	Answer string `json:"answer"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := map[string]string{
		"RepoURL":       s.opts.RepoURL,
		"AssistantName": s.opts.AssistantName,
	}
	if err := s.page.Execute(w, data); err != nil {
		s.log.Error("render index", zap.Error(err))
	}
}

// handleAsk always answers 200: the page reads success or failure from the
// payload, not from the status code.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	id, minted := s.sessions.Identify(w, r)
	if minted {
		s.log.Debug("new session", zap.String("session_id", id))
	}

	var req askRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 64<<10)).Decode(&req); err != nil {
		writeJSON(w, s.log, errorResponse{Error: "invalid request body"})
		return
	}

	v := chat.Visitor{
		SessionID: id,
		IP:        clientIP(r),
		UserAgent: r.UserAgent(),
	}
	if v.UserAgent == "" {
		v.UserAgent = "Unknown"
	}

	answer, err := s.assistant.Ask(r.Context(), v, req.Question)
	if err != nil {
		if !errors.Is(err, chat.ErrEmptyQuestion) {
			s.log.Warn("ask failed", zap.String("session_id", id), zap.Error(err))
		}
		writeJSON(w, s.log, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, s.log, answerResponse{Answer: answer})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.log, map[string]string{"status": "healthy"})
}

func (s *Server) handleConversations(w http.ResponseWriter, r *http.Request) {
	recs, err := s.assistant.Recent(r.Context(), recentConversations)
	if err != nil {
		s.log.Error("list conversations", zap.Error(err))
		writeJSON(w, s.log, map[string]string{"error": err.Error()})
		return
	}
	if recs == nil {
		recs = []conversation.Record{}
	}
	writeJSON(w, s.log, map[string]any{"conversations": recs})
}

func writeJSON(w http.ResponseWriter, log *zap.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn("write response", zap.Error(err))
	}
}

// clientIP strips the port from RemoteAddr, which RealIP has already
// replaced with the forwarded address when the app sits behind a proxy.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
