package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"litnotes/internal/models"
	"litnotes/internal/providers"

	"go.uber.org/zap"
)

const (
	defaultCallsLimit = 50
	maxCallsLimit     = 500
)

type generateRequest struct {
	Prompt  string                     `json:"prompt"`
	Options *providers.GenerateOptions `json:"options,omitempty"`
}

func (s *Server) handleListProviders(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"providers": s.gen.AvailableProviders(),
		"current":   s.gen.CurrentProvider(),
	})
}

func (s *Server) handleSetProvider(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	if err := s.gen.SetProvider(req.Name); err != nil {
		s.fail(w, err)
		return
	}
	s.logger.Info("generation provider switched", zap.String("provider", req.Name))
	writeJSON(w, http.StatusOK, map[string]any{"current": s.gen.CurrentProvider()})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	text, err := s.gen.GenerateText(r.Context(), req.Prompt, req.Options)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"text": text, "provider": s.gen.CurrentProvider()})
}

func (s *Server) handleRecentCalls(w http.ResponseWriter, r *http.Request) {
	if s.callLog == nil {
		writeJSON(w, http.StatusOK, map[string]any{"calls": []models.GenerationCall{}})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > maxCallsLimit {
		limit = defaultCallsLimit
	}
	calls, err := s.callLog.Recent(r.Context(), limit)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"calls": calls})
}

// handleStream relays fragments as server-sent events. Errors before the
// first fragment are plain JSON errors; later ones become an "error" event.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	stream, err := s.gen.GenerateStream(r.Context(), req.Prompt, req.Options)
	if err != nil {
		s.fail(w, err)
		return
	}
	defer stream.Close()

	flusher, _ := w.(http.Flusher)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	for {
		part, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			writeEvent(w, "done", map[string]any{})
			break
		}
		if err != nil {
			s.logger.Warn("stream ended with error", zap.Error(err))
			writeEvent(w, "error", toAPIError(statusFor(err), err).payload())
			break
		}
		writeEvent(w, "", map[string]any{"text": part})
		if flusher != nil {
			flusher.Flush()
		}
	}
	if flusher != nil {
		flusher.Flush()
	}
}

func writeEvent(w io.Writer, event string, v any) {
	b, _ := json.Marshal(v)
	if event != "" {
		fmt.Fprintf(w, "event: %s\n", event)
	}
	fmt.Fprintf(w, "data: %s\n\n", b)
}
