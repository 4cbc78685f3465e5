package api

import (
	"errors"
	"net/http"

	"github.com/dgallion1/romajiapi/internal/translate"
)

type translateArrayRequest struct {
	Texts  []string `json:"texts"`
	Target string   `json:"target"`
	Source string   `json:"source"`
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	target := q.Get("target")
	if target == "" {
		target = "EN"
	}

	out, err := s.deps.Translator.Text(r.Context(), q.Get("str"), target, q.Get("source"))
	switch {
	case errors.Is(err, translate.ErrIncomplete):
		s.log.Warn("partial translation", "error", err)
		writeJSON(w, http.StatusOK, map[string]any{"auth": true, "result": out, "complete": false})
	case err != nil:
		s.serviceError(w, r, err)
	default:
		writeJSON(w, http.StatusOK, map[string]any{"auth": true, "result": out, "complete": true})
	}
}

func (s *Server) handleTranslateArray(w http.ResponseWriter, r *http.Request) {
	var req translateArrayRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	out, err := s.deps.Translator.Array(r.Context(), req.Texts, req.Target, req.Source)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"auth": true, "result": out})
}

func (s *Server) handleTranslateStats(w http.ResponseWriter, r *http.Request) {
	if s.deps.Stats == nil {
		jsonError(w, "translation stats unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"model": s.cfg.OpenRouterModel,
		"stats": s.deps.Stats.Snapshot(),
	})
}
