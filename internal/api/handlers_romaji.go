package api

import (
	"net/http"
)

type romajiRequest struct {
	Str  *string `json:"str"`
	HTML bool    `json:"html"`
}

type slugRequest struct {
	Str *string `json:"str"`
}

type tokenizerRequest struct {
	Str          *string `json:"str"`
	WithParticle *bool   `json:"with_particle"`
}

type transformRequest struct {
	Text *string `json:"text"`
}

func (s *Server) handleRomaji(w http.ResponseWriter, r *http.Request) {
	var req romajiRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Str == nil {
		jsonError(w, "str is required", http.StatusUnprocessableEntity)
		return
	}

	convert := s.deps.Romaji.Romaji
	if req.HTML {
		convert = s.deps.Romaji.RomajiHTML
	}
	out, err := convert(r.Context(), *req.Str)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"auth": IsAuthenticated(r), "result": out})
}

func (s *Server) handleFurigana(w http.ResponseWriter, r *http.Request) {
	var req romajiRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Str == nil {
		jsonError(w, "str is required", http.StatusUnprocessableEntity)
		return
	}
	if !req.HTML {
		jsonError(w, "html params must be true", http.StatusBadRequest)
		return
	}

	out, err := s.deps.Romaji.FuriganaHTML(r.Context(), *req.Str)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"auth": IsAuthenticated(r), "result": out})
}

func (s *Server) handleSlug(w http.ResponseWriter, r *http.Request) {
	var req slugRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Str == nil {
		jsonError(w, "str is required", http.StatusUnprocessableEntity)
		return
	}

	out, err := s.deps.Romaji.Slug(r.Context(), *req.Str)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"auth": IsAuthenticated(r), "result": out})
}

func (s *Server) handleTokenizer(w http.ResponseWriter, r *http.Request) {
	var req tokenizerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Str == nil {
		jsonError(w, "str is required", http.StatusUnprocessableEntity)
		return
	}
	withParticle := req.WithParticle == nil || *req.WithParticle

	words, err := s.deps.Romaji.Tokenize(r.Context(), *req.Str, withParticle)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	if words == nil {
		words = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"auth": IsAuthenticated(r), "result": words})
}

func (s *Server) handleTransformText(w http.ResponseWriter, r *http.Request) {
	var req transformRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Text == nil {
		jsonError(w, "text is required", http.StatusUnprocessableEntity)
		return
	}

	lines, err := s.deps.Romaji.TransformText(r.Context(), *req.Text)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"auth": true, "result": lines})
}
