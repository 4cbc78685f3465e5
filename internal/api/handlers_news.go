package api

import (
	"net/http"

	"github.com/dgallion1/romajiapi/internal/romaji"
)

type newsItem struct {
	Title   romaji.Line   `json:"title"`
	Content []romaji.Line `json:"content"`
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	if s.deps.News == nil {
		jsonError(w, "news unavailable", http.StatusServiceUnavailable)
		return
	}
	ctx := r.Context()

	articles, err := s.deps.News.Search(ctx)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}

	items := make([]newsItem, 0, len(articles))
	for _, a := range articles {
		title, err := s.deps.Romaji.TransformLine(ctx, a.Title)
		if err != nil {
			s.serviceError(w, r, err)
			return
		}
		content, err := s.deps.Romaji.TransformText(ctx, a.Text)
		if err != nil {
			s.serviceError(w, r, err)
			return
		}
		items = append(items, newsItem{Title: title, Content: content})
	}
	writeJSON(w, http.StatusOK, map[string]any{"auth": true, "news": items})
}
