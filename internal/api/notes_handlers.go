package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"litnotes/internal/models"
	"litnotes/internal/notes"

	"github.com/go-chi/chi/v5"
)

const maxUploadBytes = 32 << 20

func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	list, err := s.notes.List(r.Context(), limit, offset)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notes": list})
}

func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	var in models.NoteInput
	if err := decodeJSON(r, &in); err != nil {
		s.fail(w, err)
		return
	}
	res, err := s.notes.Create(r.Context(), in)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleGetNote(w http.ResponseWriter, r *http.Request) {
	n, err := s.notes.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (s *Server) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	var in models.NoteInput
	if err := decodeJSON(r, &in); err != nil {
		s.fail(w, err)
		return
	}
	res, err := s.notes.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	if err := s.notes.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleIndexStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.notes.IndexStatus(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	results, err := s.notes.Search(r.Context(), q)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"query": strings.TrimSpace(q), "results": results})
}

func (s *Server) handleImportPDF(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	f, fh, err := r.FormFile("file")
	if err != nil {
		writeErr(w, http.StatusBadRequest, errors.New("no file provided"))
		return
	}
	defer f.Close()

	meta := models.NoteInput{
		Title:       r.FormValue("title"),
		Publication: r.FormValue("publication"),
		Authors:     splitList(r.FormValue("authors")),
		Keywords:    splitList(r.FormValue("keywords")),
	}
	if y, err := strconv.Atoi(strings.TrimSpace(r.FormValue("year"))); err == nil {
		meta.Year = &y
	}
	res, err := s.notes.ImportPDF(r.Context(), fh.Filename, f, fh.Size, meta)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleBackfill(w http.ResponseWriter, r *http.Request) {
	if s.backfiller == nil {
		writeErr(w, http.StatusConflict, errors.New("backfill requires the temporal index mode"))
		return
	}
	id, runID, err := s.backfiller.StartBackfill(r.Context())
	if err != nil {
		writeErr(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"workflow_id": id, "run_id": runID})
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	var req notes.SummarizeRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	sum, err := s.notes.Summarize(r.Context(), req)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return strings.Split(s, ",")
}
