package notes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"litnotes/internal/models"
	"litnotes/internal/providers"
)

var ErrNoNotes = errors.New("no notes selected")

const (
	maxSummaryNotes  = 10
	maxNoteExcerpt   = 1500
	summarizerPrompt = "You are a research assistant. Summarise the literature notes you are given, compare their findings and cite notes by their bracketed number."
)

type SummarizeRequest struct {
	Query   string                     `json:"query"`
	NoteIDs []string                   `json:"note_ids"`
	Options *providers.GenerateOptions `json:"options,omitempty"`
}

type Summary struct {
	Text  string   `json:"text"`
	Notes []string `json:"notes"`
}

// Summarize asks the generation service for a synthesis of the listed notes,
// optionally focused on a question.
func (s *Service) Summarize(ctx context.Context, req SummarizeRequest) (Summary, error) {
	ids := cleanList(req.NoteIDs)
	if len(ids) == 0 {
		return Summary{}, ErrNoNotes
	}
	if len(ids) > maxSummaryNotes {
		return Summary{}, fmt.Errorf("%w: at most %d notes per summary", ErrInvalidNote, maxSummaryNotes)
	}
	for _, id := range ids {
		if err := validID(id); err != nil {
			return Summary{}, err
		}
	}
	found, err := s.notes.ListByIDs(ctx, ids)
	if err != nil {
		return Summary{}, err
	}
	if len(found) == 0 {
		return Summary{}, ErrNoNotes
	}

	opts := providers.GenerateOptions{SystemPrompt: summarizerPrompt}
	if req.Options != nil {
		opts = opts.Merge(*req.Options)
	}
	text, err := s.generator.GenerateText(ctx, buildSummaryPrompt(req.Query, found), &opts)
	if err != nil {
		return Summary{}, err
	}
	used := make([]string, 0, len(found))
	for _, n := range found {
		used = append(used, n.ID)
	}
	return Summary{Text: text, Notes: used}, nil
}

func buildSummaryPrompt(query string, notes []models.Note) string {
	var b strings.Builder
	if q := strings.TrimSpace(query); q != "" {
		fmt.Fprintf(&b, "Question: %s\n\n", q)
	} else {
		b.WriteString("Summarise the key contributions of these notes.\n\n")
	}
	for i, n := range notes {
		fmt.Fprintf(&b, "[%d] %s", i+1, n.Title)
		if len(n.Authors) > 0 {
			fmt.Fprintf(&b, " (%s", strings.Join(n.Authors, ", "))
			if n.Year != nil {
				fmt.Fprintf(&b, ", %d", *n.Year)
			}
			b.WriteString(")")
		}
		b.WriteString("\n")
		if len(n.Keywords) > 0 {
			fmt.Fprintf(&b, "Keywords: %s\n", strings.Join(n.Keywords, ", "))
		}
		excerpt := []rune(strings.TrimSpace(n.Content))
		if len(excerpt) > maxNoteExcerpt {
			excerpt = append(excerpt[:maxNoteExcerpt], '.', '.', '.')
		}
		b.WriteString(string(excerpt))
		b.WriteString("\n\n")
	}
	return strings.TrimSpace(b.String())
}
