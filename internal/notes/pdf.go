package notes

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"litnotes/internal/models"
	"litnotes/internal/util"

	"github.com/ledongthuc/pdf"
)

const maxTitleRunes = 200

var authorSplit = regexp.MustCompile(`\s*(?:,|;|\band\b|&)\s*`)

// ExtractPDFText returns the sanitised plain text of a PDF.
func ExtractPDFText(r io.ReaderAt, size int64) (string, error) {
	doc, err := pdf.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	plain, err := doc.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	buf := new(strings.Builder)
	if _, err := io.Copy(buf, plain); err != nil {
		return "", fmt.Errorf("read extracted text: %w", err)
	}
	text := util.SanitizeText(buf.String())
	if text == "" {
		return "", util.ErrNoExtractableText
	}
	return text, nil
}

// guessMetadata takes the first non-empty line as the title and the second as
// a list of authors.
func guessMetadata(text string) (string, []string) {
	lines := make([]string, 0, 2)
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
			if len(lines) == 2 {
				break
			}
		}
	}
	var title string
	var authors []string
	if len(lines) > 0 {
		title = util.FirstLine(lines[0], maxTitleRunes)
	}
	if len(lines) > 1 && len([]rune(lines[1])) <= maxTitleRunes {
		authors = cleanList(authorSplit.Split(lines[1], -1))
	}
	return title, authors
}

// ImportPDF creates a note from an uploaded PDF. Fields set in meta win over
// the guessed title and authors.
func (s *Service) ImportPDF(ctx context.Context, filename string, r io.ReaderAt, size int64, meta models.NoteInput) (SaveResult, error) {
	text, err := ExtractPDFText(r, size)
	if err != nil {
		return SaveResult{}, err
	}
	title, authors := guessMetadata(text)
	if strings.TrimSpace(meta.Title) == "" {
		meta.Title = title
	}
	if strings.TrimSpace(meta.Title) == "" {
		meta.Title = strings.TrimSuffix(filename, ".pdf")
	}
	if len(meta.Authors) == 0 {
		meta.Authors = authors
	}
	meta.Content = text
	return s.Create(ctx, meta)
}
