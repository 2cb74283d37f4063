package util

const (
	DefaultChunkSize    = 2000
	DefaultChunkOverlap = 200
)

// TextChunk is one window of a source document. Start is the offset of the
// window's first character, counted in runes.
type TextChunk struct {
	Content string `json:"content"`
	Start   int    `json:"start"`
}

// ChunkText splits text into windows of size runes advancing by size-overlap.
// The last window may be shorter. Content is kept verbatim so that windows
// map back onto the source by offset.
func ChunkText(text string, size, overlap int) ([]TextChunk, error) {
	if size <= 0 || overlap < 0 || overlap >= size {
		return nil, ErrInvalidChunkParams
	}
	runes := []rune(text)
	if len(runes) == 0 {
		return []TextChunk{}, nil
	}
	step := size - overlap
	out := make([]TextChunk, 0, (len(runes)+step-1)/step)
	for i := 0; i < len(runes); i += step {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, TextChunk{Content: string(runes[i:end]), Start: i})
		if end == len(runes) {
			break
		}
	}
	return out, nil
}

// End returns the offset one past the chunk's last rune.
func (c TextChunk) End() int {
	return c.Start + len([]rune(c.Content))
}
