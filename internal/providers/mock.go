package providers

import (
	"context"
	"io"
	"strings"
)

const MockName = "mock"

// MockProvider answers deterministically without any network call. It is
// registered only when explicitly enabled and is handy for local runs.
type MockProvider struct{}

func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

func (m *MockProvider) Name() string { return MockName }

func (m *MockProvider) GenerateText(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return mockReply(prompt, opts), nil
}

func (m *MockProvider) GenerateStream(ctx context.Context, prompt string, opts GenerateOptions) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return NewSliceStream(strings.SplitAfter(mockReply(prompt, opts), " ")), nil
}

func mockReply(prompt string, opts GenerateOptions) string {
	p := []rune(strings.Join(strings.Fields(prompt), " "))
	if len(p) > 80 {
		p = append(p[:80], '.', '.', '.')
	}
	var b strings.Builder
	b.WriteString("Mock response")
	if opts.SystemPrompt != "" {
		b.WriteString(" (with instructions)")
	}
	b.WriteString(": ")
	b.WriteString(string(p))
	return b.String()
}

// SliceStream replays a fixed list of fragments.
type SliceStream struct {
	parts []string
	pos   int
}

func NewSliceStream(parts []string) *SliceStream {
	return &SliceStream{parts: parts}
}

func (s *SliceStream) Recv() (string, error) {
	for s.pos < len(s.parts) {
		p := s.parts[s.pos]
		s.pos++
		if p != "" {
			return p, nil
		}
	}
	return "", io.EOF
}

func (s *SliceStream) Close() error {
	s.pos = len(s.parts)
	return nil
}
