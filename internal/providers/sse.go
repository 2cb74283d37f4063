package providers

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
)

// FramePolicy decides what a stream does with a frame it cannot decode.
type FramePolicy int

const (
	// FrameSkip drops the frame and keeps reading.
	FrameSkip FramePolicy = iota
	// FrameFail ends the stream with ErrMalformedFrame.
	FrameFail
)

func ParseFramePolicy(s string) (FramePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "skip":
		return FrameSkip, nil
	case "fail":
		return FrameFail, nil
	default:
		return FrameSkip, fmt.Errorf("unknown stream frame policy %q", s)
	}
}

func (p FramePolicy) String() string {
	if p == FrameFail {
		return "fail"
	}
	return "skip"
}

const dataPrefix = "data: "

// frameDecoder extracts the text carried by one data payload. done reports the
// vendor's end-of-stream sentinel.
type frameDecoder func(payload string) (text string, done bool, err error)

type sseStream struct {
	provider string
	body     io.ReadCloser
	scanner  *bufio.Scanner
	decode   frameDecoder
	policy   FramePolicy
	logger   *zap.Logger
	finished bool
	closed   bool
}

func newSSEStream(provider string, body io.ReadCloser, decode frameDecoder, policy FramePolicy, logger *zap.Logger) *sseStream {
	if logger == nil {
		logger = zap.NewNop()
	}
	sc := bufio.NewScanner(body)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &sseStream{
		provider: provider,
		body:     body,
		scanner:  sc,
		decode:   decode,
		policy:   policy,
		logger:   logger,
	}
}

func (s *sseStream) Recv() (string, error) {
	if s.finished {
		return "", io.EOF
	}
	for s.scanner.Scan() {
		line := strings.TrimRight(s.scanner.Text(), "\r")
		if !strings.HasPrefix(line, dataPrefix) {
			continue
		}
		text, done, err := s.decode(strings.TrimPrefix(line, dataPrefix))
		if err != nil {
			if s.policy == FrameFail {
				s.finish()
				return "", fmt.Errorf("%w from %s: %v", ErrMalformedFrame, s.provider, err)
			}
			s.logger.Debug("skipping malformed stream frame",
				zap.String("provider", s.provider),
				zap.Error(err),
			)
			continue
		}
		if done {
			s.finish()
			return "", io.EOF
		}
		if text != "" {
			return text, nil
		}
	}
	err := s.scanner.Err()
	s.finish()
	if err != nil {
		return "", fmt.Errorf("read %s stream: %w", s.provider, err)
	}
	return "", io.EOF
}

func (s *sseStream) Close() error {
	s.finished = true
	if s.closed {
		return nil
	}
	s.closed = true
	return s.body.Close()
}

func (s *sseStream) finish() {
	_ = s.Close()
}
