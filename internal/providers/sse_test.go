package providers

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, s Stream) ([]string, error) {
	t.Helper()
	var out []string
	for {
		part, err := s.Recv()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, part)
	}
}

func TestSSEStreamOpenAIFrames(t *testing.T) {
	body := strings.Join([]string{
		`data: {"choices":[{"delta":{"content":"Hel"}}]}`,
		``,
		`: keep-alive`,
		`data: {"choices":[{"delta":{"content":"lo"}}]}`,
		`data: not json`,
		`data: {"choices":[{"delta":{}}]}`,
		`data: [DONE]`,
		`data: {"choices":[{"delta":{"content":"never"}}]}`,
	}, "\n")
	s := newSSEStream("openai", io.NopCloser(strings.NewReader(body)), decodeOpenAIFrame, FrameSkip, nil)

	parts, err := collect(t, s)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hel", "lo"}, parts)

	_, err = s.Recv()
	assert.ErrorIs(t, err, io.EOF)
}

func TestSSEStreamEndsWhenTransportCloses(t *testing.T) {
	body := "data: {\"type\":\"content_block_delta\",\"delta\":{\"text\":\"partial\"}}\r\n"
	s := newSSEStream("anthropic", io.NopCloser(strings.NewReader(body)), decodeAnthropicFrame, FrameSkip, nil)

	parts, err := collect(t, s)
	require.NoError(t, err)
	assert.Equal(t, []string{"partial"}, parts)
}

func TestSSEStreamFailPolicy(t *testing.T) {
	body := "data: {\"choices\":[{\"delta\":{\"content\":\"a\"}}]}\ndata: {oops\n"
	s := newSSEStream("openai", io.NopCloser(strings.NewReader(body)), decodeOpenAIFrame, FrameFail, nil)

	parts, err := collect(t, s)
	assert.Equal(t, []string{"a"}, parts)
	assert.ErrorIs(t, err, ErrMalformedFrame)
}

func TestParseFramePolicy(t *testing.T) {
	p, err := ParseFramePolicy("")
	require.NoError(t, err)
	assert.Equal(t, FrameSkip, p)

	p, err = ParseFramePolicy("FAIL")
	require.NoError(t, err)
	assert.Equal(t, FrameFail, p)

	_, err = ParseFramePolicy("warn")
	assert.Error(t, err)
}

func TestDecodeAnthropicFrame(t *testing.T) {
	text, done, err := decodeAnthropicFrame(`{"type":"message_start","message":{}}`)
	require.NoError(t, err)
	assert.False(t, done)
	assert.Empty(t, text)

	text, done, err = decodeAnthropicFrame(`{"type":"content_block_delta","delta":{"type":"text_delta","text":"hi"}}`)
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, "hi", text)

	_, done, err = decodeAnthropicFrame(`{"type":"message_stop"}`)
	require.NoError(t, err)
	assert.True(t, done)
}
