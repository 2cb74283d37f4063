package providers

import (
	"context"
	"testing"

	"litnotes/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromConfigRegistersConfiguredVendorsOnly(t *testing.T) {
	ps, err := FromConfig(config.Config{AnthropicKey: "ak"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{AnthropicName}, Names(ps))

	ps, err = FromConfig(config.Config{OpenAIKey: "sk", AnthropicKey: "ak", GroqKey: "gsk", EnableMockProvider: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{OpenAIName, AnthropicName, GroqName, MockName}, Names(ps))
}

func TestFromConfigRejectsUnknownFramePolicy(t *testing.T) {
	_, err := FromConfig(config.Config{StreamFramePolicy: "explode"}, nil)
	assert.Error(t, err)
}

func TestOptionsMergeAndValidate(t *testing.T) {
	base := DefaultOptions()
	merged := base.Merge(GenerateOptions{Temperature: Float(1.5), Model: "x"})
	assert.InDelta(t, 1.5, merged.TemperatureValue(), 1e-9)
	assert.Equal(t, DefaultMaxTokens, merged.MaxTokensValue())
	assert.Equal(t, "x", merged.Model)
	assert.InDelta(t, DefaultTemperature, base.TemperatureValue(), 1e-9, "merge must not mutate the receiver")

	assert.NoError(t, merged.Validate())
	assert.Error(t, GenerateOptions{Temperature: Float(2.1)}.Validate())
	assert.Error(t, GenerateOptions{MaxTokens: Int(0)}.Validate())
}

func TestMockProviderStreamMatchesText(t *testing.T) {
	m := NewMockProvider()
	text, err := m.GenerateText(context.Background(), "what is attention", DefaultOptions())
	require.NoError(t, err)

	s, err := m.GenerateStream(context.Background(), "what is attention", DefaultOptions())
	require.NoError(t, err)
	parts, err := collect(t, s)
	require.NoError(t, err)

	joined := ""
	for _, p := range parts {
		joined += p
	}
	assert.Equal(t, text, joined)
}
