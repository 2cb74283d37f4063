package providers

import (
	"context"
	"fmt"
)

const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 1000

	MinTemperature = 0.0
	MaxTemperature = 2.0
)

// GenerateOptions are per-call generation settings. Nil and empty fields mean
// "not set" so that a partial value can be merged over service defaults.
type GenerateOptions struct {
	Temperature  *float64 `json:"temperature,omitempty"`
	MaxTokens    *int     `json:"max_tokens,omitempty"`
	Model        string   `json:"model,omitempty"`
	SystemPrompt string   `json:"system_prompt,omitempty"`
}

func Float(v float64) *float64 { return &v }

func Int(v int) *int { return &v }

func DefaultOptions() GenerateOptions {
	return GenerateOptions{
		Temperature: Float(DefaultTemperature),
		MaxTokens:   Int(DefaultMaxTokens),
	}
}

// Merge returns o with every field set in override replacing the one in o.
func (o GenerateOptions) Merge(override GenerateOptions) GenerateOptions {
	out := o
	if override.Temperature != nil {
		out.Temperature = Float(*override.Temperature)
	}
	if override.MaxTokens != nil {
		out.MaxTokens = Int(*override.MaxTokens)
	}
	if override.Model != "" {
		out.Model = override.Model
	}
	if override.SystemPrompt != "" {
		out.SystemPrompt = override.SystemPrompt
	}
	return out
}

func (o GenerateOptions) Validate() error {
	if o.Temperature != nil && (*o.Temperature < MinTemperature || *o.Temperature > MaxTemperature) {
		return fmt.Errorf("temperature %.2f outside [%.0f, %.0f]", *o.Temperature, MinTemperature, MaxTemperature)
	}
	if o.MaxTokens != nil && *o.MaxTokens <= 0 {
		return fmt.Errorf("max tokens must be positive, got %d", *o.MaxTokens)
	}
	return nil
}

func (o GenerateOptions) TemperatureValue() float64 {
	if o.Temperature == nil {
		return DefaultTemperature
	}
	return *o.Temperature
}

func (o GenerateOptions) MaxTokensValue() int {
	if o.MaxTokens == nil {
		return DefaultMaxTokens
	}
	return *o.MaxTokens
}

func (o GenerateOptions) modelOr(fallback string) string {
	if o.Model == "" {
		return fallback
	}
	return o.Model
}

// Provider is a text-generation vendor adapter.
type Provider interface {
	Name() string
	GenerateText(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
	GenerateStream(ctx context.Context, prompt string, opts GenerateOptions) (Stream, error)
}

// Stream is a finite sequence of generated text fragments. Recv returns io.EOF
// once the vendor signals completion or the transport closes. A Stream cannot
// be restarted; Close releases the underlying connection and may be called at
// any point, including after Recv has returned an error.
type Stream interface {
	Recv() (string, error)
	Close() error
}
