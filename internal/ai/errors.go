package ai

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyPrompt    = errors.New("prompt is empty")
	ErrInvalidOptions = errors.New("invalid generation options")
)

const (
	textErrorPrefix   = "Failed to generate text: "
	streamErrorPrefix = "Failed to generate stream: "
)

// ConfigError reports provider registry state the caller has to fix, such as
// selecting a provider that was never registered. It is never retried.
type ConfigError struct {
	Message  string
	Provider string
}

func (e *ConfigError) Error() string { return e.Message }

func notRegistered(name string) *ConfigError {
	return &ConfigError{Message: fmt.Sprintf("provider %q not registered", name), Provider: name}
}

func currentNotFound(name string) *ConfigError {
	return &ConfigError{Message: fmt.Sprintf("current provider %q not found", name), Provider: name}
}

// GenerationError is the only error kind GenerationService hands to callers
// once a provider has been resolved. Provider is the provider active when the
// call failed; Cause is the untouched underlying error.
type GenerationError struct {
	Message  string
	Provider string
	Cause    error
}

func (e *GenerationError) Error() string { return e.Message }

func (e *GenerationError) Unwrap() error { return e.Cause }

func textError(provider string, cause error) *GenerationError {
	return &GenerationError{Message: textErrorPrefix + cause.Error(), Provider: provider, Cause: cause}
}

func streamError(provider string, cause error) *GenerationError {
	return &GenerationError{Message: streamErrorPrefix + cause.Error(), Provider: provider, Cause: cause}
}
