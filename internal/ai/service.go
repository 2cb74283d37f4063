package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"litnotes/internal/metrics"
	"litnotes/internal/providers"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	OperationText   = "text"
	OperationStream = "stream"

	StatusOK       = "ok"
	StatusFailed   = "failed"
	StatusCanceled = "canceled"
)

// CallRecord describes one finished generation call.
type CallRecord struct {
	CallID    string
	Operation string
	Provider  string
	Model     string
	Status    string
	ErrorType string
	Attempts  int
	Duration  time.Duration
}

// CallRecorder receives a record for every generation call that reached a provider.
type CallRecorder interface {
	RecordCall(ctx context.Context, rec CallRecord)
}

type Config struct {
	DefaultProvider string
	// DefaultOptions are merged over the built-in defaults (temperature 0.7,
	// 1000 max tokens); per-call options are merged over the result.
	DefaultOptions providers.GenerateOptions
	// Retry falls back to DefaultRetryPolicy when zero.
	Retry    RetryPolicy
	Logger   *zap.Logger
	Recorder CallRecorder
}

// Service routes generation calls to the active provider. The registry and the
// active pointer are independent: the pointer may name a provider that is not
// registered, in which case calls fail with a ConfigError.
type Service struct {
	mu        sync.RWMutex
	providers map[string]providers.Provider
	current   string

	defaults providers.GenerateOptions
	retry    RetryPolicy
	logger   *zap.Logger
	recorder CallRecorder
}

func NewService(cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	policy := cfg.Retry
	if policy == (RetryPolicy{}) {
		policy = DefaultRetryPolicy()
	}
	return &Service{
		providers: map[string]providers.Provider{},
		current:   cfg.DefaultProvider,
		defaults:  providers.DefaultOptions().Merge(cfg.DefaultOptions),
		retry:     policy,
		logger:    logger,
		recorder:  cfg.Recorder,
	}
}

// RegisterProvider adds p under p.Name(), replacing any earlier registration.
func (s *Service) RegisterProvider(p providers.Provider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.providers[p.Name()] = p
}

func (s *Service) SetProvider(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.providers[name]; !ok {
		return notRegistered(name)
	}
	s.current = name
	return nil
}

// AvailableProviders returns the registered names in sorted order.
func (s *Service) AvailableProviders() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.providers))
	for name := range s.providers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// CurrentProvider returns the active pointer even when it does not resolve.
func (s *Service) CurrentProvider() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *Service) resolve() (providers.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.providers[s.current]
	if !ok {
		return nil, currentNotFound(s.current)
	}
	return p, nil
}

func (s *Service) mergeOptions(opts *providers.GenerateOptions) providers.GenerateOptions {
	if opts == nil {
		return s.defaults
	}
	return s.defaults.Merge(*opts)
}

func validateCall(prompt string, opts providers.GenerateOptions) error {
	if strings.TrimSpace(prompt) == "" {
		return ErrEmptyPrompt
	}
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	return nil
}

// GenerateText asks the active provider for a completion, retrying transient
// failures. Any failure after provider resolution is a *GenerationError.
func (s *Service) GenerateText(ctx context.Context, prompt string, opts *providers.GenerateOptions) (string, error) {
	p, err := s.resolve()
	if err != nil {
		return "", err
	}
	name := p.Name()
	merged := s.mergeOptions(opts)
	if err := validateCall(prompt, merged); err != nil {
		return "", textError(name, err)
	}

	start := time.Now()
	text, attempts, err := retry(ctx, s.retry, func() (string, error) {
		return p.GenerateText(ctx, prompt, merged)
	}, func(attempt int, err error, delay time.Duration) {
		metrics.GenerationRetries.WithLabelValues(name).Inc()
		s.logger.Warn("retrying generation",
			zap.String("provider", name),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
	})
	s.finish(ctx, OperationText, name, merged.Model, attempts, start, err)
	if err != nil {
		return "", textError(name, err)
	}
	return text, nil
}

// GenerateStream opens a stream on the active provider. Streams are never
// retried: fragments already handed to the caller cannot be taken back.
func (s *Service) GenerateStream(ctx context.Context, prompt string, opts *providers.GenerateOptions) (providers.Stream, error) {
	p, err := s.resolve()
	if err != nil {
		return nil, err
	}
	name := p.Name()
	merged := s.mergeOptions(opts)
	if err := validateCall(prompt, merged); err != nil {
		return nil, streamError(name, err)
	}

	start := time.Now()
	inner, err := p.GenerateStream(ctx, prompt, merged)
	if err != nil {
		s.finish(ctx, OperationStream, name, merged.Model, 1, start, err)
		return nil, streamError(name, err)
	}
	return &serviceStream{
		inner:    inner,
		provider: name,
		onEnd: func(err error, canceled bool) {
			if canceled {
				s.finishCanceled(ctx, name, merged.Model, start)
				return
			}
			s.finish(ctx, OperationStream, name, merged.Model, 1, start, err)
		},
	}, nil
}

func (s *Service) finish(ctx context.Context, op, provider, model string, attempts int, start time.Time, err error) {
	rec := CallRecord{
		CallID:    uuid.NewString(),
		Operation: op,
		Provider:  provider,
		Model:     model,
		Status:    StatusOK,
		Attempts:  attempts,
		Duration:  time.Since(start),
	}
	if err != nil {
		rec.Status = StatusFailed
		rec.ErrorType = string(providers.ClassifyError(err))
		s.logger.Error("generation failed",
			zap.String("provider", provider),
			zap.String("operation", op),
			zap.Int("attempts", attempts),
			zap.String("error_type", rec.ErrorType),
			zap.Error(err),
		)
	}
	s.emit(ctx, rec)
}

func (s *Service) finishCanceled(ctx context.Context, provider, model string, start time.Time) {
	s.emit(ctx, CallRecord{
		CallID:    uuid.NewString(),
		Operation: OperationStream,
		Provider:  provider,
		Model:     model,
		Status:    StatusCanceled,
		Attempts:  1,
		Duration:  time.Since(start),
	})
}

func (s *Service) emit(ctx context.Context, rec CallRecord) {
	if rec.Model == "" {
		rec.Model = "default"
	}
	metrics.GenerationRequests.WithLabelValues(rec.Provider, rec.Operation, rec.Status).Inc()
	metrics.GenerationDuration.WithLabelValues(rec.Provider, rec.Operation).Observe(rec.Duration.Seconds())
	if s.recorder != nil {
		s.recorder.RecordCall(context.WithoutCancel(ctx), rec)
	}
}

// serviceStream wraps provider errors, including ones raised after fragments
// were delivered, into *GenerationError.
type serviceStream struct {
	inner    providers.Stream
	provider string
	onEnd    func(err error, canceled bool)
	ended    bool
	err      error
}

func (st *serviceStream) Recv() (string, error) {
	if st.ended {
		if st.err != nil {
			return "", st.err
		}
		return "", io.EOF
	}
	part, err := st.inner.Recv()
	if err == nil {
		return part, nil
	}
	st.ended = true
	_ = st.inner.Close()
	if errors.Is(err, io.EOF) {
		st.onEnd(nil, false)
		return "", io.EOF
	}
	// A caller that goes away mid-stream is a cancellation, not a vendor failure.
	if errors.Is(err, context.Canceled) {
		st.onEnd(nil, true)
	} else {
		st.onEnd(err, false)
	}
	st.err = streamError(st.provider, err)
	return "", st.err
}

func (st *serviceStream) Close() error {
	if st.ended {
		return nil
	}
	st.ended = true
	st.onEnd(nil, true)
	return st.inner.Close()
}
