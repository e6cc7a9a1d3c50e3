package grading

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Completer sends one system + user prompt pair to a model and returns the
// text of its reply.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
	Name() string
}

// Service grades essays through a Completer.
type Service struct {
	completer Completer
	logger    *zap.Logger
	timeout   time.Duration
}

// NewService returns a Service. A zero timeout leaves ctx as given.
func NewService(c Completer, logger *zap.Logger, timeout time.Duration) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{completer: c, logger: logger, timeout: timeout}
}

// Grade sends text for grading. Failures are *TransportError when the
// service could not be reached and *ParseError when its reply breaks the
// contract. There is no retry.
func (s *Service) Grade(ctx context.Context, text string) (*Result, error) {
	if s.completer == nil {
		return nil, &TransportError{Provider: "none", Err: errors.New("no grading provider configured")}
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	provider := s.completer.Name()
	start := time.Now()
	reply, err := s.completer.Complete(ctx, Instruction, UserMessage(text))
	if err != nil {
		s.logger.Warn("grading request failed",
			zap.String("provider", provider),
			zap.Duration("latency", time.Since(start)),
			zap.Error(err))
		return nil, &TransportError{Provider: provider, Err: err}
	}

	res, err := Parse(reply)
	if err != nil {
		s.logger.Warn("grading reply rejected",
			zap.String("provider", provider),
			zap.Int("reply_bytes", len(reply)),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("graded",
		zap.String("provider", provider),
		zap.Duration("latency", time.Since(start)),
		zap.String("overall", FormatOverall(res)))
	return res, nil
}

// Options selects and configures a grading provider.
type Options struct {
	// Provider is "gemini" or "anthropic".
	Provider string
	APIKey   string
	Model    string
}

// NewCompleter builds the Completer named by opts.Provider.
func NewCompleter(ctx context.Context, opts Options) (Completer, error) {
	switch opts.Provider {
	case "", ProviderGemini:
		c, err := NewGeminiCompleter(ctx, opts.APIKey, opts.Model)
		if err != nil {
			return nil, err
		}
		return c, nil
	case ProviderAnthropic:
		c, err := NewAnthropicCompleter(opts.APIKey, opts.Model)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown grading provider %q", opts.Provider)
	}
}
