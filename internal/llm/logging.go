package llm

import (
	"context"
	"time"

	"github.com/abhisek/polegion/internal/logging"
)

// LoggingProvider logs every request with its latency and token usage.
type LoggingProvider struct {
	inner Provider
	log   *logging.Logger
}

// WithLogging wraps a Provider with request logging.
func WithLogging(p Provider, log *logging.Logger) Provider {
	if log == nil {
		log = logging.Nop()
	}
	return &LoggingProvider{inner: p, log: log}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := l.inner.Generate(ctx, req)

	kv := []any{
		"model", l.inner.ModelID(),
		"purpose", PurposeFrom(ctx),
		"latency_ms", time.Since(start).Milliseconds(),
	}
	if req.Schema != nil {
		kv = append(kv, "schema", req.Schema.Name)
	}
	if resp != nil {
		kv = append(kv,
			"input_tokens", resp.Usage.InputTokens,
			"output_tokens", resp.Usage.OutputTokens,
		)
	}
	if err != nil {
		l.log.Warn("llm request failed", append(kv, "error", err)...)
		return nil, err
	}
	l.log.Debug("llm request", kv...)
	return resp, nil
}

func (l *LoggingProvider) ModelID() string { return l.inner.ModelID() }
