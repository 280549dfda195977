package summary

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/nijaru/yt-summary/config"
)

const (
	ProviderHuggingFace = "huggingface"
	ProviderOpenAI      = "openai"
	ProviderAnthropic   = "anthropic"

	DefaultCheckpoint     = "sshleifer/distilbart-cnn-12-6"
	defaultOpenAIModel    = "gpt-4o-mini"
	defaultAnthropicModel = "claude-haiku-4-5-20251001"

	systemPrompt = "You summarize video transcripts. Reply with a concise abstractive summary " +
		"of the transcript in plain prose, without a preamble."
	maxOutputTokens = 300
)

var ErrEmptyInput = errors.New("nothing to summarize")

// Summarizer produces an abstractive summary with one fixed checkpoint.
// Implementations are safe for concurrent use.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
	Checkpoint() string
	Provider() string
}

// Loader is implemented by summarizers that can resolve their checkpoint
// ahead of the first request.
type Loader interface {
	Load(ctx context.Context) error
}

func New(cfg config.SummaryConfig) (Summarizer, error) {
	b := base{
		maxWords: cfg.MaxInputTokens,
		timeout:  cfg.Timeout,
	}

	switch cfg.Provider {
	case ProviderHuggingFace, "":
		b.provider, b.checkpoint = ProviderHuggingFace, orDefault(cfg.Model, DefaultCheckpoint)
		return newHuggingFace(b, cfg.Endpoint, cfg.APIKey, nil), nil
	case ProviderOpenAI:
		b.provider, b.checkpoint = ProviderOpenAI, orDefault(cfg.Model, defaultOpenAIModel)
		return newOpenAI(b, cfg.Endpoint, cfg.APIKey), nil
	case ProviderAnthropic:
		b.provider, b.checkpoint = ProviderAnthropic, orDefault(cfg.Model, defaultAnthropicModel)
		return newAnthropic(b, cfg.Endpoint, cfg.APIKey), nil
	default:
		return nil, errors.Errorf("unknown summary provider %q", cfg.Provider)
	}
}

// base carries what every provider shares. It is never mutated after New.
type base struct {
	provider   string
	checkpoint string
	maxWords   int
	timeout    time.Duration
}

func (b base) Checkpoint() string { return b.checkpoint }
func (b base) Provider() string   { return b.provider }

// prepare validates and truncates text and applies the per-call timeout.
func (b base) prepare(ctx context.Context, text string) (context.Context, context.CancelFunc, string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil, "", ErrEmptyInput
	}
	text = Truncate(text, b.maxWords)

	if b.timeout > 0 {
		ctx, cancel := context.WithTimeout(ctx, b.timeout)
		return ctx, cancel, text, nil
	}
	return ctx, func() {}, text, nil
}

// Truncate keeps at most maxWords whitespace-separated words. Text within the
// limit is returned unchanged.
func Truncate(text string, maxWords int) string {
	if maxWords <= 0 {
		return text
	}
	words := strings.Fields(text)
	if len(words) <= maxWords {
		return text
	}
	return strings.Join(words[:maxWords], " ")
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
