package summary

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/pkg/errors"
)

type Anthropic struct {
	base
	client anthropic.Client
}

func newAnthropic(b base, endpoint, apiKey string) *Anthropic {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if endpoint != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(endpoint, "/")+"/"))
	}
	return &Anthropic{base: b, client: anthropic.NewClient(opts...)}
}

func (a *Anthropic) Summarize(ctx context.Context, text string) (string, error) {
	ctx, cancel, text, err := a.prepare(ctx, text)
	if err != nil {
		return "", err
	}
	defer cancel()

	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.checkpoint),
		MaxTokens: maxOutputTokens,
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(text)),
		},
	})
	if err != nil {
		return "", errors.Wrap(err, "calling messages API")
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	summary := strings.TrimSpace(sb.String())
	if summary == "" {
		return "", errors.New("empty response from messages API")
	}
	return summary, nil
}
