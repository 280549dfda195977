package summary

import (
	"context"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/pkg/errors"
)

type OpenAI struct {
	base
	client openai.Client
}

func newOpenAI(b base, endpoint, apiKey string) *OpenAI {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if endpoint != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(endpoint, "/")+"/"))
	}
	return &OpenAI{base: b, client: openai.NewClient(opts...)}
}

func (o *OpenAI) Summarize(ctx context.Context, text string) (string, error) {
	ctx, cancel, text, err := o.prepare(ctx, text)
	if err != nil {
		return "", err
	}
	defer cancel()

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.checkpoint),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(text),
		},
		MaxTokens: openai.Int(maxOutputTokens),
	})
	if err != nil {
		return "", errors.Wrap(err, "calling chat completions")
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty response from chat completions")
	}

	summary := strings.TrimSpace(resp.Choices[0].Message.Content)
	if summary == "" {
		return "", errors.New("empty response from chat completions")
	}
	return summary, nil
}
