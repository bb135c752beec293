package translate

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const defaultOpenAIModel = "gpt-5-mini"

type openAIModel struct {
	client openai.Client
	model  string
}

func newOpenAIModel(apiKey, model string) *openAIModel {
	if model == "" {
		model = defaultOpenAIModel
	}
	return &openAIModel{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (m *openAIModel) complete(ctx context.Context, prompt string) (string, error) {
	completion, err := m.client.Chat.Completions.New(
		ctx,
		openai.ChatCompletionNewParams{
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.UserMessage(prompt),
			},
			Model: m.model,
		},
	)
	if err != nil {
		return "", err
	}
	if completion == nil || len(completion.Choices) == 0 {
		return "", fmt.Errorf("empty response from OpenAI")
	}
	if completion.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("no text in OpenAI response")
	}
	return completion.Choices[0].Message.Content, nil
}
