package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// TranslationItem is one caption sent to the model. Index is the position
// of the caption in the request, not its SRT number.
type TranslationItem struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

type TranslationResult struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

type Translator interface {
	Translate(ctx context.Context, items []TranslationItem) ([]TranslationResult, error)
}

// translation service provider
type Provider string

const (
	ProviderGemini    Provider = "gemini"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// environment variable holding the API key for each provider
var apiKeyEnv = map[Provider]string{
	ProviderGemini:    "GEMINI_API_KEY",
	ProviderOpenAI:    "OPENAI_API_KEY",
	ProviderAnthropic: "ANTHROPIC_API_KEY",
}

// APIKeyEnv returns the environment variable read for the provider's key.
func APIKeyEnv(provider Provider) string {
	return apiKeyEnv[provider]
}

func ParseProvider(name string) (Provider, error) {
	provider := Provider(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := apiKeyEnv[provider]; !ok {
		return "", fmt.Errorf(
			"unsupported translation provider %q: use gemini, openai, or anthropic",
			name,
		)
	}
	return provider, nil
}

type Options struct {
	InputLanguage  string
	TargetLanguage string
	Model          string
	Prompt         string
	BatchSize      int // items per API request (default 50)
	Concurrency    int // parallel requests (default 3)
}

// sends one prompt to a model and returns its text reply
type completer interface {
	complete(ctx context.Context, prompt string) (string, error)
}

// creates a Translator for the provider
func Factory(
	ctx context.Context,
	provider Provider,
	apiKey string,
	opts Options,
) (*BatchTranslator, error) {
	if opts.TargetLanguage == "" {
		return nil, fmt.Errorf("target language is required")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	var (
		model completer
		err   error
	)
	switch provider {
	case ProviderGemini:
		model, err = newGeminiModel(ctx, apiKey, opts.Model)
	case ProviderOpenAI:
		model = newOpenAIModel(apiKey, opts.Model)
	case ProviderAnthropic:
		model = newAnthropicModel(apiKey, opts.Model)
	default:
		return nil, fmt.Errorf("unsupported translation provider: %s", provider)
	}
	if err != nil {
		return nil, err
	}
	return newBatchTranslator(model, opts), nil
}

const promptRules = `Rules:
- Translate only the text, keep the meaning and tone.
- Keep every translation on a single line.
- Answer with a JSON array of objects with "index" and "text" fields.
- Use exactly the input indices, one object per input item.
- No explanations, no markdown.
`

// BuildPrompt renders the request sent to the model for one batch.
func BuildPrompt(opts Options, items []TranslationItem) string {
	var sb strings.Builder

	source := "caption texts"
	if opts.InputLanguage != "" {
		source = opts.InputLanguage + " caption texts"
	}
	fmt.Fprintf(&sb, "Translate the following %s to %s.\n\n", source, opts.TargetLanguage)
	sb.WriteString(promptRules)
	if opts.Prompt != "" {
		fmt.Fprintf(&sb, "\nAdditional instructions: %s\n", opts.Prompt)
	}

	payload, _ := json.MarshalIndent(items, "", "  ")
	sb.WriteString("\nInput JSON:\n")
	sb.Write(payload)
	sb.WriteString("\n\nOutput the translated JSON array only:")

	return sb.String()
}
