package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/mgpai22/subscrub/internal/subtitle"
	"github.com/mgpai22/subscrub/internal/translate"
)

var translateCmd = &cobra.Command{
	Use:   "translate [subtitle_file]",
	Short: "Translate captions to another language using AI",
	Long: `Translate the captions of a subtitle file with Gemini, OpenAI or
Anthropic models. Timing is kept as is; only the text changes.

By default the result is written next to the input as <name>.<language>.srt.
With --in-place the captions are rewritten in the original file.

Examples:
  subscrub translate talk.srt -t japanese
  subscrub translate talk.srt -t es --provider openai -o talk.es.srt
  subscrub translate talk.srt -t german --in-place`,
	Args: cobra.ExactArgs(1),
	RunE: runTranslate,
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().
		StringP("target-language", "t", "", "Target language for translation (required)")
	translateCmd.Flags().
		StringP("language", "l", "", "Language of the captions (detected when empty)")
	translateCmd.Flags().
		String("provider", "", "Translation provider: gemini, openai, anthropic (default from config)")
	translateCmd.Flags().
		String("model", "", "Model to use (provider default when empty)")
	translateCmd.Flags().
		StringP("api-key", "k", "", "API key (or set GEMINI_API_KEY/OPENAI_API_KEY/ANTHROPIC_API_KEY)")
	translateCmd.Flags().String("prompt", "", "Extra instructions for the model")
	translateCmd.Flags().Int("batch-size", 0, "Captions per API request (default from config)")
	translateCmd.Flags().Int("concurrency", 0, "Parallel requests (default from config)")
	translateCmd.Flags().StringP("output", "o", "", "Output file path")
	translateCmd.Flags().Bool("in-place", false, "Rewrite the captions of the input file")

	_ = translateCmd.MarkFlagRequired("target-language")
	translateCmd.MarkFlagsMutuallyExclusive("output", "in-place")
}

func runTranslate(cmd *cobra.Command, args []string) error {
	subtitlePath := args[0]

	targetLang, _ := cmd.Flags().GetString("target-language")
	inputLang, _ := cmd.Flags().GetString("language")
	providerName, _ := cmd.Flags().GetString("provider")
	model, _ := cmd.Flags().GetString("model")
	apiKey, _ := cmd.Flags().GetString("api-key")
	prompt, _ := cmd.Flags().GetString("prompt")
	batchSize, _ := cmd.Flags().GetInt("batch-size")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	outputPath, _ := cmd.Flags().GetString("output")
	inPlace, _ := cmd.Flags().GetBool("in-place")

	targetLang = strings.TrimSpace(targetLang)
	if targetLang == "" {
		return fmt.Errorf("target language is required")
	}
	if inputLang != "" && strings.EqualFold(strings.TrimSpace(inputLang), targetLang) {
		return fmt.Errorf(
			"input language %q and target language %q cannot be the same",
			inputLang,
			targetLang,
		)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if providerName == "" {
		providerName = cfg.Translate.Provider
	}
	provider, err := translate.ParseProvider(providerName)
	if err != nil {
		return err
	}
	if model == "" {
		model = cfg.Translate.Model
	}
	if apiKey == "" && string(provider) == cfg.Translate.Provider {
		apiKey = cfg.Translate.APIKey
	}
	if apiKey == "" {
		apiKey = os.Getenv(translate.APIKeyEnv(provider))
	}
	if apiKey == "" {
		return fmt.Errorf(
			"API key is required: use --api-key flag or set %s environment variable",
			translate.APIKeyEnv(provider),
		)
	}
	if batchSize == 0 {
		batchSize = cfg.Translate.BatchSize
	}
	if concurrency == 0 {
		concurrency = cfg.Translate.Concurrency
	}
	if batchSize < 0 {
		return fmt.Errorf("batch-size must be positive, got %d", batchSize)
	}
	if concurrency < 0 {
		return fmt.Errorf("concurrency must be positive, got %d", concurrency)
	}

	if !inPlace && outputPath == "" {
		outputPath = translatedPath(subtitlePath, targetLang)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	translator, err := translate.Factory(ctx, provider, apiKey, translate.Options{
		InputLanguage:  inputLang,
		TargetLanguage: targetLang,
		Model:          model,
		Prompt:         prompt,
		BatchSize:      batchSize,
		Concurrency:    concurrency,
	})
	if err != nil {
		return fmt.Errorf("failed to create translator: %w", err)
	}

	logger.Infow("Starting caption translation",
		"input", subtitlePath,
		"output", outputPath,
		"provider", provider,
		"target_language", targetLang,
		"in_place", inPlace,
	)

	if inPlace {
		return translateInPlace(ctx, translator, subtitlePath)
	}

	store, err := subtitle.Open(subtitlePath)
	if err != nil {
		return err
	}
	if store.Len() == 0 {
		return fmt.Errorf("subtitle file contains no captions")
	}
	entries, err := translate.Entries(ctx, translator, store.Entries())
	if err != nil {
		return fmt.Errorf("translation failed: %w", err)
	}
	format := subtitle.GetFormatFromExtension(outputPath)
	if err := subtitle.Export(entries, format, outputPath); err != nil {
		return err
	}

	logger.Infow("Translation complete",
		"captions", len(entries),
		"output", outputPath,
		"format", format,
	)
	return nil
}

func translateInPlace(
	ctx context.Context,
	translator translate.Translator,
	subtitlePath string,
) (err error) {
	lock, err := subtitle.Lock(subtitlePath)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, lock.Unlock())
	}()

	store, err := subtitle.Open(subtitlePath)
	if err != nil {
		return err
	}
	if store.Len() == 0 {
		return fmt.Errorf("subtitle file contains no captions")
	}
	changed, err := translate.Store(ctx, translator, store)
	if err != nil {
		return fmt.Errorf("translation failed after %d captions: %w", changed, err)
	}
	logger.Infow("Translation complete", "captions", store.Len(), "changed", changed)
	return nil
}

// talk.srt -> talk.<lang>.srt
func translatedPath(subtitlePath, lang string) string {
	base := strings.TrimSuffix(subtitlePath, filepath.Ext(subtitlePath))
	lang = strings.ToLower(strings.ReplaceAll(lang, " ", "_"))
	return fmt.Sprintf("%s.%s.srt", base, lang)
}
