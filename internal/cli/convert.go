package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mgpai22/subscrub/internal/subtitle"
)

var exportCmd = &cobra.Command{
	Use:   "export [subtitle_file]",
	Short: "Write the captions as SRT, WebVTT or ASS",
	Long: `Export a subtitle file to another format.

Examples:
  subscrub export talk.srt -f vtt
  subscrub export talk.srt -f ass -o styled/talk.ass`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

var importCmd = &cobra.Command{
	Use:   "import [srt_or_vtt_file]",
	Short: "Convert an existing SRT or WebVTT file into an editable one",
	Long: `Read an SRT or WebVTT file that may use multi-line captions, cue
settings or unsorted cues, and write a clean single-line SRT file that the
editor can open.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(exportCmd, importCmd)

	exportCmd.Flags().StringP("format", "f", "vtt", "Output format (srt, vtt, ass)")
	exportCmd.Flags().StringP("output", "o", "", "Output file path")
	importCmd.Flags().StringP("output", "o", "", "Output file path")
	importCmd.Flags().Bool("force", false, "Overwrite the output file")
}

func runExport(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	formatName, _ := cmd.Flags().GetString("format")
	outputPath, _ := cmd.Flags().GetString("output")

	format, err := subtitle.ParseFormat(formatName)
	if err != nil {
		return err
	}
	if outputPath == "" {
		outputPath = strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) +
			subtitle.GetExtensionForFormat(format)
	}
	if samePath(inputPath, outputPath) {
		return fmt.Errorf("output %s would overwrite the input", outputPath)
	}

	store, err := subtitle.Open(inputPath)
	if err != nil {
		return err
	}
	if err := subtitle.Export(store.Entries(), format, outputPath); err != nil {
		return err
	}

	logger.Infow("exported captions",
		"format", format,
		"output", outputPath,
		"captions", store.Len(),
	)
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	outputPath, _ := cmd.Flags().GetString("output")
	force, _ := cmd.Flags().GetBool("force")

	if outputPath == "" {
		outputPath = strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + ".edit.srt"
	}
	if samePath(inputPath, outputPath) {
		return fmt.Errorf("output %s would overwrite the input", outputPath)
	}
	if _, err := os.Stat(outputPath); err == nil && !force {
		return fmt.Errorf("output %s already exists (use --force to overwrite)", outputPath)
	}

	entries, err := subtitle.Import(inputPath)
	if err != nil {
		return err
	}
	if err := subtitle.Export(entries, subtitle.FormatSRT, outputPath); err != nil {
		return err
	}
	if _, err := subtitle.Open(outputPath); err != nil {
		return fmt.Errorf("imported file is not editable: %w", err)
	}

	logger.Infow("imported captions",
		"input", inputPath,
		"output", outputPath,
		"captions", len(entries),
	)
	return nil
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}
