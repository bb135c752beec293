package cli

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/mgpai22/subscrub/internal/subtitle"
)

var addCmd = &cobra.Command{
	Use:   "add [subtitle_file]",
	Short: "Insert a caption at a position",
	Long: `Insert one caption into a subtitle file, keeping captions ordered by
start time. The file is created when missing.

Examples:
  subscrub add talk.srt --at 00:01:02,500 --text "Welcome back"
  subscrub add talk.srt --at 00:00:10,000 --text "Hi" --duration 1500`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

var listCmd = &cobra.Command{
	Use:   "list [subtitle_file]",
	Short: "Show the captions of a subtitle file",
	Args:  cobra.ExactArgs(1),
	RunE:  runList,
}

var rmCmd = &cobra.Command{
	Use:   "rm [subtitle_file] [index]",
	Short: "Remove a caption by its index",
	Args:  cobra.ExactArgs(2),
	RunE:  runRemove,
}

func init() {
	rootCmd.AddCommand(addCmd, listCmd, rmCmd)

	addCmd.Flags().String("at", "", "Start time as HH:MM:SS,mmm (required)")
	addCmd.Flags().StringP("text", "t", "", "Caption text (required)")
	addCmd.Flags().
		Int("duration", 0, "Caption length in milliseconds (default from config)")
	_ = addCmd.MarkFlagRequired("at")
	_ = addCmd.MarkFlagRequired("text")

	listCmd.Flags().Bool("plain", false, "Tab separated output even on a terminal")
}

// runs fn with the subtitle file locked and opened
func withStore(path string, create bool, fn func(*subtitle.Store) error) (err error) {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	lock, err := subtitle.Lock(path)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, lock.Unlock())
	}()

	open := subtitle.Open
	if create {
		open = subtitle.Create
	}
	store, err := open(path, subtitle.WithDefaultDuration(cfg.DefaultDuration()))
	if err != nil {
		return err
	}
	return fn(store)
}

func runAdd(cmd *cobra.Command, args []string) error {
	at, _ := cmd.Flags().GetString("at")
	text, _ := cmd.Flags().GetString("text")
	durationMS, _ := cmd.Flags().GetInt("duration")

	start, err := subtitle.ParseTime(at)
	if err != nil {
		return fmt.Errorf("invalid --at: %w", err)
	}
	if durationMS < 0 || int64(durationMS) > math.MaxInt64/int64(time.Millisecond) {
		return fmt.Errorf("invalid --duration %d: must be between 0 and %d ms",
			durationMS, math.MaxInt64/int64(time.Millisecond))
	}

	return withStore(args[0], true, func(store *subtitle.Store) error {
		entry, err := store.Add(start, text, time.Duration(durationMS)*time.Millisecond)
		if err != nil {
			return err
		}
		logger.Infow("caption added",
			"index", entry.Index,
			"start", subtitle.FormatTime(entry.StartTime),
			"end", subtitle.FormatTime(entry.EndTime),
			"captions", store.Len(),
		)
		return nil
	})
}

func runList(cmd *cobra.Command, args []string) error {
	plain, _ := cmd.Flags().GetBool("plain")

	store, err := subtitle.Open(args[0])
	if err != nil {
		return err
	}

	rows := make([][]string, 0, store.Len())
	for _, entry := range store.Entries() {
		rows = append(rows, []string{
			strconv.Itoa(entry.Index),
			subtitle.FormatTime(entry.StartTime),
			subtitle.FormatTime(entry.EndTime),
			entry.Text,
		})
	}

	out := cmd.OutOrStdout()
	if plain || !isTerminal(os.Stdout) {
		_, err = fmt.Fprint(out, renderPlain(rows))
		return err
	}
	if len(rows) == 0 {
		_, err = fmt.Fprintln(out, "No captions.")
		return err
	}
	_, err = fmt.Fprintln(out, renderTable(
		[]string{"#", "Start", "End", "Text"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
	))
	return err
}

func runRemove(cmd *cobra.Command, args []string) error {
	index, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid index %q: %w", args[1], err)
	}

	return withStore(args[0], false, func(store *subtitle.Store) error {
		entry, err := store.Remove(index)
		if err != nil {
			return err
		}
		logger.Infow("caption removed",
			"index", index,
			"text", entry.Text,
			"captions", store.Len(),
		)
		return nil
	})
}
