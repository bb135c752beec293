package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/mgpai22/subscrub/internal/subtitle"
)

// Entries translates caption texts and returns copies of the entries with
// the translated text. Timing and order are untouched.
func Entries(
	ctx context.Context,
	t Translator,
	entries []subtitle.Entry,
) ([]subtitle.Entry, error) {
	items := make([]TranslationItem, len(entries))
	for i, entry := range entries {
		items[i] = TranslationItem{Index: i, Text: entry.Text}
	}

	results, err := t.Translate(ctx, items)
	if err != nil {
		return nil, err
	}

	translated := make([]subtitle.Entry, len(entries))
	copy(translated, entries)
	for _, r := range results {
		if r.Index < 0 || r.Index >= len(entries) {
			return nil, fmt.Errorf("translation returned unknown index %d", r.Index)
		}
		text := singleLine(r.Text)
		if text == "" {
			// keep the original rather than leaving an empty caption
			continue
		}
		translated[r.Index].Text = text
	}
	return translated, nil
}

// captions are single line; models sometimes answer with \N or newlines
func singleLine(text string) string {
	text = strings.ReplaceAll(text, `\N`, " ")
	return strings.Join(strings.Fields(text), " ")
}

// Store translates every caption of the store in place. The store persists
// each change, so a failure mid-way leaves earlier captions translated.
func Store(ctx context.Context, t Translator, store *subtitle.Store) (int, error) {
	entries := store.Entries()
	translated, err := Entries(ctx, t, entries)
	if err != nil {
		return 0, err
	}

	changed := 0
	for i, entry := range translated {
		if entry.Text == entries[i].Text {
			continue
		}
		if err := store.SetText(entry.Index, entry.Text); err != nil {
			return changed, fmt.Errorf("failed to update caption %d: %w", entry.Index, err)
		}
		changed++
	}
	return changed, nil
}
