package translate

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var codeFenceRegex = regexp.MustCompile("```(?:json)?\\s*")

// keys models like to wrap the result array in, tried before any other key
var wrapperKeys = []string{"results", "translations", "data", "items"}

var errNoResults = errors.New("no valid translation JSON found in response")

// parseResponse decodes a model reply and checks that it answers every
// requested index exactly once.
func parseResponse(reply string, items []TranslationItem) ([]TranslationResult, error) {
	if strings.TrimSpace(reply) == "" {
		return nil, fmt.Errorf("empty response from model")
	}

	reply = cleanJSONResponse(reply)
	results, err := extractTranslationResults(reply)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w (response: %s)",
			err, truncateString(reply, 200))
	}
	if len(results) != len(items) {
		return nil, fmt.Errorf("expected %d results, got %d", len(items), len(results))
	}

	pending := make(map[int]struct{}, len(items))
	for _, item := range items {
		pending[item.Index] = struct{}{}
	}
	for _, r := range results {
		if _, ok := pending[r.Index]; !ok {
			return nil, fmt.Errorf("unexpected result index %d", r.Index)
		}
		delete(pending, r.Index)
	}
	return results, nil
}

func cleanJSONResponse(s string) string {
	s = codeFenceRegex.ReplaceAllString(strings.TrimSpace(s), "")
	return strings.TrimSpace(strings.ReplaceAll(s, "```", ""))
}

// fixInvalidEscapes doubles the backslash of escapes JSON does not know,
// such as the \N line break of ASS, so the literal survives decoding.
func fixInvalidEscapes(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))

	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			sb.WriteByte(c)
			continue
		}
		i++
		if !strings.ContainsRune(`"\/bfnrtu`, rune(s[i])) {
			sb.WriteByte('\\')
		}
		sb.WriteByte('\\')
		sb.WriteByte(s[i])
	}
	return sb.String()
}

// extractTranslationResults scans text for the first JSON value that holds
// a usable result array, skipping any prose around it.
func extractTranslationResults(text string) ([]TranslationResult, error) {
	text = fixInvalidEscapes(text)

	for i := strings.IndexAny(text, "[{"); i >= 0; {
		var raw json.RawMessage
		if err := json.NewDecoder(strings.NewReader(text[i:])).Decode(&raw); err == nil {
			if results, ok := unwrapResults(raw); ok {
				return results, nil
			}
		}
		next := strings.IndexAny(text[i+1:], "[{")
		if next < 0 {
			break
		}
		i += next + 1
	}
	return nil, errNoResults
}

// accepts a bare array or an object holding one
func unwrapResults(raw json.RawMessage) ([]TranslationResult, bool) {
	if results, ok := decodeResults(raw); ok {
		return results, true
	}

	var object map[string]json.RawMessage
	if err := json.Unmarshal(raw, &object); err != nil {
		return nil, false
	}
	for _, key := range wrapperKeys {
		if results, ok := decodeResults(object[key]); ok {
			return results, true
		}
	}
	for _, field := range object {
		if results, ok := decodeResults(field); ok {
			return results, true
		}
	}
	return nil, false
}

// an array counts only when at least one text is non-empty
func decodeResults(raw json.RawMessage) ([]TranslationResult, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var results []TranslationResult
	if err := json.Unmarshal(raw, &results); err != nil {
		return nil, false
	}
	for _, r := range results {
		if r.Text != "" {
			return results, true
		}
	}
	return nil, false
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
