// Package jsonutil pulls a JSON object or array out of model replies that
// may arrive wrapped in markdown fences or surrounded by prose.
package jsonutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoJSON is returned when the text contains no object or array.
var ErrNoJSON = errors.New("no JSON content found")

// Extract returns the outermost JSON value in text: from the first { or [
// to the last matching closer. Fences are removed first.
func Extract(text string) (string, error) {
	text = stripFences(text)

	start := strings.IndexAny(text, "{[")
	if start == -1 {
		return "", ErrNoJSON
	}
	closer := "}"
	if text[start] == '[' {
		closer = "]"
	}
	end := strings.LastIndex(text, closer)
	if end < start {
		return "", fmt.Errorf("unterminated JSON: no closing %s", closer)
	}
	return text[start : end+1], nil
}

// ParseJSON extracts the JSON value in raw and decodes it into T.
func ParseJSON[T any](raw string) (T, error) {
	var out T
	body, err := Extract(raw)
	if err != nil {
		return out, fmt.Errorf("%w (raw length: %d)", err, len(raw))
	}
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		preview := body
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		return out, fmt.Errorf("invalid JSON: %w (text: %s)", err, preview)
	}
	return out, nil
}

// stripFences drops a leading ``` line (with optional language tag) and
// the closing ``` line.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	if nl := strings.IndexByte(text, '\n'); nl != -1 {
		text = text[nl+1:]
	} else {
		return strings.Trim(text, "`")
	}
	if idx := strings.LastIndex(text, "```"); idx != -1 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}
