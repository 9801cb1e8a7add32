// File path: internal/common/json.go
package common

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoJSONPayload reports model output with no decodable JSON in it.
var ErrNoJSONPayload = errors.New("no json payload found in text")

// DecodeLooseJSON unmarshals model output that may wrap its JSON in markdown
// fences or surrounding prose. It tries the raw text first, then the first
// balanced object or array it can find.
func DecodeLooseJSON(text string, target any) error {
	trimmed := strings.TrimSpace(stripFences(text))
	if trimmed == "" {
		return ErrNoJSONPayload
	}
	if err := json.Unmarshal([]byte(trimmed), target); err == nil {
		return nil
	}
	payload := firstBalanced(trimmed)
	if payload == "" {
		return ErrNoJSONPayload
	}
	if err := json.Unmarshal([]byte(payload), target); err != nil {
		return errors.Join(ErrNoJSONPayload, err)
	}
	return nil
}

func stripFences(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}

// firstBalanced extracts the first balanced {...} or [...] span, respecting
// string literals and escapes.
func firstBalanced(text string) string {
	start := -1
	var open, close byte
	for i := 0; i < len(text); i++ {
		if text[i] == '{' || text[i] == '[' {
			start = i
			open = text[i]
			if open == '{' {
				close = '}'
			} else {
				close = ']'
			}
			break
		}
	}
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}
