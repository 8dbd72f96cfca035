package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON pulls a JSON object out of raw model output.
//
// Models frequently wrap their JSON in ``` fences or surround it with
// prose even when told not to. We strip fences first and try a direct
// parse; if that fails, we fall back to the first balanced {...} block
// in the text.
func ExtractJSON(raw string) (string, error) {
	cleaned := stripCodeFences(raw)

	if json.Valid([]byte(cleaned)) && strings.HasPrefix(strings.TrimSpace(cleaned), "{") {
		return strings.TrimSpace(cleaned), nil
	}

	block, ok := firstObjectBlock(cleaned)
	if !ok {
		return "", fmt.Errorf("no JSON object found in model output")
	}
	if !json.Valid([]byte(block)) {
		return "", fmt.Errorf("extracted block is not valid JSON")
	}
	return block, nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	// Drop the opening fence line (``` or ```json) and the closing fence.
	if idx := strings.Index(s, "\n"); idx >= 0 {
		s = s[idx+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// firstObjectBlock scans for the first balanced top-level {...} block,
// ignoring braces inside JSON strings.
func firstObjectBlock(s string) (string, bool) {
	start := strings.Index(s, "{")
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
