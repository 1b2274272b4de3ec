package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// #region extract-json

// ExtractJSON pulls a JSON object out of a raw model response. Fenced code
// blocks are preferred; otherwise the first balanced brace-delimited object
// is returned. Returns "" when no object can be found.
func ExtractJSON(response string) string {
	if fenced := extractFenced(response); fenced != "" {
		if obj := extractBraced(fenced); obj != "" {
			return obj
		}
	}
	return extractBraced(response)
}

func extractFenced(response string) string {
	for _, fence := range []string{"```json", "```"} {
		start := strings.Index(response, fence)
		if start == -1 {
			continue
		}
		rest := response[start+len(fence):]
		end := strings.Index(rest, "```")
		if end == -1 {
			continue
		}
		return strings.TrimSpace(rest[:end])
	}
	return ""
}

func extractBraced(response string) string {
	start := strings.Index(response, "{")
	if start == -1 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(response); i++ {
		c := response[i]
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
				return response[start : i+1]
			}
		}
	}
	return ""
}

// #endregion extract-json

// #region parse-determination

// ParseDetermination extracts and decodes a Determination from a raw model
// response, then checks the returned state against the configured set. An
// unknown state name is an error so it folds into the caller's retry loop
// rather than poisoning the record.
func ParseDetermination(response string, states StateSet) (Determination, error) {
	raw := ExtractJSON(response)
	if raw == "" {
		return Determination{}, fmt.Errorf("no JSON object in response")
	}

	var det Determination
	if err := json.Unmarshal([]byte(raw), &det); err != nil {
		return Determination{}, fmt.Errorf("decode determination: %w", err)
	}
	if det.State == "" {
		return Determination{}, fmt.Errorf("determination missing state")
	}
	if _, ok := states[det.State]; !ok {
		return Determination{}, fmt.Errorf("unknown state %q in determination", det.State)
	}
	if det.Confidence < 0 || det.Confidence > 1 {
		return Determination{}, fmt.Errorf("confidence %v out of range", det.Confidence)
	}
	return det, nil
}

// #endregion parse-determination
