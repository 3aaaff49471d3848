package core

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// fencePattern matches a whole markdown code block, with or without a
// language tag: ```json { ... } ```
var fencePattern = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*\\n?(.*?)\\s*```$")

var errNoJSON = errors.New("no decodable JSON object in response")

// ExtractJSON pulls a JSON object out of a raw model response. Models wrap
// their output in markdown fences, prepend prose, or leave stray control
// characters in more creative ways than a single parse can handle, so the
// attempts run in order of increasing aggressiveness:
//
//  1. strict decode of the trimmed input (fences stripped first if present)
//  2. decode with carriage returns and newlines removed
//  3. decode of the first balanced {...} span
//
// It never panics on malformed input; when every attempt fails the caller
// gets errNoJSON and decides what to log.
func ExtractJSON(raw string) ([]byte, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, errNoJSON
	}

	if strings.HasPrefix(s, "```") {
		if m := fencePattern.FindStringSubmatch(s); len(m) > 1 {
			s = strings.TrimSpace(m[1])
		}
	}

	if obj, ok := decodeObject(s); ok {
		return obj, nil
	}

	flat := strings.NewReplacer("\r", "", "\n", "").Replace(s)
	if obj, ok := decodeObject(flat); ok {
		return obj, nil
	}

	if span := firstBalancedObject(s); span != "" {
		if obj, ok := decodeObject(span); ok {
			return obj, nil
		}
	}

	return nil, errNoJSON
}

// decodeObject accepts s only if it is exactly one JSON object.
func decodeObject(s string) ([]byte, bool) {
	data := []byte(s)
	if !json.Valid(data) {
		return nil, false
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, false
	}
	return data, true
}

// firstBalancedObject returns the first {...} span with matched braces,
// ignoring braces inside JSON string values.
func firstBalancedObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case ch == '\\' && inString:
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '{':
			depth++
		case ch == '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
