package utils

import (
	"encoding/json"
	"errors"
	"strings"
)

var ErrNoJSON = errors.New("no JSON object in response")

// ExtractJSON pulls the first JSON object out of model output. It strips
// markdown code fences, skips any prose before the first '{', and drops
// trailing commas before a closing bracket. When the object is cut short it
// closes the open string, arrays and objects so the result still parses.
// Returns "" when no object start exists.
func ExtractJSON(s string) string {
	cleaned := StripCodeFences(s)
	start := strings.Index(cleaned, "{")
	if start == -1 {
		return ""
	}

	var b strings.Builder
	var stack []byte
	inString, escaped := false, false
	for i := start; i < len(cleaned); i++ {
		ch := cleaned[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			b.WriteByte(ch)
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case ',':
			if closesNext(cleaned[i+1:]) {
				continue
			}
		case '}', ']':
			if len(stack) > 0 && stack[len(stack)-1] == ch {
				stack = stack[:len(stack)-1]
			}
			if len(stack) == 0 {
				b.WriteByte(ch)
				return b.String()
			}
		}
		b.WriteByte(ch)
	}

	// truncated: balance what is still open
	if escaped {
		b.WriteByte('\\')
	}
	if inString {
		b.WriteByte('"')
	}
	out := strings.TrimRight(b.String(), " \t\r\n")
	out = strings.TrimSuffix(out, ",")
	b.Reset()
	b.WriteString(out)
	for i := len(stack) - 1; i >= 0; i-- {
		b.WriteByte(stack[i])
	}
	return b.String()
}

// closesNext reports whether the next non-space byte of rest ends an object
// or array.
func closesNext(rest string) bool {
	rest = strings.TrimLeft(rest, " \t\r\n")
	return rest != "" && (rest[0] == '}' || rest[0] == ']')
}

// DecodeJSON extracts and decodes the first object in s into v.
func DecodeJSON(s string, v any) error {
	raw := ExtractJSON(s)
	if raw == "" {
		return ErrNoJSON
	}
	return json.Unmarshal([]byte(raw), v)
}

// StripCodeFences removes a surrounding ```json ... ``` block if present.
func StripCodeFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	nl := strings.Index(trimmed, "\n")
	if nl == -1 {
		return strings.Trim(trimmed, "`")
	}
	body := trimmed[nl+1:]
	if end := strings.LastIndex(body, "```"); end != -1 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}
