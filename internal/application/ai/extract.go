package ai

import (
	"errors"
	"strings"
)

var (
	// ErrNoJSONObject means the reply contained no complete {...} block
	ErrNoJSONObject = errors.New("response does not contain a JSON object")
	// ErrSchemaMismatch means an object was found but has the wrong shape
	ErrSchemaMismatch = errors.New("response JSON does not match the expected schema")
)

// ExtractJSONObject returns the first balanced top-level {...} block in
// text. Braces inside JSON strings are ignored, so prose before or after
// the object and nested objects are both handled.
func ExtractJSONObject(text string) (string, error) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", ErrNoJSONObject
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
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
				return text[start : i+1], nil
			}
		}
	}

	return "", ErrNoJSONObject
}
