package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformed is returned when a reply does not contain the expected JSON.
var ErrMalformed = errors.New("malformed structured output")

// ExtractJSON returns the outermost JSON object in text, tolerating the
// markdown fences and chatter models tend to wrap it in.
func ExtractJSON(text string) ([]byte, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("%w: no JSON object in reply", ErrMalformed)
	}
	raw := []byte(text[start : end+1])
	if !json.Valid(raw) {
		return nil, fmt.Errorf("%w: invalid JSON in reply", ErrMalformed)
	}
	return raw, nil
}

// DecodeJSON extracts the JSON object in text and decodes it into v.
func DecodeJSON(text string, v any) ([]byte, error) {
	raw, err := ExtractJSON(text)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return raw, nil
}
