package agent

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoJSON indicates the model reply contained no JSON object at all.
var ErrNoJSON = errors.New("model response did not contain JSON")

// ExtractJSON returns the JSON object embedded in model output: the slice
// from the first '{' to the last '}'. Models frequently wrap their payload
// in prose or markdown fences despite instructions not to.
func ExtractJSON(content string) (string, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end < start {
		return "", ErrNoJSON
	}

	return content[start : end+1], nil
}

// DecodeJSON extracts and unmarshals the JSON object in content. Models
// sometimes emit raw line breaks inside string values, which is invalid
// JSON; when the first unmarshal fails, a second pass escapes them and
// retries before giving up.
func DecodeJSON(content string, out any) error {
	raw, err := ExtractJSON(content)
	if err != nil {
		return err
	}

	if err := json.Unmarshal([]byte(raw), out); err == nil {
		return nil
	}

	escaped := strings.NewReplacer("\r", " ", "\n", `\n`).Replace(raw)
	if err := json.Unmarshal([]byte(escaped), out); err != nil {
		return fmt.Errorf("decoding model JSON: %w", err)
	}

	return nil
}
