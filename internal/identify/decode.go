package identify

import (
	"encoding/json"
	"fmt"
	"strings"
)

// extractJSON trims markdown code fences and surrounding prose from a model
// response so the JSON payload can be decoded.
func extractJSON(raw string) (string, error) {
	text := strings.TrimSpace(raw)

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return "", fmt.Errorf("no JSON object in model response")
	}
	return text[start : end+1], nil
}

func decodeResponse[T any](raw string) (*T, error) {
	payload, err := extractJSON(raw)
	if err != nil {
		return nil, err
	}

	var probe struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal([]byte(payload), &probe); err == nil && probe.Error != "" {
		return nil, fmt.Errorf("model reported: %s", probe.Error)
	}

	var value T
	if err := json.Unmarshal([]byte(payload), &value); err != nil {
		return nil, fmt.Errorf("decode model response: %w", err)
	}
	return &value, nil
}
