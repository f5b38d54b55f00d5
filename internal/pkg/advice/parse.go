package advice

import (
	"errors"
	"fmt"
	"github.com/bytedance/sonic"
	"strings"
)

var errNoJsonObject = errors.New("no JSON object found in the completion")

// Parse turns raw model text into a Response, or explains why it can't.
func Parse(raw string) (Response, error) {
	object, value, err := decodeFirstObject(stripCodeFence(raw))
	if err != nil {
		return Response{}, err
	}

	if err := responseSchema.VisitJSON(value); err != nil {
		return Response{}, fmt.Errorf("completion does not match the schema: %w", err)
	}

	var response Response
	if err := sonic.UnmarshalString(object, &response); err != nil {
		return Response{}, fmt.Errorf("completion can not be decoded: %w", err)
	}

	if err := response.Check(); err != nil {
		return Response{}, err
	}

	return response, nil
}

// decodeFirstObject picks the first candidate block that is valid JSON; prose may carry brace-delimited text before it.
func decodeFirstObject(text string) (string, any, error) {
	objects := extractJsonObjects(text)
	if len(objects) == 0 {
		return "", nil, errNoJsonObject
	}

	var firstErr error
	for _, object := range objects {
		var value any
		err := sonic.UnmarshalString(object, &value)
		if err == nil {
			return object, value, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return "", nil, fmt.Errorf("completion is not valid JSON: %w", firstErr)
}

func stripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimLeft(trimmed, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")
		trimmed = strings.TrimSpace(trimmed)
	}
	if strings.HasSuffix(trimmed, "```") {
		trimmed = strings.TrimSuffix(trimmed, "```")
		trimmed = strings.TrimSpace(trimmed)
	}
	return trimmed
}

// extractJsonObjects returns every top-level balanced {...} block in order, ignoring braces inside strings.
func extractJsonObjects(text string) []string {
	var objects []string
	start := -1
	depth := 0
	inString := false
	escape := false
	for i, r := range text {
		if start == -1 {
			if r == '{' {
				start = i
				depth = 1
			}
			continue
		}
		if inString {
			if escape {
				escape = false
				continue
			}
			if r == '\\' {
				escape = true
				continue
			}
			if r == '"' {
				inString = false
			}
			continue
		}
		switch r {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				objects = append(objects, text[start:i+1])
				start = -1
			}
		}
	}
	return objects
}
