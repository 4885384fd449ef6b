package tools

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUnknownTool     = errors.New("unknown tool")
	ErrTimeout         = errors.New("timed out, please try again")
)

func stringArg(args map[string]any, name string, required bool) (string, error) {
	v, ok := args[name]
	if !ok || v == nil {
		if required {
			return "", fmt.Errorf("%w: %s is required", ErrInvalidArgument, name)
		}
		return "", nil
	}
	var s string
	switch val := v.(type) {
	case string:
		s = val
	case float64:
		// Models often send numeric ids unquoted.
		s = strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		s = val.String()
	default:
		return "", fmt.Errorf("%w: %s must be a string", ErrInvalidArgument, name)
	}
	s = strings.TrimSpace(s)
	if s == "" && required {
		return "", fmt.Errorf("%w: %s is required", ErrInvalidArgument, name)
	}
	return s, nil
}

func boolArg(args map[string]any, name string) (bool, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return false, nil
	}
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(val))
		if err != nil {
			return false, fmt.Errorf("%w: %s must be true or false", ErrInvalidArgument, name)
		}
		return b, nil
	default:
		return false, fmt.Errorf("%w: %s must be a boolean", ErrInvalidArgument, name)
	}
}

// objectArg accepts a JSON object or a string holding one.
func objectArg(args map[string]any, name string) (map[string]any, error) {
	switch val := args[name].(type) {
	case map[string]any:
		if len(val) == 0 {
			return nil, fmt.Errorf("%w: %s must not be empty", ErrInvalidArgument, name)
		}
		return val, nil
	case string:
		var obj map[string]any
		if err := json.Unmarshal([]byte(val), &obj); err != nil || len(obj) == 0 {
			return nil, fmt.Errorf("%w: %s must be a non-empty JSON object", ErrInvalidArgument, name)
		}
		return obj, nil
	case nil:
		return nil, fmt.Errorf("%w: %s is required", ErrInvalidArgument, name)
	default:
		return nil, fmt.Errorf("%w: %s must be an object", ErrInvalidArgument, name)
	}
}

func jsonResult(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding result: %w", err)
	}
	return string(b), nil
}

func schema(required []string, properties map[string]any) map[string]any {
	if required == nil {
		required = []string{}
	}
	return map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}

func prop(typ, description string) map[string]any {
	return map[string]any{"type": typ, "description": description}
}
