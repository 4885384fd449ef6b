package recommend

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseRequest converts loosely typed tool arguments into a Request.
// Numbers may arrive as JSON numbers or numeric strings; anything else is
// rejected with ErrInvalidRequest before any catalog call is made.
func ParseRequest(workload string, vcpu, memoryGB, storageGB any, zone string) (Request, error) {
	cpus, err := parseWhole("vcpu_count", vcpu)
	if err != nil {
		return Request{}, err
	}
	mem, err := parseNumber("memory_gb", memoryGB)
	if err != nil {
		return Request{}, err
	}
	storage, err := parseWhole("storage_gb", storageGB)
	if err != nil {
		return Request{}, err
	}

	req := Request{
		Workload:  ParseWorkload(workload),
		VCPU:      cpus,
		MemoryGB:  mem,
		StorageGB: storage,
		Zone:      strings.TrimSpace(zone),
	}
	return req, req.Validate()
}

// ParseWorkload normalizes a workload name. Underscores and spaces are
// accepted in place of hyphens, so "web_server" names WebServer.
func ParseWorkload(s string) Workload {
	s = strings.ToLower(strings.TrimSpace(s))
	return Workload(strings.NewReplacer("_", "-", " ", "-").Replace(s))
}

func parseNumber(field string, v any) (float64, error) {
	var f float64
	switch n := v.(type) {
	case nil:
		return 0, fmt.Errorf("%w: %s is required", ErrInvalidRequest, field)
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %s must be a number, got %q", ErrInvalidRequest, field, n)
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %s must be a number, got %q", ErrInvalidRequest, field, n)
		}
		f = parsed
	default:
		return 0, fmt.Errorf("%w: %s must be a number, got %T", ErrInvalidRequest, field, v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %s must be finite", ErrInvalidRequest, field)
	}
	return f, nil
}

func parseWhole(field string, v any) (int64, error) {
	f, err := parseNumber(field, v)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: %s must be a whole number, got %g", ErrInvalidRequest, field, f)
	}
	return int64(f), nil
}
