package conform

import (
	"math"
	"strconv"
	"strings"
)

func parseBoolean(raw string) (bool, bool) {
	return strings.ToLower(strings.TrimSpace(raw)) == "true", true
}

func parseString(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	return s, s != ""
}

// parseNumber accepts the whole trimmed input only: "123abc" is rejected.
// Decimal and exponent forms are truncated toward zero.
func parseNumber(raw string) (int, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.ParseInt(s, 10, strconv.IntSize); err == nil {
		return int(n), true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	f = math.Trunc(f)
	if f < math.MinInt || f >= math.MaxInt {
		return 0, false
	}
	return int(f), true
}

func parseArray(raw string) ([]string, bool) {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out, true
}

func parseObject(raw string) (map[string]string, bool) {
	entries := strings.Split(raw, ",")
	out := make(map[string]string, len(entries))
	for _, entry := range entries {
		key, value, _ := strings.Cut(entry, ":")
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		out[key] = strings.TrimSpace(value)
	}
	return out, true
}
