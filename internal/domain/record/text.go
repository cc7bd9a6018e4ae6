package record

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// DocumentKey is the payload key engines with separately stored document
// text use to expose it.
const DocumentKey = "document"

// TextQuery is a naive substring search over payload fields.
type TextQuery struct {
	Text          string
	Limit         int
	CaseSensitive bool
}

// NewTextQuery validates a substring query.
func NewTextQuery(text string, limit int, caseSensitive bool) (TextQuery, error) {
	if text == "" {
		return TextQuery{}, fmt.Errorf("search_text is required")
	}
	if limit <= 0 {
		return TextQuery{}, fmt.Errorf("limit must be positive, got %d", limit)
	}
	return TextQuery{Text: text, Limit: limit, CaseSensitive: caseSensitive}, nil
}

// TextSearchResult is the outcome of a substring scan.
type TextSearchResult struct {
	Records []Record
	// MatchedCount equals len(Records).
	MatchedCount int
	// ScannedCount is the number of records fetched, not the number inspected.
	ScannedCount int
	// Truncated is set when the fetch hit the safety cap.
	Truncated bool
}

// Scan matches fetched records against q. It keeps at most q.Limit matches.
// A record whose payload cannot be rendered is reported to skip and ignored.
func Scan(records []Record, q TextQuery, safetyCap int, skip func(Record, error)) TextSearchResult {
	needle := q.Text
	if !q.CaseSensitive {
		needle = strings.ToLower(needle)
	}

	matches := make([]Record, 0)
	for _, r := range records {
		if len(matches) >= q.Limit {
			break
		}
		ok, err := matchPayload(r.Payload, needle, q.CaseSensitive)
		if err != nil {
			if skip != nil {
				skip(r, err)
			}
			continue
		}
		if ok {
			matches = append(matches, r)
		}
	}

	return TextSearchResult{
		Records:      matches,
		MatchedCount: len(matches),
		ScannedCount: len(records),
		Truncated:    safetyCap > 0 && len(records) >= safetyCap,
	}
}

// matchPayload stops at the first field containing needle. A render error
// is returned only when no other field matched.
func matchPayload(payload map[string]any, needle string, caseSensitive bool) (bool, error) {
	var renderErr error
	for key, v := range payload {
		s, ok, err := FieldString(v)
		if err != nil {
			if renderErr == nil {
				renderErr = fmt.Errorf("field %q: %w", key, err)
			}
			continue
		}
		if !ok {
			continue
		}
		if !caseSensitive {
			s = strings.ToLower(s)
		}
		if strings.Contains(s, needle) {
			return true, nil
		}
	}
	return false, renderErr
}

// FieldString renders a payload value for substring matching.
// ok is false for null values, which never match.
func FieldString(v any) (s string, ok bool, err error) {
	switch val := v.(type) {
	case nil:
		return "", false, nil
	case string:
		return val, true, nil
	case bool:
		return strconv.FormatBool(val), true, nil
	case int:
		return strconv.Itoa(val), true, nil
	case int64:
		return strconv.FormatInt(val, 10), true, nil
	case uint64:
		return strconv.FormatUint(val, 10), true, nil
	case float32:
		return strconv.FormatFloat(float64(val), 'g', -1, 32), true, nil
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64), true, nil
	case json.Number:
		return val.String(), true, nil
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return "", false, fmt.Errorf("render value: %w", err)
		}
		return string(data), true, nil
	}
}
