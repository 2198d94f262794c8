package txinput

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	apperrors "pocketledger/internal/errors"
)

// ParseIDList accepts a JSON array of identifiers (numbers or numeric
// strings) or a single comma-separated string, and returns the ids in first
// seen order without duplicates. Absent, null and "" all yield an empty,
// non-nil list. Blank comma segments are skipped; any other non-numeric
// entry rejects the whole list.
func ParseIDList(raw json.RawMessage) ([]uint, error) {
	ids := []uint{}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || isNull(raw) {
		return ids, nil
	}

	var entries []string
	switch raw[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, invalidTagIDs()
		}
		for _, item := range items {
			text, ok := scalarText(item)
			if !ok || text == "" {
				return nil, invalidTagIDs()
			}
			entries = append(entries, text)
		}
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, invalidTagIDs()
		}
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				entries = append(entries, part)
			}
		}
	default:
		// A lone number is accepted as a one-element list.
		text, ok := scalarText(raw)
		if !ok {
			return nil, invalidTagIDs()
		}
		entries = append(entries, text)
	}

	seen := make(map[uint]struct{}, len(entries))
	for _, entry := range entries {
		id, err := parseID(entry)
		if err != nil {
			return nil, apperrors.InvalidField("tag_ids", "invalid tag id: "+strconv.Quote(entry))
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

// parseID parses a positive base-10 identifier.
func parseID(s string) (uint, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, strconv.ErrRange
	}
	return uint(n), nil
}

func invalidTagIDs() error {
	return apperrors.InvalidField("tag_ids", "tag_ids must be an array of ids or a comma-separated string")
}
