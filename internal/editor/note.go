package editor

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"profileai/internal/domain"
)

// DefaultNote is used when neither a prompt nor improvements are supplied.
const DefaultNote = "추구미에 더 가까워지도록 사진의 분위기를 자연스럽게 개선해 주세요"

const defaultImprovementIndex = 1

// ResolveNote picks the edit note from the request fields. An explicit prompt
// wins. improvements may be a JSON array, a JSON string or plain text. index
// selects one entry; without it a list yields its second entry, which is the
// suggestion for the profile photo.
func ResolveNote(promptText, improvements, index string) (string, error) {
	if p := strings.TrimSpace(promptText); p != "" {
		return p, nil
	}
	entries := parseImprovements(improvements)
	if idx := strings.TrimSpace(index); idx != "" {
		i, err := strconv.Atoi(idx)
		if err != nil {
			return "", domain.NewInputError(fmt.Sprintf("improvement_index %q is not a number", idx))
		}
		if i < 0 || i >= len(entries) {
			return "", domain.NewInputError(fmt.Sprintf("improvement_index %d is out of range (0-%d)", i, len(entries)-1))
		}
		return entries[i], nil
	}
	switch len(entries) {
	case 0:
		return DefaultNote, nil
	case 1:
		return entries[0], nil
	default:
		return entries[defaultImprovementIndex], nil
	}
}

func parseImprovements(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var items []any
	if err := json.Unmarshal([]byte(raw), &items); err == nil {
		out := make([]string, 0, len(items))
		for _, item := range items {
			if s := entryText(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	var single string
	if err := json.Unmarshal([]byte(raw), &single); err == nil {
		raw = single
	}
	if s := strings.TrimSpace(raw); s != "" {
		return []string{s}
	}
	return nil
}

func entryText(item any) string {
	switch v := item.(type) {
	case string:
		return strings.TrimSpace(v)
	case map[string]any:
		for _, key := range []string{"improvement", "text", "description"} {
			if s, ok := v[key].(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}
