package normalize

import "strings"

// ExtractObject returns the first balanced {...} span in text. Braces inside
// JSON string literals are ignored and escapes are honoured. Markdown code
// fences around the object are tolerated because only the span itself is
// returned. A stray opening brace that never closes is skipped. ok is false
// when no complete span exists.
func ExtractObject(text string) (span string, ok bool) {
	offset := 0
	for {
		i := strings.IndexByte(text[offset:], '{')
		if i < 0 {
			return "", false
		}
		start := offset + i
		if end, found := matchBrace(text, start); found {
			return text[start : end+1], true
		}
		offset = start + 1
	}
}

func matchBrace(text string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
