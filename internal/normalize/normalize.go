// Package normalize turns free-form model replies into schema-conforming
// objects. It never fails: unusable replies become the schema's fallback.
package normalize

import "strings"

// Normalize extracts the first JSON object from text and returns it unchanged
// when it satisfies schema. Otherwise the schema fallback with the raw text is
// returned and Result.Fallback is set.
func Normalize(text string, schema Schema) Result {
	span, ok := ExtractObject(text)
	if !ok {
		return schema.Fallback(text)
	}
	fields, err := parseObject([]byte(span))
	if err != nil {
		return schema.Fallback(text)
	}
	res := Result{Fields: fields, Raw: text}
	if schema.accept != nil && !schema.accept(res) {
		return schema.Fallback(text)
	}
	return res
}

// Text trims a free-text reply such as a translation. Surrounding quotes and
// code fences the model sometimes adds are removed.
func Text(text string) string {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			s = s[i+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}
