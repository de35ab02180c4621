package middleware

import (
	"context"
	"net/http"
	"strings"

	"golang.org/x/text/language"
)

type localeContextKey struct{}

// SupportedNoteLanguages are the languages improvement notes may be written
// in. The first entry is the matcher's fallback.
var SupportedNoteLanguages = []language.Tag{language.Korean, language.English, language.Japanese, language.Chinese}

// Locale resolves the language of user-written text from X-Locale, then
// Accept-Language, then fallback.
func Locale(fallback language.Tag) func(http.Handler) http.Handler {
	supported := SupportedNoteLanguages
	if fallback != language.Und {
		supported = append([]language.Tag{fallback}, SupportedNoteLanguages...)
	}
	matcher := language.NewMatcher(supported)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tag := detectLocale(r, matcher, fallback)
			ctx := context.WithValue(r.Context(), localeContextKey{}, tag)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func detectLocale(r *http.Request, matcher language.Matcher, fallback language.Tag) language.Tag {
	if v := strings.TrimSpace(r.Header.Get("X-Locale")); v != "" {
		if tag, err := language.Parse(v); err == nil {
			return matchBase(matcher, tag)
		}
	}
	if v := r.Header.Get("Accept-Language"); v != "" {
		tags, _, err := language.ParseAcceptLanguage(v)
		if err == nil && len(tags) > 0 {
			return matchBase(matcher, tags...)
		}
	}
	return fallback
}

func matchBase(matcher language.Matcher, tags ...language.Tag) language.Tag {
	tag, _, _ := matcher.Match(tags...)
	base, _ := tag.Base()
	return language.Make(base.String())
}

// LocaleFromContext returns the resolved language, or language.Und when the
// middleware did not run.
func LocaleFromContext(ctx context.Context) language.Tag {
	if v, ok := ctx.Value(localeContextKey{}).(language.Tag); ok {
		return v
	}
	return language.Und
}
