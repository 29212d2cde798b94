package middleware

import (
	"context"
	"net/http"

	"github.com/diewo77/go-rentals/i18n"
)

type ctxKey string

const ctxLang ctxKey = "pref_lang"

func supported(lang string) bool { return lang == "fr" || lang == "en" }

// Prefs resolves the interface language (query > cookie > Accept-Language)
// and stores it in the request context. A language given in the query is
// remembered in a cookie for 30 days.
func Prefs(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := ""
		if c, err := r.Cookie("lang"); err == nil {
			lang = c.Value
		}
		if ql := r.URL.Query().Get("lang"); supported(ql) {
			lang = ql
			http.SetCookie(w, &http.Cookie{Name: "lang", Value: lang, Path: "/", MaxAge: 86400 * 30})
		}
		if !supported(lang) {
			lang = i18n.DetectLanguage(r.Header.Get("Accept-Language"))
		}
		next.ServeHTTP(w, r.WithContext(WithLang(r.Context(), lang)))
	})
}

// WithLang stores lang in ctx.
func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, ctxLang, lang)
}

// LangFrom returns the language preference or i18n.Default.
func LangFrom(r *http.Request) string {
	if v, ok := r.Context().Value(ctxLang).(string); ok && v != "" {
		return v
	}
	return i18n.Default
}
