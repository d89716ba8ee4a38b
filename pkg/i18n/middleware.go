package i18n

import (
	"net/http"
)

// LangQueryParam overrides Accept-Language when the app's language toggle is set.
const LangQueryParam = "lang"

// Middleware resolves the request locale, stores it in the context and
// echoes it as Content-Language.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		locale := ParseAcceptLanguage(r.Header.Get("Accept-Language"))
		if lang := r.URL.Query().Get(LangQueryParam); lang != "" {
			locale = ParseAcceptLanguage(lang)
		}

		w.Header().Set("Content-Language", locale)
		w.Header().Add("Vary", "Accept-Language")
		next.ServeHTTP(w, r.WithContext(WithLocale(r.Context(), locale)))
	})
}
