package i18n

import "net/http"

// LangCookie remembers an explicit language choice.
const LangCookie = "studybuddy_lang"

// Middleware negotiates the request language and injects its localizer into
// the request context. A "lang" query parameter wins and is remembered in a
// cookie; then the cookie; then Accept-Language; then the default language.
func Middleware(cookiePath string, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var explicit string
			if q := r.URL.Query().Get("lang"); q != "" {
				explicit = Match(q)
				http.SetCookie(w, &http.Cookie{
					Name:     LangCookie,
					Value:    explicit,
					Path:     cookiePath,
					MaxAge:   365 * 24 * 3600,
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			} else if c, err := r.Cookie(LangCookie); err == nil {
				explicit = c.Value
			}

			lang := Match(explicit, r.Header.Get("Accept-Language"))
			ctx := WithLocalizer(r.Context(), NewLocalizer(lang))
			ctx = WithLang(ctx, lang)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
