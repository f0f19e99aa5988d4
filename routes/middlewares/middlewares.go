package middlewares

import (
	"context"
	"net/http"

	"github.com/mbolis/field-survey/httpx"
	"github.com/mbolis/field-survey/log"
)

type contextKey struct{}

// Token returns the bearer token stored by Admin.
func Token(r *http.Request) string {
	token, _ := r.Context().Value(contextKey{}).(string)
	return token
}

// Admin requires a bearer token, from the Authorization header or the
// access_token cookie. The token is opaque here, the backend validates it on
// every admin call. When a cookie token is rejected upstream the cookie is
// expired so the UI goes back to its login page.
func Admin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := httpx.BearerToken(r)
		if !ok {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "admin.bearer_token")
			return
		}
		r = r.WithContext(context.WithValue(r.Context(), contextKey{}, token))

		if cookie, err := r.Cookie(httpx.TokenCookie); err != nil || cookie.Value != token {
			next.ServeHTTP(w, r)
			return
		}

		buf := httpx.NewResponseBuffer()
		next.ServeHTTP(buf, r)
		if buf.Status() == http.StatusUnauthorized {
			ExpireTokenCookie(w)
		}
		if err := buf.Flush(w); err != nil {
			log.Debug("admin.flush: ", err)
		}
	})
}

func ExpireTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Path:     "/",
		Name:     httpx.TokenCookie,
		Value:    "",
		MaxAge:   -1,
		SameSite: http.SameSiteLaxMode,
	})
}
