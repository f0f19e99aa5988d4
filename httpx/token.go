package httpx

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

const (
	TokenCookie     = "access_token"
	DefaultUsername = "User"
)

// BearerToken returns the admin token from the Authorization header, falling
// back to the access_token cookie.
func BearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	if scheme, token, ok := strings.Cut(auth, " "); ok && strings.EqualFold(scheme, "bearer") {
		if token = strings.TrimSpace(token); token != "" {
			return token, true
		}
	}

	cookie, err := r.Cookie(TokenCookie)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

// TokenUsername reads the subject of a JWT for display. The signature is not
// checked: the backend is the only party that can verify the token, and
// every admin call goes through it.
func TokenUsername(token string) string {
	claims := jwt.MapClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(token, claims)
	if err != nil {
		return DefaultUsername
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return DefaultUsername
	}
	return sub
}
