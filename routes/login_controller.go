package routes

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/mbolis/field-survey/app"
	"github.com/mbolis/field-survey/httpx"
	"github.com/mbolis/field-survey/routes/middlewares"
)

// Whoami reports the display name carried by the admin token.
func Whoami(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{
			"username": httpx.TokenUsername(middlewares.Token(r)),
		})
	}
}

func Logout(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		middlewares.ExpireTokenCookie(w)
		w.WriteHeader(http.StatusNoContent)
	}
}
