package routes

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mbolis/field-survey/app"
	"github.com/mbolis/field-survey/routes/middlewares"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.Logger, middleware.Recoverer)

	root.Mount("/api", apiRouter(app))

	// share links open the form with the ward preselected
	root.Get("/w/{ward}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/?ward="+url.QueryEscape(chi.URLParam(r, "ward")), http.StatusFound)
	})
	root.Mount("/", servePublicFiles(app.PublicDir))

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()

	api.Get("/wards", GetWards(app))
	api.Get("/wards/{ward}/questions", GetQuestions(app))
	api.Get("/booths", GetBooths(app))

	api.Route("/session", func(r chi.Router) {
		r.Get("/", GetSession(app))
		r.Post("/start", StartSession(app))
		r.Post("/abandon", AbandonSession(app))
		r.Post("/submit", SubmitSession(app))
		r.Post("/location", RetryLocation(app))
		r.Put("/ward", SelectWard(app))
		r.Put("/booth", SelectBooth(app))
		r.Put("/fields/{field}", UpdateField(app))
		r.Put("/answers", UpdateAnswer(app))
		r.Get("/history", GetHistory(app))

		r.Put("/voter", SearchVoter(app))
		r.Get("/suggestions", GetSuggestions(app))
		r.Post(`/suggestions/{index:^\d+$}`, SelectSuggestion(app))
		r.Delete("/suggestions", DismissSuggestions(app))

		r.Get("/events", app.Events.ServeWS)
	})

	api.Route("/admin", func(r chi.Router) {
		r.Use(middlewares.Admin)

		r.Get("/whoami", Whoami(app))
		r.Post("/logout", Logout(app))

		r.Get("/wards", AdminGetWards(app))
		r.Post("/wards", CreateWard(app))
		r.Get("/wards/{ward}/questions", AdminGetQuestions(app))
		r.Post("/wards/{ward}/questions", SaveQuestions(app))
		r.Get("/wards/{ward}/link", WardLink(app))

		r.Get("/responses", GetResponses(app))
		r.Get("/analytics", GetAnalytics(app))
	})

	return api
}

func servePublicFiles(dir string) http.Handler {
	return http.FileServer(http.Dir(dir))
}
