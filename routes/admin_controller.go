package routes

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/mbolis/field-survey/analytics"
	"github.com/mbolis/field-survey/app"
	"github.com/mbolis/field-survey/httpx"
	"github.com/mbolis/field-survey/log"
	"github.com/mbolis/field-survey/model"
	"github.com/mbolis/field-survey/routes/middlewares"
)

func AdminGetWards(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wards, err := app.AdminWards(r.Context(), middlewares.Token(r))
		if err != nil {
			httpx.LogUpstreamError(w, "api.admin_wards", err)
			return
		}
		render.JSON(w, r, wards)
	}
}

func CreateWard(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ward := model.Ward{}
		err := render.DecodeJSON(r.Body, &ward)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		ward.NameEn = strings.TrimSpace(ward.NameEn)
		if ward.NameEn == "" {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.ward_name_en", "ward name is required")
			return
		}

		if err = app.Client.CreateWard(r.Context(), middlewares.Token(r), ward.NameEn); err != nil {
			httpx.LogUpstreamError(w, "api.create_ward", err)
			return
		}
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, ward)
	}
}

func AdminGetQuestions(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		questions, err := app.AdminQuestions(r.Context(), middlewares.Token(r), chi.URLParam(r, "ward"))
		if err != nil {
			httpx.LogUpstreamError(w, "api.admin_questions", err)
			return
		}
		render.JSON(w, r, questions)
	}
}

// SaveQuestions replaces the question set of a ward. Blank options are
// dropped and a question without text is rejected.
func SaveQuestions(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		questions := []model.Question{}
		err := render.DecodeJSON(r.Body, &questions)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		for i := range questions {
			q := &questions[i]
			q.Text = strings.TrimSpace(q.Text)
			if q.Text == "" {
				httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.question_text", "question %d has no text", i+1)
				return
			}
			q.Options = model.SplitOptions(strings.Join(q.Options, ","))
		}

		ward := chi.URLParam(r, "ward")
		if err = app.Client.SaveQuestions(r.Context(), middlewares.Token(r), ward, questions); err != nil {
			httpx.LogUpstreamError(w, "api.save_questions", err)
			return
		}
		render.JSON(w, r, questions)
	}
}

// WardLink builds the share link that opens the form on a given ward.
func WardLink(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		link := url.URL{
			Scheme: scheme,
			Host:   r.Host,
			Path:   "/w/" + chi.URLParam(r, "ward"),
		}
		render.JSON(w, r, map[string]string{
			"url": link.String(),
		})
	}
}

func GetResponses(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses, err := app.Responses(r.Context(), middlewares.Token(r))
		if err != nil {
			httpx.LogUpstreamError(w, "api.responses", err)
			return
		}
		render.JSON(w, r, analytics.Filter(responses, r.URL.Query().Get("q")))
	}
}

func GetAnalytics(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses, err := app.Responses(r.Context(), middlewares.Token(r))
		if err != nil {
			httpx.LogUpstreamError(w, "api.responses", err)
			return
		}
		render.JSON(w, r, analytics.Summarize(responses))
	}
}
