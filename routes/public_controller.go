package routes

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/mbolis/field-survey/app"
	"github.com/mbolis/field-survey/httpx"
	"github.com/mbolis/field-survey/log"
	"github.com/mbolis/field-survey/search"
	"github.com/mbolis/field-survey/survey"
)

const defaultHistoryLimit = 20

func GetWards(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wards, err := app.Wards(r.Context())
		if err != nil {
			httpx.LogUpstreamError(w, "api.get_wards", err)
			return
		}
		render.JSON(w, r, wards)
	}
}

func GetQuestions(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		questions, err := app.Questions(r.Context(), chi.URLParam(r, "ward"))
		if err != nil {
			httpx.LogUpstreamError(w, "api.get_questions", err)
			return
		}
		render.JSON(w, r, questions)
	}
}

func GetBooths(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wardId, err := strconv.Atoi(r.URL.Query().Get("ward_id"))
		if err != nil || wardId <= 0 {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_query_param.ward_id")
			return
		}

		booths, err := app.Booths(r.Context(), wardId)
		if err != nil {
			httpx.LogUpstreamError(w, "api.get_booths", err)
			return
		}
		render.JSON(w, r, booths)
	}
}

func GetSession(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, app.Session.Snapshot())
	}
}

func StartSession(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := app.Session.Start(r.Context()); err != nil {
			sessionError(w, "session.start", err)
			return
		}
		app.Search.Reset()
		render.JSON(w, r, app.Session.Snapshot())
	}
}

func AbandonSession(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := app.Session.Abandon(); err != nil {
			sessionError(w, "session.abandon", err)
			return
		}
		render.JSON(w, r, app.Session.Snapshot())
	}
}

func SubmitSession(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := app.Session.Submit(r.Context()); err != nil {
			sessionError(w, "session.submit", err)
			return
		}
		render.JSON(w, r, app.Session.Snapshot())
	}
}

func RetryLocation(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := app.Session.RetryLocation(r.Context()); err != nil {
			sessionError(w, "session.location", err)
			return
		}
		render.Status(r, http.StatusAccepted)
		render.JSON(w, r, app.Session.Snapshot())
	}
}

type wardRequest struct {
	Ward string `json:"ward"`
}

func SelectWard(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := wardRequest{}
		err := render.DecodeJSON(r.Body, &body)
		if err != nil || body.Ward == "" {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		ward, ok, err := app.Ward(r.Context(), body.Ward)
		if err != nil {
			httpx.LogUpstreamError(w, "api.get_wards", err)
			return
		}
		if !ok {
			httpx.LogNotFound(w, "session.ward", body.Ward)
			return
		}
		questions, err := app.Questions(r.Context(), ward.NameEn)
		if err != nil {
			httpx.LogUpstreamError(w, "api.get_questions", err)
			return
		}

		if err = app.Session.SelectWard(ward, questions); err != nil {
			sessionError(w, "session.ward", err)
			return
		}
		render.JSON(w, r, app.Session.Snapshot())
	}
}

type boothRequest struct {
	ID int `json:"id"`
}

func SelectBooth(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := boothRequest{}
		err := render.DecodeJSON(r.Body, &body)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		wardId := app.Session.Snapshot().Fields.GbaWardID
		if wardId <= 0 {
			httpx.LogStatusMsg(w, http.StatusConflict, log.DebugLevel, "session.booth", "select a ward first")
			return
		}
		booths, err := app.Booths(r.Context(), wardId)
		if err != nil {
			httpx.LogUpstreamError(w, "api.get_booths", err)
			return
		}

		for _, b := range booths {
			if b.ID != body.ID {
				continue
			}
			if err = app.Session.SelectBooth(b); err != nil {
				sessionError(w, "session.booth", err)
				return
			}
			render.JSON(w, r, app.Session.Snapshot())
			return
		}
		httpx.LogNotFound(w, "session.booth", body.ID)
	}
}

type valueRequest struct {
	Value string `json:"value"`
}

func UpdateField(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		field, err := survey.ParseField(chi.URLParam(r, "field"))
		if err != nil {
			httpx.LogNotFound(w, "session.field", chi.URLParam(r, "field"))
			return
		}
		body := valueRequest{}
		if err = render.DecodeJSON(r.Body, &body); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		if err = app.Session.UpdateField(field, body.Value); err != nil {
			sessionError(w, "session.field", err)
			return
		}
		render.JSON(w, r, app.Session.Snapshot())
	}
}

type answerRequest struct {
	Question string `json:"question"`
	Option   string `json:"option"`
}

func UpdateAnswer(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := answerRequest{}
		if err := render.DecodeJSON(r.Body, &body); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		if err := app.Session.UpdateDynamicAnswer(body.Question, body.Option); err != nil {
			sessionError(w, "session.answer", err)
			return
		}
		render.JSON(w, r, app.Session.Snapshot())
	}
}

func GetHistory(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultHistoryLimit
		if s := r.URL.Query().Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 {
				httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_query_param.limit")
				return
			}
			limit = n
		}

		attempts, err := app.RecentAttempts(r.Context(), limit)
		if err != nil {
			httpx.LogInternalError(w, "db.recent_attempts", err)
			return
		}
		render.JSON(w, r, attempts)
	}
}

type voterRequest struct {
	Text string `json:"text"`
}

// SearchVoter writes the typed text into the interviewer name and schedules
// a voter lookup for it.
func SearchVoter(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := voterRequest{}
		if err := render.DecodeJSON(r.Body, &body); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		if err := app.Session.UpdateField(survey.FieldInterviewerName, body.Text); err != nil {
			sessionError(w, "session.voter", err)
			return
		}
		app.Search.Query(body.Text, app.Session.Snapshot().Fields.GbaWardID)

		render.Status(r, http.StatusAccepted)
		render.JSON(w, r, app.Search.State())
	}
}

func GetSuggestions(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, app.Search.State())
	}
}

func SelectSuggestion(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index, err := strconv.Atoi(chi.URLParam(r, "index"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.index")
			return
		}

		// a rejected pick must leave the list on screen
		if app.Session.Status() != survey.StatusActive {
			sessionError(w, "session.suggestion", survey.ErrInvalidState)
			return
		}
		picked, err := app.Search.Select(index)
		if errors.Is(err, search.ErrNoSuggestion) {
			httpx.LogNotFound(w, "session.suggestion", index)
			return
		}
		if err = app.Session.UpdateField(survey.FieldInterviewerName, picked.NameEn); err != nil {
			sessionError(w, "session.suggestion", err)
			return
		}
		render.JSON(w, r, app.Session.Snapshot())
	}
}

func DismissSuggestions(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		app.Search.Dismiss()
		render.JSON(w, r, app.Search.State())
	}
}

func sessionError(w http.ResponseWriter, code string, err error) {
	switch {
	case errors.Is(err, survey.ErrSubmitFailed):
		httpx.LogUpstreamError(w, code, err)
	case errors.Is(err, survey.ErrInvalidState), errors.Is(err, survey.ErrSubmitInFlight):
		httpx.LogStatusMsg(w, http.StatusConflict, log.DebugLevel, code, "%s", err)
	case errors.Is(err, survey.ErrUnknownField),
		errors.Is(err, survey.ErrInvalidValue),
		errors.Is(err, survey.ErrUnknownQuestion),
		errors.Is(err, survey.ErrUnknownOption):
		httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, code, "%s", err)
	default:
		httpx.LogInternalError(w, code, err)
	}
}
