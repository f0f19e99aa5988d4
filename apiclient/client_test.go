package apiclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbolis/field-survey/model"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", time.Second)
}

func TestSubmitSurvey(t *testing.T) {
	var got map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/surveys", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	})

	lat := 12.5
	err := client.SubmitSurvey(context.Background(), model.SurveyPayload{
		InterviewerName: "Asha",
		Latitude:        &lat,
		DynamicAnswers:  `{"Q1":"OptionA"}`,
	})
	require.NoError(t, err)

	assert.Equal(t, "Asha", got["interviewerName"])
	assert.Equal(t, 12.5, got["latitude"])
	assert.Nil(t, got["longitude"])
	assert.Contains(t, got, "audio_base64")
	assert.Nil(t, got["audio_base64"])
	assert.Equal(t, `{"Q1":"OptionA"}`, got["dynamicAnswers"])
}

func TestSubmitSurveyApplicationError(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"message body", http.StatusBadRequest, `{"message":"Invalid mobile number"}`, "Error: Invalid mobile number"},
		{"detail body", http.StatusUnprocessableEntity, `{"detail":"ward missing"}`, "Error: ward missing"},
		{"no body", http.StatusInternalServerError, ``, "Error: Request failed with status code 500"},
		{"html body", http.StatusBadGateway, `<html>bad gateway</html>`, "Error: Request failed with status code 502"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})

			err := client.SubmitSurvey(context.Background(), model.SurveyPayload{})
			var appErr *ApplicationError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.status, appErr.Status)
			assert.Equal(t, tt.message, UserMessage(err))
			assert.Equal(t, tt.status, StatusCode(err))
		})
	}
}

func TestSubmitSurveyNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	client := New(srv.URL, time.Second)
	srv.Close()

	err := client.SubmitSurvey(context.Background(), model.SurveyPayload{})
	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, GenericFailureMessage, UserMessage(err))
	assert.Zero(t, StatusCode(err))
}

func TestSubmitSurveyTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	// unblock the handler before Close waits for it
	defer close(release)
	client := New(srv.URL, 20*time.Millisecond)

	err := client.SubmitSurvey(context.Background(), model.SurveyPayload{})
	var netErr *NetworkError
	assert.ErrorAs(t, err, &netErr)
}

func TestQuestionsSplitsOptionsAndCaches(t *testing.T) {
	var hits int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		assert.Equal(t, "/wards/KR Puram/questions", r.URL.Path)
		io.WriteString(w, `[
			{"id":1,"text":"Road quality?","options":"Good, Bad ,,Average"},
			{"id":2,"text":"Water?","options":["Yes","No"]},
			{"id":3,"text":"Open","options":null}
		]`)
	})

	for i := 0; i < 2; i++ {
		questions, err := client.Questions(context.Background(), "KR Puram")
		require.NoError(t, err)
		require.Len(t, questions, 3)
		assert.Equal(t, []string{"Good", "Bad", "Average"}, questions[0].Options)
		assert.Equal(t, []string{"Yes", "No"}, questions[1].Options)
		assert.Empty(t, questions[2].Options)
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
}

func TestWardsAndLookup(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wards", r.URL.Path)
		io.WriteString(w, `[{"id":3,"ward_name_en":"Devasandra","ward_name_local":"ದೇವಸಂದ್ರ"}]`)
	})

	ward, ok, err := client.Ward(context.Background(), "Devasandra")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.Ward{ID: 3, NameEn: "Devasandra", NameLocal: "ದೇವಸಂದ್ರ"}, ward)

	_, ok, err = client.Ward(context.Background(), "Nowhere")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBooths(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/booths", r.URL.Path)
		assert.Equal(t, "3", r.URL.Query().Get("ward_id"))
		io.WriteString(w, `[{"id":9,"booth_no":"9","booth_add_en":"Gvt High School","ward_id":3}]`)
	})

	booths, err := client.Booths(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, booths, 1)
	assert.Equal(t, "Gvt High School", booths[0].AddressEn)
}

func TestSearchVoters(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/voters/search", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "asha r", q.Get("q"))
		if q.Has("ward_id") {
			assert.Equal(t, "4", q.Get("ward_id"))
		}
		io.WriteString(w, `[{"name_en":"Asha Rani","epic":"ABC123","house":"4-12"}]`)
	})

	voters, err := client.SearchVoters(context.Background(), "asha r", 4)
	require.NoError(t, err)
	assert.Equal(t, []model.VoterSuggestion{{NameEn: "Asha Rani", EPIC: "ABC123", House: "4-12"}}, voters)

	_, err = client.SearchVoters(context.Background(), "asha r", 0)
	require.NoError(t, err)
}

func TestAdminCallsCarryToken(t *testing.T) {
	var saved []map[string]any
	var questionGets int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/wards/Devasandra/questions" {
			atomic.AddInt32(&questionGets, 1)
			io.WriteString(w, `[]`)
			return
		}
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.Method + " " + r.URL.Path {
		case "POST /api/wards":
			var body map[string]string
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "Devasandra", body["ward_name_en"])
		case "POST /api/wards/Devasandra/questions":
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&saved))
		case "GET /api/responses":
			io.WriteString(w, `[{"id":1,"q1":"bjp","gba_ward":"Devasandra","created_at":"2025-01-02T10:00:00"}]`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ctx := context.Background()

	require.NoError(t, client.CreateWard(ctx, "tok", "Devasandra"))

	_, err := client.Questions(ctx, "Devasandra")
	require.NoError(t, err)
	require.NoError(t, client.SaveQuestions(ctx, "tok", "Devasandra", []model.Question{
		{Text: "Road quality?", Options: []string{"Good", "Bad"}},
		{Text: "Comments"},
	}))
	// saving drops the cached public question list
	_, err = client.Questions(ctx, "Devasandra")
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&questionGets))

	require.Len(t, saved, 2)
	assert.Equal(t, "Road quality?", saved[0]["text"])
	assert.Equal(t, []any{"Good", "Bad"}, saved[0]["options"])
	assert.Equal(t, []any{}, saved[1]["options"])

	responses, err := client.Responses(ctx, "tok")
	require.NoError(t, err)
	require.Len(t, responses, 1)
	assert.Equal(t, "bjp", *responses[0].Q1)

	_, err = client.Responses(ctx, "wrong")
	assert.True(t, IsUnauthorized(err))
}
