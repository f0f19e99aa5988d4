package app

import (
	"github.com/mbolis/field-survey/apiclient"
	"github.com/mbolis/field-survey/config"
	"github.com/mbolis/field-survey/database"
	"github.com/mbolis/field-survey/events"
	"github.com/mbolis/field-survey/search"
	"github.com/mbolis/field-survey/survey"
)

type App struct {
	*apiclient.Client
	*database.Store
	Session *survey.Session
	Search  *search.Debouncer
	Events  *events.Hub
	config.Config
}
