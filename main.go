package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/mbolis/field-survey/apiclient"
	"github.com/mbolis/field-survey/app"
	"github.com/mbolis/field-survey/capture"
	"github.com/mbolis/field-survey/config"
	"github.com/mbolis/field-survey/database"
	"github.com/mbolis/field-survey/events"
	"github.com/mbolis/field-survey/log"
	"github.com/mbolis/field-survey/model"
	"github.com/mbolis/field-survey/routes"
	"github.com/mbolis/field-survey/search"
	"github.com/mbolis/field-survey/survey"
)

func main() {
	cfg, err := config.ParseFlags()
	if err != nil {
		log.Fatal("main.config: ", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	db, err := database.Open(cfg.DBUrl)
	if err != nil {
		log.Fatal("main.db.open: ", err)
	}
	store := database.NewStore(db)

	locator, err := newLocator(cfg)
	if err != nil {
		log.Fatal("main.locator: ", err)
	}
	defaults, err := sessionDefaults(cfg, store)
	if err != nil {
		log.Fatal("main.operator: ", err)
	}

	client := apiclient.New(cfg.APIBaseURL, cfg.APITimeout)
	hub := events.NewHub()
	debouncer := search.NewDebouncer(client.SearchVoters, cfg.SearchDebounce, func(s search.State) {
		hub.Publish(events.TypeSearch, s)
	})

	geo := capture.DefaultOptions()
	geo.Timeout = cfg.GeoTimeout
	session := survey.New(survey.Options{
		Gateway:     client,
		Journal:     store,
		Microphone:  newMicrophone(cfg),
		AudioMime:   cfg.AudioMime,
		Locator:     locator,
		GeoOptions:  geo,
		ResetWindow: cfg.ResetWindow,
		Defaults:    defaults,
		Observer:    func(s survey.Snapshot) { hub.Publish(events.TypeSession, s) },
		OnReset:     debouncer.Reset,
	})
	hub.Publish(events.TypeSession, session.Snapshot())

	app := app.App{
		Client:  client,
		Store:   store,
		Session: session,
		Search:  debouncer,
		Events:  hub,
		Config:  cfg,
	}

	handler := routes.Wire(app)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = runServer(ctx, cfg, handler)
	if !errors.Is(err, http.ErrServerClosed) {
		log.Error("main.server: ", err)
	}

	var result *multierror.Error
	if err = session.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	debouncer.Reset()
	hub.Close()
	if err = db.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	if err = result.ErrorOrNil(); err != nil {
		log.Error("main.shutdown: ", err)
	}
}

func runServer(ctx context.Context, cfg config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("main.server.shutdown: ", err)
		}
	}()

	log.Info("Listening on " + cfg.Url())
	return srv.ListenAndServe()
}

func newLocator(cfg config.Config) (capture.Locator, error) {
	lat, lng, ok, err := cfg.Coordinates()
	if err != nil {
		return nil, err
	}
	if !ok {
		return capture.NoLocator{}, nil
	}
	return capture.StaticLocator{Position: &model.Location{Latitude: lat, Longitude: lng}}, nil
}

func newMicrophone(cfg config.Config) capture.Microphone {
	command := strings.Fields(cfg.AudioCommand)
	if len(command) == 0 {
		return capture.NoMicrophone{}
	}
	return capture.CommandMicrophone{Command: command}
}

// sessionDefaults seeds the form. A surveyor configured explicitly wins over
// the one remembered from the last submission.
func sessionDefaults(cfg config.Config, store *database.Store) (survey.Fields, error) {
	fields := survey.Fields{
		Assembly:       cfg.Assembly,
		SurveyorName:   cfg.SurveyorName,
		SurveyorMobile: cfg.SurveyorMobile,
	}
	if fields.SurveyorName != "" {
		return fields, nil
	}

	op, ok, err := store.LoadOperator(context.Background())
	if err != nil {
		return fields, err
	}
	if ok {
		fields.SurveyorName = op.SurveyorName
		fields.SurveyorMobile = op.SurveyorMobile
		log.WithFields(log.Fields{"surveyor": op.SurveyorName}).Info("restored operator")
	}
	return fields, nil
}
