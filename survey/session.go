// Package survey implements the survey session lifecycle:
//
//	Idle -> Active -> Submitting -> Completed -> Idle
//	                       \-> Active (failed, answers kept)
//
// Starting a session fires geolocation and audio capture without waiting for
// either; both are best effort and never block submission.
package survey

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gofrs/uuid"

	"github.com/mbolis/field-survey/apiclient"
	"github.com/mbolis/field-survey/capture"
	"github.com/mbolis/field-survey/log"
	"github.com/mbolis/field-survey/model"
)

type Status string

const (
	StatusIdle       Status = "idle"
	StatusActive     Status = "active"
	StatusSubmitting Status = "submitting"
	StatusCompleted  Status = "completed"
)

const (
	DefaultResetWindow = 3 * time.Second

	MessageSubmitted   = "Survey submitted successfully!"
	MessageMicDenied   = "Microphone access denied. Some features may not work."
	MessageNoMicDevice = "Audio recording not supported on this device. Survey will continue without audio."
)

// Gateway delivers a finished survey to the backend.
type Gateway interface {
	SubmitSurvey(ctx context.Context, payload model.SurveyPayload) error
}

// Journal keeps a local record of submissions and the operator identity.
type Journal interface {
	RecordAttempt(ctx context.Context, attempt model.SubmissionAttempt) error
	SaveOperator(ctx context.Context, op model.Operator) error
}

type Options struct {
	Gateway    Gateway
	Journal    Journal
	Microphone capture.Microphone
	AudioMime  string
	Locator    capture.Locator
	GeoOptions capture.Options
	// How long a completed survey stays on screen before the reset.
	ResetWindow time.Duration
	// Initial field values: assembly, surveyor identity.
	Defaults Fields
	// Called with a fresh snapshot after every change, one call at a time and
	// in version order. A snapshot overtaken by a newer one is skipped. Must
	// not call back into the session synchronously.
	Observer func(Snapshot)
	// Called after the session returns to Idle.
	OnReset func()
}

type Snapshot struct {
	SessionID      string            `json:"sessionId,omitempty"`
	Status         Status            `json:"status"`
	Fields         Fields            `json:"fields"`
	DynamicAnswers map[string]string `json:"dynamicAnswers"`
	Questions      []model.Question  `json:"questions"`
	Location       *model.Location   `json:"location"`
	Recording      bool              `json:"recording"`
	HasAudio       bool              `json:"hasAudio"`
	Warnings       []string          `json:"warnings"`
	Message        string            `json:"message,omitempty"`
	LastError      string            `json:"lastError,omitempty"`
	Outcome        model.Outcome     `json:"outcome,omitempty"`
	// Increases with every change; a consumer can discard anything older
	// than what it already holds.
	Version        uint64            `json:"version"`
}

type Session struct {
	opts Options

	ctx    context.Context
	cancel context.CancelFunc
	tasks  sync.WaitGroup

	mu         sync.Mutex
	id         uuid.UUID
	status     Status
	fields     Fields
	answers    map[string]string
	questions  []model.Question
	location   *model.Location
	audio      *string
	recorder   *capture.Recorder
	recording  bool
	warnings   []string
	message    string
	lastError  string
	outcome    model.Outcome
	resetTimer *time.Timer
	version    uint64

	// serializes observer calls so snapshots are delivered in version order
	notifyMu  sync.Mutex
	delivered uint64
}

func New(opts Options) *Session {
	if opts.Microphone == nil {
		opts.Microphone = capture.NoMicrophone{}
	}
	if opts.Locator == nil {
		opts.Locator = capture.NoLocator{}
	}
	if opts.GeoOptions.Timeout <= 0 {
		opts.GeoOptions = capture.DefaultOptions()
	}
	if opts.ResetWindow <= 0 {
		opts.ResetWindow = DefaultResetWindow
	}
	if opts.AudioMime == "" {
		opts.AudioMime = "audio/webm"
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		opts:    opts,
		ctx:     ctx,
		cancel:  cancel,
		status:  StatusIdle,
		fields:  opts.Defaults,
		answers: map[string]string{},
	}
}

// Start begins a survey. Location and audio capture run in the background;
// their failures only add a warning.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.status != StatusIdle {
		s.mu.Unlock()
		return ErrInvalidState
	}
	id, err := uuid.NewV4()
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("survey: session id: %w", err)
	}
	s.id = id
	s.status = StatusActive
	s.location = nil
	s.audio = nil
	s.warnings = nil
	s.message = ""
	s.lastError = ""
	s.outcome = ""
	rec := capture.NewRecorder(s.opts.Microphone, s.opts.AudioMime)
	s.recorder = rec
	snap := s.changed()
	s.mu.Unlock()

	log.WithFields(log.Fields{"session": id}).Info("survey.start")
	s.notify(snap)

	s.spawn(func() { s.captureLocation(id) })
	s.spawn(func() { s.captureAudio(id, rec) })
	return nil
}

func (s *Session) spawn(task func()) {
	s.tasks.Add(1)
	go func() {
		defer s.tasks.Done()
		task()
	}()
}

func (s *Session) captureLocation(id uuid.UUID) {
	loc, err := capture.Capture(s.ctx, s.opts.Locator, s.opts.GeoOptions)

	s.mu.Lock()
	if s.id != id || s.status == StatusIdle {
		s.mu.Unlock()
		return
	}
	if err != nil {
		s.warnings = append(s.warnings, capture.LocationMessage(err))
	} else {
		s.location = &loc
	}
	snap := s.changed()
	s.mu.Unlock()

	if err != nil {
		log.WithFields(log.Fields{"session": id, "code": capture.CodeOf(err)}).Warn("survey.location: ", err)
	}
	s.notify(snap)
}

func (s *Session) captureAudio(id uuid.UUID, rec *capture.Recorder) {
	err := rec.Acquire(s.ctx)
	if err == nil {
		err = rec.Start()
	}
	if errors.Is(err, capture.ErrRecorderStopped) {
		// submitted or abandoned before the microphone came up
		return
	}

	s.mu.Lock()
	if s.id != id || s.recorder != rec {
		s.mu.Unlock()
		if err == nil {
			rec.Release()
		}
		return
	}
	if s.status != StatusActive {
		// a submission took over the recorder
		s.mu.Unlock()
		return
	}
	if err != nil {
		if errors.Is(err, capture.ErrUnsupported) {
			s.warnings = append(s.warnings, MessageNoMicDevice)
		} else {
			s.warnings = append(s.warnings, MessageMicDenied)
		}
	} else {
		s.recording = true
	}
	snap := s.changed()
	s.mu.Unlock()

	if err != nil {
		log.WithFields(log.Fields{"session": id, "code": capture.CodeOf(err)}).Warn("survey.audio: ", err)
	}
	s.notify(snap)
}

// RetryLocation asks for a new position fix. A successful fix replaces the
// previous one.
func (s *Session) RetryLocation(ctx context.Context) error {
	s.mu.Lock()
	if s.status != StatusActive {
		s.mu.Unlock()
		return ErrInvalidState
	}
	id := s.id
	s.mu.Unlock()

	s.spawn(func() { s.captureLocation(id) })
	return nil
}

func (s *Session) UpdateField(field Field, value string) error {
	return s.mutate(func() error {
		if s.status != StatusActive {
			return ErrInvalidState
		}
		return s.fields.Set(field, value)
	})
}

// UpdateDynamicAnswer records the option chosen for a dynamic question. Once
// a ward's questions are loaded, only their texts and options are accepted;
// before that any answer is kept as given. An empty option clears the answer.
func (s *Session) UpdateDynamicAnswer(questionText, option string) error {
	return s.mutate(func() error {
		if s.status != StatusActive {
			return ErrInvalidState
		}
		if questionText == "" {
			return fmt.Errorf("%w: %q", ErrUnknownQuestion, questionText)
		}
		if option == "" {
			delete(s.answers, questionText)
			return nil
		}
		if len(s.questions) > 0 {
			q, ok := s.question(questionText)
			if !ok {
				return fmt.Errorf("%w: %q", ErrUnknownQuestion, questionText)
			}
			if !q.HasOption(option) {
				return fmt.Errorf("%w: %q", ErrUnknownOption, option)
			}
		}
		s.answers[questionText] = option
		return nil
	})
}

// SelectWard sets the ward context and the ward's questions. Answers given
// for a previous ward stay in the session but are not submitted.
func (s *Session) SelectWard(ward model.Ward, questions []model.Question) error {
	return s.mutate(func() error {
		if s.status != StatusIdle && s.status != StatusActive {
			return ErrInvalidState
		}
		s.fields.GbaWard = ward.NameEn
		s.fields.GbaWardID = ward.ID
		s.questions = append([]model.Question(nil), questions...)
		return nil
	})
}

func (s *Session) SelectBooth(booth model.Booth) error {
	return s.mutate(func() error {
		if s.status != StatusIdle && s.status != StatusActive {
			return ErrInvalidState
		}
		s.fields.PollingStationName = booth.AddressEn
		s.fields.PollingStationID = booth.ID
		if booth.Number != "" {
			s.fields.PollingStationNumber = booth.Number
		}
		return nil
	})
}

func (s *Session) mutate(fn func() error) error {
	s.mu.Lock()
	if err := fn(); err != nil {
		s.mu.Unlock()
		return err
	}
	snap := s.changed()
	s.mu.Unlock()

	s.notify(snap)
	return nil
}

// Submit stops the recording, waits for the audio to be encoded and sends
// the survey. Only one submission may be in flight; a concurrent call gets
// ErrSubmitInFlight and issues no request. The request is not cancelled when
// ctx is, it is bounded by the gateway's own timeout.
func (s *Session) Submit(ctx context.Context) error {
	s.mu.Lock()
	switch s.status {
	case StatusActive:
	case StatusSubmitting:
		s.mu.Unlock()
		return ErrSubmitInFlight
	default:
		s.mu.Unlock()
		return ErrInvalidState
	}
	s.status = StatusSubmitting
	s.lastError = ""
	s.recording = false
	id := s.id
	rec := s.recorder
	snap := s.changed()
	s.mu.Unlock()
	s.notify(snap)

	ctx = context.WithoutCancel(ctx)
	logger := log.WithFields(log.Fields{"session": id})

	if rec != nil {
		audio, err := rec.Stop(ctx)
		if err != nil {
			logger.Warn("survey.submit.audio: ", err)
		}
		if audio != nil {
			s.mu.Lock()
			s.audio = audio
			s.mu.Unlock()
		}
	}

	s.mu.Lock()
	payload, err := s.payload()
	s.mu.Unlock()
	if err == nil {
		err = s.opts.Gateway.SubmitSurvey(ctx, payload)
	}

	attempt := model.SubmissionAttempt{
		SessionID:       id.String(),
		Time:            time.Now(),
		InterviewerName: payload.InterviewerName,
		Ward:            payload.GbaWard,
	}

	s.mu.Lock()
	if err != nil {
		s.status = StatusActive
		s.lastError = apiclient.UserMessage(err)
		s.outcome = model.OutcomeFailed
		attempt.Outcome = model.OutcomeFailed
		attempt.Message = s.lastError
	} else {
		s.status = StatusCompleted
		s.message = MessageSubmitted
		s.outcome = model.OutcomeSubmitted
		attempt.Outcome = model.OutcomeSubmitted
		s.resetTimer = time.AfterFunc(s.opts.ResetWindow, func() { s.completeReset(id) })
	}
	operator := model.Operator{SurveyorName: s.fields.SurveyorName, SurveyorMobile: s.fields.SurveyorMobile}
	snap = s.changed()
	s.mu.Unlock()
	s.notify(snap)

	s.journal(ctx, attempt, operator)

	if err != nil {
		logger.Warn("survey.submit: ", err)
		return fmt.Errorf("%w: %w", ErrSubmitFailed, err)
	}
	logger.Info("survey.submit.ok")
	return nil
}

func (s *Session) journal(ctx context.Context, attempt model.SubmissionAttempt, operator model.Operator) {
	if s.opts.Journal == nil {
		return
	}
	attempt.ID = uuid.Must(uuid.NewV4()).String()
	if err := s.opts.Journal.RecordAttempt(ctx, attempt); err != nil {
		log.Error("survey.journal.record: ", err)
	}
	if attempt.Outcome != model.OutcomeSubmitted {
		return
	}
	if err := s.opts.Journal.SaveOperator(ctx, operator); err != nil {
		log.Error("survey.journal.operator: ", err)
	}
}

func (s *Session) completeReset(id uuid.UUID) {
	s.mu.Lock()
	if s.id != id || s.status != StatusCompleted {
		s.mu.Unlock()
		return
	}
	s.resetLocked()
	snap := s.changed()
	s.mu.Unlock()

	s.afterReset(snap)
}

// Abandon discards the current survey and releases the microphone.
func (s *Session) Abandon() error {
	s.mu.Lock()
	switch s.status {
	case StatusIdle:
		s.mu.Unlock()
		return nil
	case StatusSubmitting:
		s.mu.Unlock()
		return ErrSubmitInFlight
	}
	rec := s.recorder
	id := s.id
	s.resetLocked()
	snap := s.changed()
	s.mu.Unlock()

	if rec != nil {
		if err := rec.Release(); err != nil {
			log.WithFields(log.Fields{"session": id}).Warn("survey.abandon.release: ", err)
		}
	}
	log.WithFields(log.Fields{"session": id}).Info("survey.abandon")
	s.afterReset(snap)
	return nil
}

// resetLocked returns the session to Idle. Callers hold s.mu.
func (s *Session) resetLocked() {
	if s.resetTimer != nil {
		s.resetTimer.Stop()
		s.resetTimer = nil
	}
	s.status = StatusIdle
	s.fields = s.fields.resetForNextSurvey()
	s.answers = map[string]string{}
	s.location = nil
	s.audio = nil
	s.recorder = nil
	s.recording = false
	s.warnings = nil
	s.message = ""
	s.lastError = ""
}

func (s *Session) afterReset(snap Snapshot) {
	s.notify(snap)
	if s.opts.OnReset != nil {
		s.opts.OnReset()
	}
}

// Close releases the microphone and waits for background captures. The
// session must not be used afterwards.
func (s *Session) Close() error {
	s.cancel()

	s.mu.Lock()
	if s.resetTimer != nil {
		s.resetTimer.Stop()
	}
	rec := s.recorder
	s.mu.Unlock()

	var err error
	if rec != nil {
		err = rec.Release()
	}
	s.tasks.Wait()
	return err
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Audio returns the encoded recording, if one has been produced.
func (s *Session) Audio() *string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.audio
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// changed records a new version of the state and returns its snapshot.
// Callers hold s.mu.
func (s *Session) changed() Snapshot {
	s.version++
	return s.snapshot()
}

func (s *Session) snapshot() Snapshot {
	snap := Snapshot{
		Version:        s.version,
		Status:         s.status,
		Fields:         s.fields,
		DynamicAnswers: make(map[string]string, len(s.answers)),
		Questions:      append([]model.Question{}, s.questions...),
		Recording:      s.recording,
		HasAudio:       s.audio != nil,
		Warnings:       append([]string{}, s.warnings...),
		Message:        s.message,
		LastError:      s.lastError,
		Outcome:        s.outcome,
	}
	if s.status != StatusIdle {
		snap.SessionID = s.id.String()
	}
	for k, v := range s.answers {
		snap.DynamicAnswers[k] = v
	}
	if s.location != nil {
		loc := *s.location
		snap.Location = &loc
	}
	return snap
}

func (s *Session) question(text string) (model.Question, bool) {
	for _, q := range s.questions {
		if q.Text == text {
			return q, true
		}
	}
	return model.Question{}, false
}

// notify hands snap to the observer unless a newer snapshot already went
// out.
func (s *Session) notify(snap Snapshot) {
	if s.opts.Observer == nil {
		return
	}
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	if snap.Version <= s.delivered {
		return
	}
	s.delivered = snap.Version
	s.opts.Observer(snap)
}
