// Package search implements the voter-name autocomplete: a debounced remote
// lookup where only the most recent query may populate the suggestions.
package search

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/mbolis/field-survey/log"
	"github.com/mbolis/field-survey/model"
)

const DefaultDelay = 150 * time.Millisecond

// Lookup queries the voter roll. wardID 0 means no ward filter.
type Lookup func(ctx context.Context, text string, wardID int) ([]model.VoterSuggestion, error)

type State struct {
	Query       string                  `json:"query"`
	Suggestions []model.VoterSuggestion `json:"suggestions"`
	Visible     bool                    `json:"visible"`
	Version     uint64                  `json:"version"`
}

var ErrNoSuggestion = errors.New("search: no such suggestion")

type Debouncer struct {
	lookup   Lookup
	delay    time.Duration
	onChange func(State)

	mu          sync.Mutex
	seq         uint64
	timer       *time.Timer
	cancel      context.CancelFunc
	query       string
	suggestions []model.VoterSuggestion
	visible     bool
	version     uint64

	notifyMu  sync.Mutex
	delivered uint64
}

// NewDebouncer creates a debouncer. onChange, if not nil, is called with the
// new state every time the suggestion list changes, one call at a time and in
// version order; a state overtaken by a newer one is skipped. It must not
// call back into the debouncer.
func NewDebouncer(lookup Lookup, delay time.Duration, onChange func(State)) *Debouncer {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Debouncer{lookup: lookup, delay: delay, onChange: onChange}
}

// Query schedules a lookup for text once input has been quiet for the
// debounce delay. Any pending or in-flight lookup is superseded.
func (d *Debouncer) Query(text string, wardID int) {
	d.mu.Lock()
	seq := d.supersede()
	d.query = text

	if strings.TrimSpace(text) == "" {
		d.suggestions = nil
		d.visible = false
		state := d.changed()
		d.mu.Unlock()
		d.notify(state)
		return
	}

	d.timer = time.AfterFunc(d.delay, func() { d.fire(seq, text, wardID) })
	d.mu.Unlock()
}

// supersede invalidates pending work and returns the new sequence number.
// Callers hold d.mu.
func (d *Debouncer) supersede() uint64 {
	d.seq++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	return d.seq
}

func (d *Debouncer) fire(seq uint64, text string, wardID int) {
	d.mu.Lock()
	if seq != d.seq {
		d.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.mu.Unlock()

	results, err := d.lookup(ctx, text, wardID)
	cancel()

	d.mu.Lock()
	if seq != d.seq {
		d.mu.Unlock()
		log.WithFields(log.Fields{"query": text}).Debug("search.stale_result")
		return
	}
	d.cancel = nil
	if err != nil {
		d.mu.Unlock()
		log.WithError(err).WithField("query", text).Warn("search.lookup")
		return
	}
	d.suggestions = results
	d.visible = len(results) > 0
	state := d.changed()
	d.mu.Unlock()

	d.notify(state)
}

// Select picks a suggestion, hides the list and returns the canonical
// display name for the caller to write into the name field.
func (d *Debouncer) Select(index int) (model.VoterSuggestion, error) {
	d.mu.Lock()
	if index < 0 || index >= len(d.suggestions) {
		d.mu.Unlock()
		return model.VoterSuggestion{}, ErrNoSuggestion
	}
	picked := d.suggestions[index]
	d.supersede()
	d.query = picked.NameEn
	d.suggestions = nil
	d.visible = false
	state := d.changed()
	d.mu.Unlock()

	d.notify(state)
	return picked, nil
}

// Dismiss hides the suggestions, e.g. on an interaction outside the widget.
func (d *Debouncer) Dismiss() {
	d.mu.Lock()
	if !d.visible {
		d.mu.Unlock()
		return
	}
	d.visible = false
	state := d.changed()
	d.mu.Unlock()

	d.notify(state)
}

// Reset cancels pending work and clears the query and suggestions.
func (d *Debouncer) Reset() {
	d.mu.Lock()
	d.supersede()
	d.query = ""
	d.suggestions = nil
	d.visible = false
	state := d.changed()
	d.mu.Unlock()

	d.notify(state)
}

func (d *Debouncer) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state()
}

// changed bumps the version and returns the new state. Callers hold d.mu.
func (d *Debouncer) changed() State {
	d.version++
	return d.state()
}

func (d *Debouncer) state() State {
	suggestions := make([]model.VoterSuggestion, len(d.suggestions))
	copy(suggestions, d.suggestions)
	return State{Query: d.query, Suggestions: suggestions, Visible: d.visible, Version: d.version}
}

func (d *Debouncer) notify(state State) {
	if d.onChange == nil {
		return
	}
	d.notifyMu.Lock()
	defer d.notifyMu.Unlock()
	if state.Version <= d.delivered {
		return
	}
	d.delivered = state.Version
	d.onChange(state)
}
