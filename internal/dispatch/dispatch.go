// Package dispatch owns the store and applies actions to it serially.
package dispatch

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/zmirror/zmirror/internal/action"
	"github.com/zmirror/zmirror/internal/logging"
	"github.com/zmirror/zmirror/internal/store"
)

// Dispatcher errors.
var (
	ErrNilListener          = &Error{Message: "listener cannot be nil"}
	ErrSubscriptionExists   = &Error{Message: "subscription with this id already exists"}
	ErrSubscriptionNotFound = &Error{Message: "subscription not found"}
)

// Error is a dispatcher operation error.
type Error struct {
	Message string
}

func (e *Error) Error() string { return e.Message }

// Listener is invoked after an action has been applied, with the action
// and the state that resulted from it.
type Listener func(a action.Action, s store.State)

// Filter restricts which actions a listener sees.
type Filter struct {
	// Types filters by action type; nil means all actions.
	Types []action.Type
}

// Matches reports whether the filter admits the action.
func (f *Filter) Matches(a action.Action) bool {
	if len(f.Types) == 0 {
		return true
	}
	t := a.ActionType()
	for _, want := range f.Types {
		if t == want {
			return true
		}
	}
	return false
}

type subscription struct {
	id       string
	filter   Filter
	listener Listener
}

// Recorder receives every dispatched action; the journal implements it.
type Recorder interface {
	Record(a action.Action, resulting store.State)
}

// Dispatcher serializes all state changes: actions are applied one at a
// time, in call order, to a single store.State. The reducers themselves
// have no internal concurrency; this mutex is the whole dispatch loop.
// Event ordering across the account is the caller's contract — the
// dispatcher does not reorder or deduplicate.
type Dispatcher struct {
	mu    sync.Mutex
	state store.State

	subMu         sync.RWMutex
	subscriptions map[string]*subscription

	recorder Recorder
	logger   zerolog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithRecorder wires a journal-style recorder; recording is best effort
// and must not fail the dispatch.
func WithRecorder(r Recorder) Option {
	return func(d *Dispatcher) {
		d.recorder = r
	}
}

// WithInitialState seeds the dispatcher from a persisted snapshot.
func WithInitialState(s store.State) Option {
	return func(d *Dispatcher) {
		d.state = s
	}
}

// New creates a Dispatcher over a fresh store.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		state:         store.NewState(),
		subscriptions: make(map[string]*subscription),
		logger:        logging.Component("dispatch"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch applies one action and returns the resulting state. Listeners
// run outside the state lock, in the dispatching goroutine, after the
// state has been swapped; a listener that dispatches again simply queues
// behind other callers.
func (d *Dispatcher) Dispatch(a action.Action) store.State {
	d.mu.Lock()
	next := store.Reduce(d.state, a)
	d.state = next
	d.mu.Unlock()

	d.logger.Debug().Str("action", string(a.ActionType())).Msg("dispatched")

	d.notify(a, next)
	return next
}

// notify runs the recorder and the matching listeners for an applied
// action, outside the state lock.
func (d *Dispatcher) notify(a action.Action, next store.State) {
	if d.recorder != nil {
		d.recorder.Record(a, next)
	}

	d.subMu.RLock()
	var listeners []Listener
	for _, sub := range d.subscriptions {
		if sub.filter.Matches(a) {
			listeners = append(listeners, sub.listener)
		}
	}
	d.subMu.RUnlock()

	for _, l := range listeners {
		l(a, next)
	}
}

// State returns the current state.
func (d *Dispatcher) State() store.State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// NewMessage builds and dispatches an EventNewMessage action with the
// caught-up snapshot taken atomically with the state it is applied to.
func (d *Dispatcher) NewMessage(a action.EventNewMessage) store.State {
	d.mu.Lock()
	if a.CaughtUp == nil {
		a.CaughtUp = d.state.CaughtUpSnapshot()
	}
	next := store.Reduce(d.state, a)
	d.state = next
	d.mu.Unlock()

	d.notify(a, next)
	return next
}

// Subscribe registers a listener. An empty id gets a generated one; the
// effective id is returned for later unsubscription.
func (d *Dispatcher) Subscribe(id string, filter Filter, listener Listener) (string, error) {
	if listener == nil {
		return "", ErrNilListener
	}
	if id == "" {
		id = uuid.New().String()
	}

	d.subMu.Lock()
	defer d.subMu.Unlock()
	if _, exists := d.subscriptions[id]; exists {
		return "", ErrSubscriptionExists
	}
	d.subscriptions[id] = &subscription{id: id, filter: filter, listener: listener}
	return id, nil
}

// Unsubscribe removes a subscription by id.
func (d *Dispatcher) Unsubscribe(id string) error {
	d.subMu.Lock()
	defer d.subMu.Unlock()
	if _, exists := d.subscriptions[id]; !exists {
		return ErrSubscriptionNotFound
	}
	delete(d.subscriptions, id)
	return nil
}

// SubscriberCount returns the number of active subscriptions.
func (d *Dispatcher) SubscriberCount() int {
	d.subMu.RLock()
	defer d.subMu.RUnlock()
	return len(d.subscriptions)
}

// Close removes all subscriptions.
func (d *Dispatcher) Close() {
	d.subMu.Lock()
	defer d.subMu.Unlock()
	d.subscriptions = make(map[string]*subscription)
}
