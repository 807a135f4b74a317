// Package sweep runs the background maintenance passes over the store:
// outbox age decay and stale typing-indicator cleanup.
package sweep

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/zmirror/zmirror/internal/action"
	"github.com/zmirror/zmirror/internal/dispatch"
	"github.com/zmirror/zmirror/internal/logging"
	"github.com/zmirror/zmirror/internal/models"
)

// Sweeper errors.
var (
	ErrSweeperAlreadyRunning = errors.New("sweeper already running")
	ErrSweeperNotRunning     = errors.New("sweeper not running")
)

// Config contains configuration for the sweeper.
type Config struct {
	// Interval is how often the sweep runs.
	// Default: 1m
	Interval time.Duration

	// OutboxDecayWindow forces transient outbox records older than this
	// into the terminal age status.
	// Default: 2h
	OutboxDecayWindow time.Duration

	// TypingStalenessWindow drops typing entries not refreshed within it.
	// Default: 15s
	TypingStalenessWindow time.Duration

	// SentAnomalyAfter is how long an outbox record may sit in the sent
	// status before the sweep logs it as an anomaly, measured from when
	// the sweep first observes the record in sent. The record is not
	// escalated: a late confirmation is still honored.
	// Default: 10s
	SentAnomalyAfter time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval:              time.Minute,
		OutboxDecayWindow:     2 * time.Hour,
		TypingStalenessWindow: 15 * time.Second,
		SentAnomalyAfter:      10 * time.Second,
	}
}

// Sweeper periodically dispatches maintenance actions. The timing is
// deliberately fuzzy: correctness never depends on a sweep firing at an
// exact moment, only on it firing eventually.
type Sweeper struct {
	config     Config
	dispatcher *dispatch.Dispatcher
	logger     zerolog.Logger

	// now is the clock; replaceable in tests.
	now func() time.Time

	mu      sync.Mutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	// sentSince is when the sweep first saw each record in the sent
	// status; the anomaly clock starts there, not at record creation.
	sentSince  map[int64]time.Time
	warnedSent map[int64]bool
}

// New creates a Sweeper over the given dispatcher.
func New(config Config, dispatcher *dispatch.Dispatcher) *Sweeper {
	def := DefaultConfig()
	if config.Interval <= 0 {
		config.Interval = def.Interval
	}
	if config.OutboxDecayWindow <= 0 {
		config.OutboxDecayWindow = def.OutboxDecayWindow
	}
	if config.TypingStalenessWindow <= 0 {
		config.TypingStalenessWindow = def.TypingStalenessWindow
	}
	if config.SentAnomalyAfter <= 0 {
		config.SentAnomalyAfter = def.SentAnomalyAfter
	}
	return &Sweeper{
		config:     config,
		dispatcher: dispatcher,
		logger:     logging.Component("sweep"),
		now:        time.Now,
		sentSince:  make(map[int64]time.Time),
		warnedSent: make(map[int64]bool),
	}
}

// Start begins the sweep loop.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrSweeperAlreadyRunning
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running = true

	s.logger.Info().
		Dur("interval", s.config.Interval).
		Dur("outbox_decay_window", s.config.OutboxDecayWindow).
		Dur("typing_staleness_window", s.config.TypingStalenessWindow).
		Msg("sweeper starting")

	s.wg.Add(1)
	go s.runLoop()
	return nil
}

// Stop halts the sweep loop.
func (s *Sweeper) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return ErrSweeperNotRunning
	}
	s.cancel()
	s.running = false
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info().Msg("sweeper stopped")
	return nil
}

// IsRunning returns true if the sweeper is running.
func (s *Sweeper) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Sweeper) runLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.SweepNow()
		}
	}
}

// SweepNow performs one maintenance pass immediately.
func (s *Sweeper) SweepNow() {
	now := s.now()
	state := s.dispatcher.State()

	// Outbox age decay.
	aged := 0
	for _, o := range state.Outbox {
		if o.Status.Terminal() {
			continue
		}
		age := now.Unix() - o.LocalMessageID
		if age >= int64(s.config.OutboxDecayWindow/time.Second) {
			aged++
		}
		if o.Status == models.OutboxStatusSent {
			since, seen := s.sentSince[o.LocalMessageID]
			switch {
			case !seen:
				s.sentSince[o.LocalMessageID] = now
			case now.Sub(since) >= s.config.SentAnomalyAfter && !s.warnedSent[o.LocalMessageID]:
				s.warnedSent[o.LocalMessageID] = true
				s.logger.Warn().
					Int64("local_message_id", o.LocalMessageID).
					Msg("outbox record stuck in sent; confirmation has not arrived")
			}
		}
	}
	if aged > 0 {
		s.dispatcher.Dispatch(action.OutboxAgeSweep{
			Now:           now.Unix(),
			WindowSeconds: int64(s.config.OutboxDecayWindow / time.Second),
		})
		s.logger.Info().Int("count", aged).Msg("decayed aged outbox records")
	}

	// Stale typing indicators.
	stale := state.Typing.StaleKeys(now.UnixMilli(), s.config.TypingStalenessWindow.Milliseconds())
	if len(stale) > 0 {
		s.dispatcher.Dispatch(action.ClearTyping{Keys: stale})
		s.logger.Debug().Int("count", len(stale)).Msg("cleared stale typing indicators")
	}

	// Forget sent tracking for records that were finalized, deleted or
	// otherwise left the sent status.
	for id := range s.sentSince {
		if o, ok := state.Outbox.Find(id); !ok || o.Status != models.OutboxStatusSent {
			delete(s.sentSince, id)
			delete(s.warnedSent, id)
		}
	}
}
