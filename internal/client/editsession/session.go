// Package editsession edits one setting field with debounced auto-save.
//
// A session starts in viewing. Begin moves it to editing; every Change
// re-arms the debounce timer and, once it fires, the value is validated and
// committed. A successful commit shows saved for a short while and returns to
// editing. A failed commit shows error and falls back to the last committed
// value.
package editsession

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

type State string

const (
	StateViewing State = "viewing"
	StateEditing State = "editing"
	StateSaving  State = "saving"
	StateSaved   State = "saved"
	StateError   State = "error"
)

var (
	ErrNotEditable = errors.New("only space admins can edit this field")
	ErrNotEditing  = errors.New("session is not editing")
)

const (
	DefaultDebounce = time.Second
	DefaultSavedFor = 2500 * time.Millisecond
	commitTimeout   = 15 * time.Second
)

// Field describes what is edited. Validate mirrors the server bounds so bad
// values never leave the client; Commit persists a value.
type Field struct {
	Name     string
	Validate func(value string) error
	Commit   func(ctx context.Context, value string) error
}

type Config struct {
	Debounce time.Duration
	SavedFor time.Duration
	Clock    clockwork.Clock
	// OnChange is called after every state transition, outside the lock.
	OnChange func(Snapshot)
}

// Snapshot is a point-in-time view of a session.
type Snapshot struct {
	Field     string
	State     State
	Value     string
	Committed string
	Err       error
}

type Session struct {
	field Field
	cfg   Config

	mu        sync.Mutex
	state     State
	value     string
	committed string
	err       error
	canEdit   bool
	debounce  clockwork.Timer
	saved     clockwork.Timer
	// epoch increases on every Change and Cancel so stale timers do nothing.
	epoch uint64
	// inflight is closed when the running Commit returns; nil when idle.
	inflight chan struct{}
}

// New starts a session in viewing with the current server value. canEdit is
// advisory; the server enforces who may change the field.
func New(field Field, current string, canEdit bool, cfg Config) *Session {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.SavedFor <= 0 {
		cfg.SavedFor = DefaultSavedFor
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return &Session{
		field:     field,
		cfg:       cfg,
		state:     StateViewing,
		value:     current,
		committed: current,
		canEdit:   canEdit,
	}
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{Field: s.field.Name, State: s.state, Value: s.value, Committed: s.committed, Err: s.err}
}

func (s *Session) Begin() error {
	s.mu.Lock()
	if !s.canEdit {
		s.mu.Unlock()
		return ErrNotEditable
	}
	if s.state != StateViewing {
		s.mu.Unlock()
		return nil
	}
	s.state = StateEditing
	s.value = s.committed
	s.err = nil
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return nil
}

// Change records a new value and restarts the debounce window.
func (s *Session) Change(value string) error {
	s.mu.Lock()
	if s.state == StateViewing {
		s.mu.Unlock()
		return ErrNotEditing
	}

	s.value = value
	s.epoch++
	epoch := s.epoch
	s.state = StateEditing
	s.err = nil
	s.stopTimersLocked()
	s.debounce = s.cfg.Clock.AfterFunc(s.cfg.Debounce, func() {
		ctx, cancel := context.WithTimeout(context.Background(), commitTimeout)
		defer cancel()
		s.commit(ctx, epoch)
	})
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return nil
}

// Flush commits the pending value now instead of waiting for the debounce.
// A save already in flight is waited for; its error is returned when it
// failed and nothing newer is pending.
func (s *Session) Flush(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateViewing {
		s.mu.Unlock()
		return ErrNotEditing
	}
	if s.debounce != nil {
		s.debounce.Stop()
		s.debounce = nil
	}
	epoch := s.epoch
	s.mu.Unlock()

	return s.commit(ctx, epoch)
}

// Cancel drops any pending value and returns to viewing.
func (s *Session) Cancel() {
	s.mu.Lock()
	s.stopTimersLocked()
	s.epoch++
	s.state = StateViewing
	s.value = s.committed
	s.err = nil
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

func (s *Session) commit(ctx context.Context, epoch uint64) error {
	s.mu.Lock()
	for s.inflight != nil {
		done := s.inflight
		s.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
		s.mu.Lock()
	}
	if epoch != s.epoch || s.state == StateViewing {
		s.mu.Unlock()
		return nil
	}

	value := s.value
	if value == s.committed {
		var err error
		if s.state == StateError {
			err = s.err
		}
		s.mu.Unlock()
		return err
	}

	if s.field.Validate != nil {
		if err := s.field.Validate(value); err != nil {
			snap := s.failLocked(err)
			s.mu.Unlock()
			s.notify(snap)
			return err
		}
	}

	s.state = StateSaving
	done := make(chan struct{})
	s.inflight = done
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)

	err := s.field.Commit(ctx, value)

	s.mu.Lock()
	s.inflight = nil
	close(done)
	if err != nil {
		log.Debug().Err(err).Str("field", s.field.Name).Msg("edit commit failed")
		if s.epoch != epoch {
			// A newer value was typed while saving; its own commit follows.
			s.state = StateEditing
			snap = s.snapshotLocked()
			s.mu.Unlock()
			s.notify(snap)
			return nil
		}
		snap = s.failLocked(err)
		s.mu.Unlock()
		s.notify(snap)
		return err
	}

	s.committed = value
	s.err = nil
	if s.epoch != epoch {
		// Changed while saving; the newer value has its own debounce.
		s.state = StateEditing
	} else {
		s.state = StateSaved
		s.saved = s.cfg.Clock.AfterFunc(s.cfg.SavedFor, func() { s.leaveSaved(epoch) })
	}
	snap = s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return nil
}

func (s *Session) leaveSaved(epoch uint64) {
	s.mu.Lock()
	if s.epoch != epoch || s.state != StateSaved {
		s.mu.Unlock()
		return
	}
	s.state = StateEditing
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

// failLocked moves to error and reverts the shown value to the last
// committed one.
func (s *Session) failLocked(err error) Snapshot {
	s.state = StateError
	s.err = err
	s.value = s.committed
	return s.snapshotLocked()
}

func (s *Session) stopTimersLocked() {
	if s.debounce != nil {
		s.debounce.Stop()
		s.debounce = nil
	}
	if s.saved != nil {
		s.saved.Stop()
		s.saved = nil
	}
}

func (s *Session) notify(snap Snapshot) {
	if s.cfg.OnChange != nil {
		s.cfg.OnChange(snap)
	}
}
