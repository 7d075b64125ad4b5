package avatars

import (
	"context"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"spaces/internal/platform/config"
)

// State of an upload being awaited. Pending is the only non-final state.
type State string

const (
	StatePending   State = "pending"
	StateReady     State = "ready"
	StateTimedOut  State = "timed-out"
	StateCancelled State = "cancelled"
)

var (
	ErrTimedOut  = errors.New("upload did not finish processing in time")
	ErrCancelled = errors.New("waiting for upload was cancelled")
)

const minPollInterval = time.Second

// ImageFetcher loads an upload object from the provider.
type ImageFetcher interface {
	Image(ctx context.Context, id string) (*Image, error)
}

type PollConfig struct {
	Interval    time.Duration
	MaxWait     time.Duration
	MaxAttempts int
}

func PollConfigFrom(cfg config.ImagesConfig) PollConfig {
	return PollConfig{
		Interval:    cfg.PollInterval,
		MaxWait:     cfg.PollMaxWait,
		MaxAttempts: cfg.PollMaxAttempt,
	}
}

// Result describes how an Await call ended.
type Result struct {
	ImageID  string        `json:"imageId"`
	State    State         `json:"state"`
	Attempts int           `json:"attempts"`
	Elapsed  time.Duration `json:"elapsed"`
}

type Poller struct {
	fetcher ImageFetcher
	cfg     PollConfig
	clock   clockwork.Clock
}

func NewPoller(fetcher ImageFetcher, cfg PollConfig, clock clockwork.Clock) *Poller {
	if cfg.Interval < minPollInterval {
		cfg.Interval = minPollInterval
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = 30 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = int(cfg.MaxWait/cfg.Interval) + 1
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Poller{fetcher: fetcher, cfg: cfg, clock: clock}
}

// Await polls the upload immediately and then once per interval while it is
// still a draft. It returns the final image id once the provider reports the
// upload as processed. It gives up with ErrTimedOut after MaxAttempts polls
// or once MaxWait has elapsed, and with ErrCancelled when ctx is done.
// Provider errors end the wait immediately.
func (p *Poller) Await(ctx context.Context, uploadID string) (*Result, error) {
	start := p.clock.Now()
	res := &Result{State: StatePending}

	finish := func(state State, err error) (*Result, error) {
		res.State = state
		res.Elapsed = p.clock.Since(start)
		log.Debug().
			Str("upload_id", uploadID).
			Str("state", string(state)).
			Int("attempts", res.Attempts).
			Dur("elapsed", res.Elapsed).
			Msg("avatar upload wait finished")
		return res, err
	}

	for {
		if ctx.Err() != nil {
			return finish(StateCancelled, ErrCancelled)
		}

		res.Attempts++
		img, err := p.fetcher.Image(ctx, uploadID)
		if err != nil {
			if ctx.Err() != nil {
				return finish(StateCancelled, ErrCancelled)
			}
			return finish(StatePending, err)
		}
		if !img.Draft {
			res.ImageID = img.ID
			return finish(StateReady, nil)
		}

		if res.Attempts >= p.cfg.MaxAttempts {
			return finish(StateTimedOut, ErrTimedOut)
		}

		timer := p.clock.NewTimer(p.cfg.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return finish(StateCancelled, ErrCancelled)
		case <-timer.Chan():
		}

		if p.clock.Since(start) >= p.cfg.MaxWait {
			return finish(StateTimedOut, ErrTimedOut)
		}
	}
}
