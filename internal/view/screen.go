package view

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/Nazarious-ucu/weather-screen/internal/models"
)

const (
	defaultFetchTimeout = 10 * time.Second
	commandBuffer       = 16
)

var (
	ErrEmptyCity      = errors.New("city must not be empty")
	ErrScreenStopped  = errors.New("screen stopped")
	ErrAlreadyRunning = errors.New("screen already running")
)

type fetcher interface {
	Fetch(ctx context.Context, city string) (models.WeatherResult, error)
}

type observer interface {
	ObserveFetch(err error, d time.Duration)
	StaleResultDropped()
}

// Listener is notified from the screen goroutine after every state change.
// Implementations must not block for long.
type Listener interface {
	OnStateChange(ctx context.Context, state State)
}

type ListenerFunc func(ctx context.Context, state State)

func (f ListenerFunc) OnStateChange(ctx context.Context, state State) { f(ctx, state) }

type Option func(*Screen)

func WithFetchTimeout(d time.Duration) Option {
	return func(s *Screen) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithObserver(o observer) Option {
	return func(s *Screen) { s.observer = o }
}

func WithListener(l Listener) Option {
	return func(s *Screen) { s.listeners = append(s.listeners, l) }
}

type command struct {
	city    string
	refresh bool
}

type outcome struct {
	generation uint64
	city       string
	result     models.WeatherResult
	err        error
	duration   time.Duration
}

// Screen owns the display state for one city at a time. All state changes
// happen on the goroutine running Run; fetches report back over a channel and
// only the completion of the latest request is applied.
type Screen struct {
	fetcher   fetcher
	logger    zerolog.Logger
	observer  observer
	listeners []Listener
	timeout   time.Duration

	commands chan command
	results  chan outcome
	state    atomic.Pointer[State]
	running  atomic.Bool
	done     chan struct{}
}

func NewScreen(city string, f fetcher, logger zerolog.Logger, opts ...Option) *Screen {
	s := &Screen{
		fetcher:  f,
		logger:   logger.With().Str("component", "Screen").Logger(),
		observer: noopObserver{},
		timeout:  defaultFetchTimeout,
		commands: make(chan command, commandBuffer),
		results:  make(chan outcome),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	initial := State{City: strings.TrimSpace(city), Phase: Loading{}, UpdatedAt: time.Now()}
	s.state.Store(&initial)
	return s
}

// State returns the latest published display state.
func (s *Screen) State() State {
	return *s.state.Load()
}

// Done is closed once Run has returned.
func (s *Screen) Done() <-chan struct{} {
	return s.done
}

// SetCity switches the screen to city. Setting the current city again does
// not trigger a fetch.
func (s *Screen) SetCity(ctx context.Context, city string) error {
	city = strings.TrimSpace(city)
	if city == "" {
		return ErrEmptyCity
	}
	return s.send(ctx, command{city: city})
}

// Refresh re-fetches weather for the current city.
func (s *Screen) Refresh(ctx context.Context) error {
	return s.send(ctx, command{refresh: true})
}

func (s *Screen) send(ctx context.Context, cmd command) error {
	select {
	case <-s.done:
		return ErrScreenStopped
	default:
	}

	select {
	case s.commands <- cmd:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrScreenStopped
	}
}

// Run starts the first fetch and processes commands and fetch results until
// ctx is cancelled.
func (s *Screen) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(s.done)

	var (
		generation  uint64
		cancelFetch context.CancelFunc = func() {}
		inflight    sync.WaitGroup
	)
	defer inflight.Wait()
	defer func() { cancelFetch() }()

	start := func(city string) {
		cancelFetch()
		generation++

		fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
		cancelFetch = cancel

		s.publish(ctx, State{City: city, Phase: Loading{}})

		inflight.Add(1)
		go func(gen uint64) {
			defer inflight.Done()
			s.fetch(ctx, fetchCtx, gen, city)
		}(generation)
	}

	if city := s.State().City; city != "" {
		start(city)
	} else {
		s.publish(ctx, State{Phase: failureFrom(ErrEmptyCity)})
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("screen stopped")
			return nil

		case cmd := <-s.commands:
			current := s.State()
			switch {
			case cmd.refresh && current.City != "":
				start(current.City)
			case cmd.refresh:
				s.logger.Debug().Msg("refresh ignored, no city set")
			case cmd.city == current.City:
				s.logger.Debug().Str("city", cmd.city).Msg("city unchanged")
			default:
				s.logger.Info().
					Str("from", current.City).
					Str("to", cmd.city).
					Msg("city changed")
				start(cmd.city)
			}

		case out := <-s.results:
			if out.generation != generation {
				s.logger.Debug().
					Str("city", out.city).
					Uint64("generation", out.generation).
					Uint64("active", generation).
					Msg("dropping stale fetch result")
				s.observer.StaleResultDropped()
				continue
			}
			cancelFetch()
			cancelFetch = func() {}

			s.observer.ObserveFetch(out.err, out.duration)
			if out.err != nil {
				s.logger.Error().
					Str("city", out.city).
					Dur("duration", out.duration).
					Err(out.err).
					Msg("fetch failed")
				s.publish(ctx, State{City: out.city, Phase: failureFrom(out.err)})
				continue
			}

			s.logger.Info().
				Str("city", out.city).
				Dur("duration", out.duration).
				Msg("fetch succeeded")
			s.publish(ctx, State{City: out.city, Phase: Success{Result: out.result}})
		}
	}
}

func (s *Screen) fetch(runCtx, fetchCtx context.Context, generation uint64, city string) {
	started := time.Now()
	result, err := s.fetcher.Fetch(fetchCtx, city)

	out := outcome{
		generation: generation,
		city:       city,
		result:     result,
		err:        err,
		duration:   time.Since(started),
	}

	select {
	case s.results <- out:
	case <-runCtx.Done():
	}
}

func (s *Screen) publish(ctx context.Context, state State) {
	state.UpdatedAt = time.Now()
	s.state.Store(&state)
	for _, l := range s.listeners {
		l.OnStateChange(ctx, state)
	}
}

type noopObserver struct{}

func (noopObserver) ObserveFetch(error, time.Duration) {}
func (noopObserver) StaleResultDropped()               {}
