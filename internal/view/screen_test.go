package view_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nazarious-ucu/weather-screen/internal/models"
	"github.com/Nazarious-ucu/weather-screen/internal/view"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

var nashik = models.WeatherResult{TemperatureC: 28.5, Condition: "Sunny", Location: "Nashik", Country: "India"}

type fakeFetcher struct {
	mu    sync.Mutex
	calls []string
	fn    func(ctx context.Context, city string) (models.WeatherResult, error)
}

func (f *fakeFetcher) Fetch(ctx context.Context, city string) (models.WeatherResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, city)
	f.mu.Unlock()
	return f.fn(ctx, city)
}

func (f *fakeFetcher) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type recorder struct {
	mu     sync.Mutex
	states []view.State
}

func (r *recorder) OnStateChange(_ context.Context, state view.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, state)
}

func (r *recorder) Statuses() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.states))
	for _, s := range r.states {
		out = append(out, s.City+":"+s.Status())
	}
	return out
}

type countingObserver struct {
	mu      sync.Mutex
	fetches int
	stale   int
}

func (o *countingObserver) ObserveFetch(error, time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fetches++
}

func (o *countingObserver) StaleResultDropped() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stale++
}

func (o *countingObserver) Stale() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stale
}

func runScreen(t *testing.T, s *view.Screen) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		_ = s.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-s.Done()
	})
}

func waitStatus(t *testing.T, s *view.Screen, status string) view.State {
	t.Helper()
	require.Eventually(t, func() bool {
		return s.State().Status() == status
	}, waitFor, tick)
	return s.State()
}

func TestScreen_InitialStateIsLoading(t *testing.T) {
	s := view.NewScreen("nasik", &fakeFetcher{}, zerolog.Nop())

	st := s.State()
	assert.Equal(t, "nasik", st.City)
	assert.Equal(t, view.StatusLoading, st.Status())
	assert.False(t, st.Settled())
	assert.Equal(t, []string{"Weather in nasik :", "Loading ......"}, st.Lines())
}

func TestScreen_Success(t *testing.T) {
	f := &fakeFetcher{fn: func(context.Context, string) (models.WeatherResult, error) {
		return nashik, nil
	}}
	rec := &recorder{}
	s := view.NewScreen("nasik", f, zerolog.Nop(), view.WithListener(rec))
	runScreen(t, s)

	st := waitStatus(t, s, view.StatusSuccess)

	success, ok := st.Phase.(view.Success)
	require.True(t, ok)
	assert.Equal(t, nashik, success.Result)
	assert.Equal(t, []string{
		"Weather in Nashik , India :",
		"is 28.5°C",
		"Condition is Sunny",
	}, st.Lines())
	assert.Equal(t, []string{"nasik"}, f.Calls())
	require.Eventually(t, func() bool { return len(rec.Statuses()) == 2 }, waitFor, tick)
	assert.Equal(t, []string{"nasik:loading", "nasik:success"}, rec.Statuses())
}

func TestScreen_NetworkFailure(t *testing.T) {
	f := &fakeFetcher{fn: func(context.Context, string) (models.WeatherResult, error) {
		return models.WeatherResult{}, errors.New("lookup api.weatherapi.com: no such host")
	}}
	s := view.NewScreen("nasik", f, zerolog.Nop())
	runScreen(t, s)

	st := waitStatus(t, s, view.StatusFailure)

	failure, ok := st.Phase.(view.Failure)
	require.True(t, ok)
	assert.Equal(t, "Error : lookup api.weatherapi.com: no such host", failure.Message)
	for _, line := range st.Lines() {
		assert.NotContains(t, line, "°C")
	}

	snap := st.Snapshot()
	assert.Nil(t, snap.Weather)
	assert.Equal(t, failure.Message, snap.Error)
}

func TestScreen_SetCityFetchesOnlyOnChange(t *testing.T) {
	f := &fakeFetcher{fn: func(_ context.Context, city string) (models.WeatherResult, error) {
		return models.WeatherResult{Location: city, Country: "X"}, nil
	}}
	s := view.NewScreen("nasik", f, zerolog.Nop())
	runScreen(t, s)
	waitStatus(t, s, view.StatusSuccess)

	require.NoError(t, s.SetCity(context.Background(), "nasik"))
	require.NoError(t, s.SetCity(context.Background(), "Lviv"))

	require.Eventually(t, func() bool {
		st := s.State()
		return st.City == "Lviv" && st.Settled()
	}, waitFor, tick)
	assert.Equal(t, []string{"nasik", "Lviv"}, f.Calls())
}

func TestScreen_RefreshRefetchesCurrentCity(t *testing.T) {
	f := &fakeFetcher{fn: func(context.Context, string) (models.WeatherResult, error) {
		return nashik, nil
	}}
	s := view.NewScreen("nasik", f, zerolog.Nop())
	runScreen(t, s)
	waitStatus(t, s, view.StatusSuccess)

	require.NoError(t, s.Refresh(context.Background()))

	require.Eventually(t, func() bool {
		return len(f.Calls()) == 2 && s.State().Settled()
	}, waitFor, tick)
	assert.Equal(t, []string{"nasik", "nasik"}, f.Calls())
}

func TestScreen_StaleResultDoesNotOverwriteNewerCity(t *testing.T) {
	releaseSlow := make(chan struct{})
	f := &fakeFetcher{fn: func(_ context.Context, city string) (models.WeatherResult, error) {
		if city == "nasik" {
			// ignores cancellation to simulate a late response
			<-releaseSlow
			return nashik, nil
		}
		return models.WeatherResult{TemperatureC: 12, Condition: "Cloudy", Location: "Lviv", Country: "Ukraine"}, nil
	}}
	obs := &countingObserver{}
	s := view.NewScreen("nasik", f, zerolog.Nop(), view.WithObserver(obs))
	runScreen(t, s)

	require.Eventually(t, func() bool { return len(f.Calls()) == 1 }, waitFor, tick)
	require.NoError(t, s.SetCity(context.Background(), "Lviv"))

	st := waitStatus(t, s, view.StatusSuccess)
	assert.Equal(t, "Lviv", st.City)

	close(releaseSlow)
	require.Eventually(t, func() bool { return obs.Stale() == 1 }, waitFor, tick)

	st = s.State()
	assert.Equal(t, "Lviv", st.City)
	success, ok := st.Phase.(view.Success)
	require.True(t, ok)
	assert.Equal(t, "Lviv", success.Result.Location)
}

func TestScreen_CityChangeCancelsInflightFetch(t *testing.T) {
	cancelled := make(chan struct{})
	f := &fakeFetcher{fn: func(ctx context.Context, city string) (models.WeatherResult, error) {
		if city == "nasik" {
			<-ctx.Done()
			close(cancelled)
			return models.WeatherResult{}, ctx.Err()
		}
		return nashik, nil
	}}
	s := view.NewScreen("nasik", f, zerolog.Nop())
	runScreen(t, s)

	require.Eventually(t, func() bool { return len(f.Calls()) == 1 }, waitFor, tick)
	require.NoError(t, s.SetCity(context.Background(), "Pune"))

	select {
	case <-cancelled:
	case <-time.After(waitFor):
		t.Fatal("in-flight fetch was not cancelled")
	}
	st := waitStatus(t, s, view.StatusSuccess)
	assert.Equal(t, "Pune", st.City)
}

func TestScreen_FetchTimeout(t *testing.T) {
	f := &fakeFetcher{fn: func(ctx context.Context, _ string) (models.WeatherResult, error) {
		<-ctx.Done()
		return models.WeatherResult{}, ctx.Err()
	}}
	s := view.NewScreen("nasik", f, zerolog.Nop(), view.WithFetchTimeout(20*time.Millisecond))
	runScreen(t, s)

	st := waitStatus(t, s, view.StatusFailure)
	assert.Equal(t, "Error : "+context.DeadlineExceeded.Error(), st.Phase.(view.Failure).Message)
}

func TestScreen_SetCityValidation(t *testing.T) {
	s := view.NewScreen("nasik", &fakeFetcher{}, zerolog.Nop())

	assert.ErrorIs(t, s.SetCity(context.Background(), "   "), view.ErrEmptyCity)
}

func TestScreen_RunTwice(t *testing.T) {
	f := &fakeFetcher{fn: func(context.Context, string) (models.WeatherResult, error) {
		return nashik, nil
	}}
	s := view.NewScreen("nasik", f, zerolog.Nop())
	runScreen(t, s)
	waitStatus(t, s, view.StatusSuccess)

	assert.ErrorIs(t, s.Run(context.Background()), view.ErrAlreadyRunning)
}

func TestScreen_CommandsAfterStop(t *testing.T) {
	f := &fakeFetcher{fn: func(context.Context, string) (models.WeatherResult, error) {
		return nashik, nil
	}}
	s := view.NewScreen("nasik", f, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = s.Run(ctx) }()
	waitStatus(t, s, view.StatusSuccess)
	cancel()
	<-s.Done()

	assert.ErrorIs(t, s.Refresh(context.Background()), view.ErrScreenStopped)
}

func TestScreen_MutualExclusionAfterEveryCompletion(t *testing.T) {
	var n int
	var mu sync.Mutex
	f := &fakeFetcher{fn: func(context.Context, string) (models.WeatherResult, error) {
		mu.Lock()
		defer mu.Unlock()
		n++
		if n%2 == 0 {
			return models.WeatherResult{}, errors.New("weather API error: status 500")
		}
		return nashik, nil
	}}
	rec := &recorder{}
	s := view.NewScreen("nasik", f, zerolog.Nop(), view.WithListener(rec))
	runScreen(t, s)

	for i := 0; i < 3; i++ {
		require.Eventually(t, func() bool { return s.State().Settled() }, waitFor, tick)
		require.NoError(t, s.Refresh(context.Background()))
		require.Eventually(t, func() bool { return len(f.Calls()) == i+2 }, waitFor, tick)
	}
	require.Eventually(t, func() bool { return s.State().Settled() }, waitFor, tick)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	for _, st := range rec.states {
		snap := st.Snapshot()
		switch st.Status() {
		case view.StatusSuccess:
			assert.NotNil(t, snap.Weather)
			assert.Empty(t, snap.Error)
		case view.StatusFailure:
			assert.Nil(t, snap.Weather)
			assert.NotEmpty(t, snap.Error)
		default:
			assert.Nil(t, snap.Weather)
			assert.Empty(t, snap.Error)
		}
	}
}
