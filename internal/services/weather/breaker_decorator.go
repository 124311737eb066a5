package weather

import (
	"context"
	"fmt"
	"time"

	"github.com/Nazarious-ucu/weather-screen/internal/models"
	"github.com/sony/gobreaker"
)

type client interface {
	Fetch(ctx context.Context, city string) (models.WeatherResult, error)
}

type BreakerConfig struct {
	TimeInterval time.Duration
	TimeTimeOut  time.Duration
	RepeatNumber uint32
}

// BreakerClient stops calling the provider after RepeatNumber consecutive
// failures until TimeTimeOut has passed.
type BreakerClient struct {
	name    string
	cb      *gobreaker.CircuitBreaker
	wrapped client
}

func NewBreakerClient(name string, cfg BreakerConfig, wrapped client) *BreakerClient {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    cfg.TimeInterval,
		Timeout:     cfg.TimeTimeOut,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.RepeatNumber
		},
		// A missing city is the caller's fault, not the provider's.
		IsSuccessful: func(err error) bool {
			return err == nil || isClientSideError(err)
		},
	}
	return &BreakerClient{
		name:    name,
		cb:      gobreaker.NewCircuitBreaker(settings),
		wrapped: wrapped,
	}
}

func (b *BreakerClient) Fetch(ctx context.Context, city string) (models.WeatherResult, error) {
	result, err := b.cb.Execute(func() (interface{}, error) {
		return b.wrapped.Fetch(ctx, city)
	})
	if err != nil {
		return models.WeatherResult{},
			fmt.Errorf("%s unavailable: %w", b.name, err)
	}
	res, ok := result.(models.WeatherResult)
	if !ok {
		return models.WeatherResult{},
			fmt.Errorf("%s returned unexpected result", b.name)
	}
	return res, nil
}

func (b *BreakerClient) State() gobreaker.State {
	return b.cb.State()
}
