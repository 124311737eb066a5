package decorators

import (
	"context"
	"fmt"
	"strings"

	"github.com/Nazarious-ucu/weather-screen/internal/models"
	"github.com/rs/zerolog"
)

type weatherFetcher interface {
	Fetch(ctx context.Context, city string) (models.WeatherResult, error)
}

type cacheClient[T any] interface {
	Set(ctx context.Context, key string, value T) error
	Get(ctx context.Context, key string) (T, error)
}

// CachedService serves repeated requests for a city from the cache. Failed
// fetches are never cached.
type CachedService struct {
	inner  weatherFetcher
	cache  cacheClient[models.WeatherResult]
	logger zerolog.Logger
}

func NewCachedService(
	inner weatherFetcher,
	cache cacheClient[models.WeatherResult],
	logger zerolog.Logger,
) *CachedService {
	return &CachedService{
		inner:  inner,
		cache:  cache,
		logger: logger.With().Str("component", "CachedService").Logger(),
	}
}

func CacheKey(city string) string {
	return fmt.Sprintf("weather:%s", strings.ToLower(strings.TrimSpace(city)))
}

func (s *CachedService) Fetch(ctx context.Context, city string) (models.WeatherResult, error) {
	key := CacheKey(city)

	result, err := s.cache.Get(ctx, key)
	if err == nil {
		s.logger.Debug().
			Ctx(ctx).
			Str("city", city).
			Str("key", key).
			Msg("cache hit")
		return result, nil
	}
	s.logger.Debug().
		Ctx(ctx).
		Str("city", city).
		Str("key", key).
		Err(err).
		Msg("cache miss")

	result, err = s.inner.Fetch(ctx, city)
	if err != nil {
		return models.WeatherResult{}, err
	}

	if err := s.cache.Set(ctx, key, result); err != nil {
		s.logger.Error().
			Ctx(ctx).
			Str("city", city).
			Str("key", key).
			Err(err).
			Msg("cache set failed")
	}

	return result, nil
}
