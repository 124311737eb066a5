package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/Nazarious-ucu/weather-screen/internal/models"
	"github.com/rs/zerolog"
)

const currentPath = "current.json"

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientWeatherAPI talks to the WeatherAPI.com current conditions endpoint.
type ClientWeatherAPI struct {
	APIKey string
	client HTTPClient
	logger zerolog.Logger
	apiURL string
}

func NewClientWeatherAPI(apiKey, apiURL string, httpClient HTTPClient, logger zerolog.Logger) *ClientWeatherAPI {
	return &ClientWeatherAPI{
		APIKey: apiKey,
		client: httpClient,
		logger: logger.With().Str("component", "WeatherAPIClient").Logger(),
		apiURL: apiURL,
	}
}

// Fetch queries current weather for city with the configured key.
func (s *ClientWeatherAPI) Fetch(ctx context.Context, city string) (models.WeatherResult, error) {
	return s.FetchCurrentWeather(ctx, models.WeatherQuery{APIKey: s.APIKey, City: city})
}

func (s *ClientWeatherAPI) FetchCurrentWeather(
	ctx context.Context,
	query models.WeatherQuery,
) (models.WeatherResult, error) {
	if query.City == "" {
		return models.WeatherResult{}, ErrEmptyCity
	}

	reqURL, err := s.requestURL(query)
	if err != nil {
		return models.WeatherResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return models.WeatherResult{}, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return models.WeatherResult{}, &NetworkError{Err: err}
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to close response body")
		}
	}(resp.Body)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return models.WeatherResult{}, newHTTPError(resp)
	}

	var raw currentResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return models.WeatherResult{}, &DecodeError{Err: err}
	}

	result, err := raw.toResult()
	if err != nil {
		return models.WeatherResult{}, &DecodeError{Err: err}
	}

	s.logger.Debug().
		Ctx(ctx).
		Str("city", query.City).
		Str("location", result.Location).
		Float64("temp_c", result.TemperatureC).
		Msg("current weather fetched")

	return result, nil
}

func (s *ClientWeatherAPI) requestURL(query models.WeatherQuery) (string, error) {
	base, err := url.Parse(s.apiURL)
	if err != nil {
		return "", fmt.Errorf("parse weather API url: %w", err)
	}

	u := base.JoinPath(currentPath)
	params := url.Values{}
	params.Set("key", query.APIKey)
	params.Set("q", query.City)
	u.RawQuery = params.Encode()

	return u.String(), nil
}

type currentResponse struct {
	Location *struct {
		Name    *string `json:"name"`
		Country *string `json:"country"`
	} `json:"location"`
	Current *struct {
		TempC     *float64 `json:"temp_c"`
		Condition *struct {
			Text *string `json:"text"`
		} `json:"condition"`
	} `json:"current"`
}

func (r currentResponse) toResult() (models.WeatherResult, error) {
	switch {
	case r.Current == nil:
		return models.WeatherResult{}, errors.New("missing field current")
	case r.Current.TempC == nil:
		return models.WeatherResult{}, errors.New("missing field current.temp_c")
	case r.Current.Condition == nil || r.Current.Condition.Text == nil:
		return models.WeatherResult{}, errors.New("missing field current.condition.text")
	case r.Location == nil:
		return models.WeatherResult{}, errors.New("missing field location")
	case r.Location.Name == nil:
		return models.WeatherResult{}, errors.New("missing field location.name")
	case r.Location.Country == nil:
		return models.WeatherResult{}, errors.New("missing field location.country")
	}

	return models.WeatherResult{
		TemperatureC: *r.Current.TempC,
		Condition:    *r.Current.Condition.Text,
		Location:     *r.Location.Name,
		Country:      *r.Location.Country,
	}, nil
}

type errorEnvelope struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newHTTPError(resp *http.Response) *HTTPError {
	httpErr := &HTTPError{StatusCode: resp.StatusCode, Status: resp.Status}
	if httpErr.Status == "" {
		httpErr.Status = fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	var envelope errorEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil {
		httpErr.Code = envelope.Error.Code
		httpErr.Message = envelope.Error.Message
	}
	return httpErr
}
