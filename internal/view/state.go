package view

import (
	"time"

	"github.com/Nazarious-ucu/weather-screen/internal/models"
)

const (
	StatusLoading = "loading"
	StatusSuccess = "success"
	StatusFailure = "failure"

	errorPrefix = "Error : "
)

// Phase is one of Loading, Success or Failure.
type Phase interface {
	status() string
}

type Loading struct{}

type Success struct {
	Result models.WeatherResult
}

type Failure struct {
	Message string
}

func (Loading) status() string { return StatusLoading }
func (Success) status() string { return StatusSuccess }
func (Failure) status() string { return StatusFailure }

func failureFrom(err error) Failure {
	return Failure{Message: errorPrefix + err.Error()}
}

// State is the display state owned by a Screen. Values are immutable once
// published.
type State struct {
	City      string
	Phase     Phase
	UpdatedAt time.Time
}

func (s State) Status() string {
	if s.Phase == nil {
		return StatusLoading
	}
	return s.Phase.status()
}

// Settled reports whether the most recent fetch has completed.
func (s State) Settled() bool {
	return s.Status() != StatusLoading
}

// Snapshot is the JSON form of a State.
type Snapshot struct {
	City      string                `json:"city"`
	Status    string                `json:"status"`
	Lines     []string              `json:"lines"`
	Weather   *models.WeatherResult `json:"weather,omitempty"`
	Error     string                `json:"error,omitempty"`
	UpdatedAt time.Time             `json:"updated_at"`
}

func (s State) Snapshot() Snapshot {
	snap := Snapshot{
		City:      s.City,
		Status:    s.Status(),
		Lines:     s.Lines(),
		UpdatedAt: s.UpdatedAt,
	}
	switch p := s.Phase.(type) {
	case Success:
		result := p.Result
		snap.Weather = &result
	case Failure:
		snap.Error = p.Message
	}
	return snap
}
