package messaging

type Weather struct {
	TemperatureC float64 `json:"temperature_c"`
	Condition    string  `json:"condition"`
	Location     string  `json:"location"`
	Country      string  `json:"country"`
}

// DisplayUpdateEvent is emitted every time the screen settles on a result.
// Exactly one of Weather and Error is set.
type DisplayUpdateEvent struct {
	City      string   `json:"city"`
	Status    string   `json:"status"`
	Weather   *Weather `json:"weather,omitempty"`
	Error     string   `json:"error,omitempty"`
	UpdatedAt int64    `json:"updated_at"`
}
