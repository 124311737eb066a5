package models

// WeatherQuery is built fresh for every provider request.
type WeatherQuery struct {
	APIKey string
	City   string
}

// WeatherResult is the subset of provider data shown on the screen.
type WeatherResult struct {
	TemperatureC float64 `json:"temperature_c"`
	Condition    string  `json:"condition"`
	Location     string  `json:"location"`
	Country      string  `json:"country"`
}
