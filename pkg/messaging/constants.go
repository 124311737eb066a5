package messaging

const (
	ExchangeName      = "weather_screen"
	DisplayRoutingKey = "display"
)
