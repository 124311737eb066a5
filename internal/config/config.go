package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Server struct {
	Address     string `envconfig:"SERVER_ADDRESS" default:":8082"`
	ReadTimeout int    `envconfig:"SERVER_TIMEOUT" default:"10"`
}

type Screen struct {
	City         string `envconfig:"WEATHER_CITY" default:"nasik"`
	FetchTimeout int    `envconfig:"FETCH_TIMEOUT" default:"10"`
	// RefreshSpec is a six-field cron expression; empty disables periodic refresh.
	RefreshSpec string `envconfig:"REFRESH_SPEC"`
}

type Breaker struct {
	Enabled      bool   `envconfig:"BREAKER_ENABLED" default:"false"`
	TimeInterval int    `envconfig:"BREAKER_INTERVAL" default:"30"`
	TimeTimeOut  int    `envconfig:"BREAKER_TIMEOUT" default:"10"`
	RepeatNumber uint32 `envconfig:"BREAKER_REPEAT_NUM" default:"5"`
}

type Redis struct {
	Enabled  bool   `envconfig:"REDIS_ENABLED" default:"false"`
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     string `envconfig:"REDIS_PORT" default:"6379"`
	DbType   int    `envconfig:"REDIS_DB_TYPE" default:"0"`
	LiveTime int    `envconfig:"REDIS_LIVE_TIME" default:"10"` // minutes
}

type RabbitMQ struct {
	Enabled bool   `envconfig:"RABBITMQ_ENABLED" default:"false"`
	Host    string `envconfig:"RABBITMQ_HOST" default:"localhost"`
	Port    string `envconfig:"RABBITMQ_PORT" default:"5672"`
	User    string `envconfig:"RABBITMQ_USER" default:"guest"`
	Pass    string `envconfig:"RABBITMQ_PASSWORD" default:"guest"`
}

type Config struct {
	WeatherAPIKey string `envconfig:"WEATHER_API_KEY" required:"true"`
	WeatherAPIURL string `envconfig:"WEATHER_API_URL" default:"https://api.weatherapi.com/v1/"`

	Server   Server
	Screen   Screen
	Breaker  Breaker
	Redis    Redis
	RabbitMQ RabbitMQ

	ServiceName  string `envconfig:"SERVICE_NAME" default:"weather-screen"`
	LogsPath     string `envconfig:"LOGS_PATH" default:"./log/weather-screen.log"`
	HTTPLogsPath string `envconfig:"HTTP_LOGS_PATH" default:"./log/weather-screen-http.log"`
}

func NewConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Screen.FetchTimeout) * time.Second
}

func (r *Redis) Address() string {
	return r.Host + ":" + r.Port
}

func (r *RabbitMQ) Address() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/", r.User, r.Pass, r.Host, r.Port)
}
