package producers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/wagslane/go-rabbitmq"

	"github.com/Nazarious-ucu/weather-screen/internal/view"
	"github.com/Nazarious-ucu/weather-screen/pkg/messaging"
)

const publishTimeout = 3 * time.Second

type publisher interface {
	PublishWithContext(
		ctx context.Context,
		data []byte,
		routingKeys []string,
		optionFuncs ...func(*rabbitmq.PublishOptions),
	) error
}

type publishObserver interface {
	ObservePublish(err error)
}

// Producer emits a DisplayUpdateEvent each time the screen settles.
type Producer struct {
	prod     publisher
	observer publishObserver
	log      zerolog.Logger
}

func NewProducer(prod publisher, observer publishObserver, logger zerolog.Logger) *Producer {
	return &Producer{
		prod:     prod,
		observer: observer,
		log:      logger.With().Str("component", "Producer").Logger(),
	}
}

func (p *Producer) Publish(ctx context.Context, routingKey []string, body []byte) error {
	err := p.prod.PublishWithContext(
		ctx,
		body,
		routingKey,
		rabbitmq.WithPublishOptionsContentType("application/json"),
		rabbitmq.WithPublishOptionsExchange(messaging.ExchangeName),
	)
	p.observer.ObservePublish(err)
	if err != nil {
		p.log.Error().Err(err).Strs("routing_key", routingKey).Msg("failed to publish message")
		return err
	}
	p.log.Debug().Strs("routing_key", routingKey).Msg("message published")
	return nil
}

// OnStateChange publishes settled states; Loading is skipped.
func (p *Producer) OnStateChange(ctx context.Context, state view.State) {
	if !state.Settled() {
		return
	}

	body, err := json.Marshal(NewDisplayUpdateEvent(state))
	if err != nil {
		p.log.Error().Err(err).Msg("failed to marshal display update")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	_ = p.Publish(ctx, []string{messaging.DisplayRoutingKey}, body)
}

func NewDisplayUpdateEvent(state view.State) messaging.DisplayUpdateEvent {
	event := messaging.DisplayUpdateEvent{
		City:      state.City,
		Status:    state.Status(),
		UpdatedAt: state.UpdatedAt.Unix(),
	}
	switch p := state.Phase.(type) {
	case view.Success:
		event.Weather = &messaging.Weather{
			TemperatureC: p.Result.TemperatureC,
			Condition:    p.Result.Condition,
			Location:     p.Result.Location,
			Country:      p.Result.Country,
		}
	case view.Failure:
		event.Error = p.Message
	}
	return event
}
