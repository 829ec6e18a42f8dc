package service

import (
	"context"
	"encoding/json"
	"time"

	"change-aggregator/internal/core/domain"
	"change-aggregator/internal/core/ports"

	"github.com/rs/zerolog"
)

const publishTimeout = 5 * time.Second

type eventService struct {
	pub      ports.EventPublisher
	sig      ports.SignatureService
	exchange string
	secret   string
	log      zerolog.Logger
}

// NewEventService creates an EventService that signs envelopes with secret
// (unsigned when empty) and publishes them to exchange.
func NewEventService(pub ports.EventPublisher, sig ports.SignatureService, exchange, secret string, log zerolog.Logger) ports.EventService {
	return &eventService{pub: pub, sig: sig, exchange: exchange, secret: secret, log: log}
}

// Emit publishes one event. Delivery is best effort: failures are logged and
// never undo the committed mutation.
func (s *eventService) Emit(ctx context.Context, eventType domain.EventType, payload interface{}) {
	evt := domain.Event{Type: eventType, OccurredAt: nowUTC(), Payload: payload}
	if s.secret != "" {
		body, err := json.Marshal(payload)
		if err != nil {
			s.log.Error().Err(err).Str("event", string(eventType)).Msg("marshal event payload")
			return
		}
		evt.Signature = s.sig.Sign(s.secret, string(body))
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := s.pub.Publish(pubCtx, s.exchange, string(eventType), evt); err != nil {
		s.log.Warn().Err(err).Str("event", string(eventType)).Msg("event publish failed")
		return
	}
	s.log.Debug().Str("event", string(eventType)).Msg("event published")
}
