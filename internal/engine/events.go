package engine

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/fanfare-live/fanfare/internal/domain"
)

// eventsStream is the durable stream mirroring the pub/sub event channels.
const eventsStream = "stream:events"

// Alerter forwards selected events to operator notification channels.
type Alerter interface {
	Notify(ctx context.Context, event, title, message string) error
}

// Emitter fans engine events out to the signal bus and the persistent event
// journal. Emission is best-effort: a down bus or journal never fails the
// state transition that produced the event. A nil *Emitter drops everything,
// which keeps unit tests quiet.
type Emitter struct {
	bus     domain.SignalBus
	journal domain.EventStore
	alerter Alerter
	logger  *slog.Logger
}

// NewEmitter creates an Emitter. bus and journal may each be nil.
func NewEmitter(bus domain.SignalBus, journal domain.EventStore, logger *slog.Logger) *Emitter {
	return &Emitter{
		bus:     bus,
		journal: journal,
		logger:  logger.With(slog.String("component", "events")),
	}
}

// WithAlerter attaches an operator notification channel. Alert delivery is
// best-effort like every other sink.
func (e *Emitter) WithAlerter(a Alerter) *Emitter {
	if e != nil {
		e.alerter = a
	}
	return e
}

// Emit assigns the event an ID and timestamp if unset, publishes it on the
// global and per-campaign channels, appends it to the durable stream, and
// records it in the journal.
func (e *Emitter) Emit(ctx context.Context, ev domain.Event) {
	if e == nil {
		return
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		e.logger.ErrorContext(ctx, "events: marshal failed",
			slog.String("type", string(ev.Type)),
			slog.String("error", err.Error()),
		)
		return
	}

	if e.bus != nil {
		if err := e.bus.Publish(ctx, domain.EventsChannel, payload); err != nil {
			e.logger.WarnContext(ctx, "events: publish failed",
				slog.String("type", string(ev.Type)),
				slog.String("error", err.Error()),
			)
		}
		if ev.Campaign != (common.Address{}) {
			if err := e.bus.Publish(ctx, domain.CampaignChannel(ev.Campaign), payload); err != nil {
				e.logger.WarnContext(ctx, "events: campaign publish failed",
					slog.String("campaign", ev.Campaign.Hex()),
					slog.String("error", err.Error()),
				)
			}
		}
		if err := e.bus.StreamAppend(ctx, eventsStream, payload); err != nil {
			e.logger.WarnContext(ctx, "events: stream append failed",
				slog.String("error", err.Error()),
			)
		}
	}

	if e.journal != nil {
		if err := e.journal.Append(ctx, ev); err != nil {
			e.logger.WarnContext(ctx, "events: journal append failed",
				slog.String("type", string(ev.Type)),
				slog.String("error", err.Error()),
			)
		}
	}

	if e.alerter != nil {
		title := "fanfare: " + string(ev.Type)
		if err := e.alerter.Notify(ctx, string(ev.Type), title, string(payload)); err != nil {
			e.logger.WarnContext(ctx, "events: alert failed",
				slog.String("type", string(ev.Type)),
				slog.String("error", err.Error()),
			)
		}
	}
}
