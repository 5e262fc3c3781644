package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/oa2006040/Kashta-Planner-sub000/internal/adapter"
	"github.com/oa2006040/Kashta-Planner-sub000/internal/models"
)

// SubjectPrefix is the root of every settlement activity subject.
const SubjectPrefix = "settlements"

// Config holds the configuration for NATS JetStream connection
type Config struct {
	URL            string
	StreamName     string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectionName string
}

type jetStreamPublisher struct {
	nc adapter.NatsConn
	js adapter.JetStream
}

// NewJetStreamPublisher connects to NATS, makes sure the stream capturing
// settlements.> exists and returns a Publisher.
func NewJetStreamPublisher(ctx context.Context, cfg Config, natsJS adapter.NatsJetStream) (Publisher, error) {
	opts := []nats.Option{
		nats.Name(cfg.ConnectionName),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				slog.Error("Disconnected from NATS", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("Reconnected to NATS", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			slog.Info("NATS connection closed")
		}),
	}

	nc, js, err := natsJS.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS and create JetStream: %w", err)
	}

	err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     cfg.StreamName,
		Subjects: []string{SubjectPrefix + ".>"},
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create stream %s: %w", cfg.StreamName, err)
	}

	slog.Info("Connected to NATS", "url", nc.ConnectedUrl(), "stream", cfg.StreamName)
	return &jetStreamPublisher{nc: nc, js: js}, nil
}

// PublishSettlementActivity publishes to settlements.<eventId>.<action>.
func (p *jetStreamPublisher) PublishSettlementActivity(ctx context.Context, activity *models.SettlementActivity) error {
	data, err := json.Marshal(activity)
	if err != nil {
		return fmt.Errorf("failed to marshal settlement activity: %w", err)
	}

	subject := Subject(activity.EventID, activity.Action)
	if _, err := p.js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("failed to publish settlement activity: %w", err)
	}

	slog.Debug("Published settlement activity", "subject", subject)
	return nil
}

// Subject builds the subject for one event and action,
// e.g. settlements.<eventId>.payment.
func Subject(eventID string, action models.ActivityAction) string {
	return fmt.Sprintf("%s.%s.%s", SubjectPrefix, eventID, action)
}

// Close closes the NATS connection
func (p *jetStreamPublisher) Close() {
	if p.nc == nil {
		return
	}
	p.nc.Close()
}
