// Package messaging publishes settlement activity to a message broker.
package messaging

import (
	"context"

	"github.com/oa2006040/Kashta-Planner-sub000/internal/models"
)

// Publisher defines the interface for publishing settlement activity
//
//go:generate mockgen -source=publisher.go -destination=../mocks/publisher.go -package=mocks -mock_names=Publisher=MockPublisher
type Publisher interface {
	// PublishSettlementActivity publishes a toggle of one transfer.
	PublishSettlementActivity(ctx context.Context, activity *models.SettlementActivity) error
	// Close closes the connection
	Close()
}

// NoopPublisher drops every message. It is used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishSettlementActivity(context.Context, *models.SettlementActivity) error {
	return nil
}

func (NoopPublisher) Close() {}
