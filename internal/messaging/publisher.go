package messaging

import (
	"context"

	"github.com/fundlock/escrow-ledger/internal/domain"
)

// Publisher defines the interface for publishing audit events to the
// message broker
//
//go:generate mockgen -source=publisher.go -destination=../mocks/publisher.go -package=mocks -mock_names=Publisher=MockPublisher
type Publisher interface {
	// PublishAuditEvent publishes an audit event
	PublishAuditEvent(ctx context.Context, event *domain.AuditEvent) error
	// Close closes the connection
	Close()
}
