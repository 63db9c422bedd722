package messaging

import (
	"context"

	"github.com/feral-file/consent-ledger/internal/domain"
)

// SubjectPrefix is the root of every ledger notification subject
const SubjectPrefix = "ledger"

// Subject returns the subject an event is published under,
// e.g. ledger.consent.grant, ledger.consent.revoke, ledger.access.logged
func Subject(event *domain.LedgerEvent) string {
	return SubjectPrefix + "." + string(event.Kind)
}

// Subjects returns every subject the relay publishes to
func Subjects() []string {
	return []string{
		SubjectPrefix + "." + string(domain.LedgerEventConsentGranted),
		SubjectPrefix + "." + string(domain.LedgerEventConsentRevoked),
		SubjectPrefix + "." + string(domain.LedgerEventAccessLogged),
	}
}

// Publisher defines the interface for publishing events to message queue
//
//go:generate mockgen -source=publisher.go -destination=../mocks/publisher.go -package=mocks -mock_names=Publisher=MockPublisher
type Publisher interface {
	// PublishEvent publishes a ledger event to the message broker.
	// Publishing the same event twice is deduplicated by the broker using its ID.
	PublishEvent(ctx context.Context, event *domain.LedgerEvent) error
	// Close closes the connection
	Close()
}
