package application

import (
	"github.com/felixgeelhaar/prioritiai/internal/shared/domain"
	"github.com/google/uuid"
)

// EventMetadataFor builds the metadata for events raised while handling one
// command. A correlation id that parses as a UUID is kept so the events can be
// traced to the inbound request. Anything else gets a fresh id.
func EventMetadataFor(actor, correlationID string) domain.EventMetadata {
	corr, err := uuid.Parse(correlationID)
	if err != nil {
		corr = uuid.New()
	}
	return domain.EventMetadata{
		CorrelationID: corr,
		CausationID:   uuid.New(),
		Actor:         actor,
	}
}

// StampEvents copies md onto every event that accepts metadata and reports
// how many did.
func StampEvents(events []domain.DomainEvent, md domain.EventMetadata) int {
	n := 0
	for _, ev := range events {
		if s, ok := ev.(interface{ SetMetadata(domain.EventMetadata) }); ok {
			s.SetMetadata(md)
			n++
		}
	}
	return n
}
