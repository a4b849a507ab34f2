package domain

import (
	"time"

	"github.com/google/uuid"
)

// BaseAggregateRoot carries identity, timestamps, the version used for
// optimistic concurrency and the events raised since the last save.
type BaseAggregateRoot struct {
	id        uuid.UUID
	createdAt time.Time
	updatedAt time.Time
	version   int
	events    []DomainEvent
}

// NewBaseAggregateRoot starts an aggregate at version zero.
func NewBaseAggregateRoot(id uuid.UUID) BaseAggregateRoot {
	now := time.Now().UTC()
	return BaseAggregateRoot{id: id, createdAt: now, updatedAt: now}
}

// RehydrateBaseAggregateRoot restores stored state with no pending events.
func RehydrateBaseAggregateRoot(id uuid.UUID, createdAt, updatedAt time.Time, version int) BaseAggregateRoot {
	return BaseAggregateRoot{id: id, createdAt: createdAt, updatedAt: updatedAt, version: version}
}

func (a *BaseAggregateRoot) ID() uuid.UUID        { return a.id }
func (a *BaseAggregateRoot) CreatedAt() time.Time { return a.createdAt }
func (a *BaseAggregateRoot) UpdatedAt() time.Time { return a.updatedAt }
func (a *BaseAggregateRoot) Version() int         { return a.version }

// DomainEvents returns events raised since the last ClearDomainEvents.
func (a *BaseAggregateRoot) DomainEvents() []DomainEvent { return a.events }

// ClearDomainEvents is called once the events are in the outbox.
func (a *BaseAggregateRoot) ClearDomainEvents() { a.events = nil }

// Raise records one state change: the version advances once however many
// events describe it.
func (a *BaseAggregateRoot) Raise(events ...DomainEvent) {
	a.version++
	a.updatedAt = time.Now().UTC()
	a.events = append(a.events, events...)
}
