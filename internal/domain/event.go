package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies the transition that produced an operation event
type EventType string

const (
	EventCreated   EventType = "CREATED"
	EventApproved  EventType = "APPROVED"
	EventRejected  EventType = "REJECTED"
	EventDisbursed EventType = "DISBURSED"
	EventCompleted EventType = "COMPLETED"
)

// EventDetail carries the before/after financial snapshot of a transition
type EventDetail map[string]any

// OperationEvent is one entry in the append-only audit trail of an operation.
// Events are written inside the same SQL transaction as their triggering
// transition: a failed transition leaves no event behind. Retrieval is ordered
// by OccurredAt ascending.
type OperationEvent struct {
	ID            uuid.UUID
	OperationID   uuid.UUID
	Type          EventType
	OccurredAt    time.Time
	PriorStatus   OperationStatus
	NewStatus     OperationStatus
	Detail        EventDetail
	CorrelationID string
}
