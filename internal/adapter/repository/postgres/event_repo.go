package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/factorlink/factoring-backend/internal/domain"
)

// eventRepository implements domain.EventRepository
type eventRepository struct {
	q querier
}

// NewEventRepository creates an event repository bound to the connection
func NewEventRepository(db *DB) domain.EventRepository {
	return &eventRepository{q: db}
}

// Append persists one audit event. Events are insert-only.
func (r *eventRepository) Append(ctx context.Context, event *domain.OperationEvent) error {
	detail, err := json.Marshal(event.Detail)
	if err != nil {
		return fmt.Errorf("failed to marshal event detail: %w", err)
	}

	query := `
		INSERT INTO operation_events (id, operation_id, event_type, occurred_at, prior_status, new_status, detail, correlation_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = r.q.ExecContext(ctx, query,
		event.ID,
		event.OperationID,
		string(event.Type),
		event.OccurredAt,
		string(event.PriorStatus),
		string(event.NewStatus),
		detail,
		event.CorrelationID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert operation event: %w", err)
	}
	return nil
}

// ListByOperation retrieves the audit trail of an operation in chronological order
func (r *eventRepository) ListByOperation(ctx context.Context, operationID uuid.UUID) ([]*domain.OperationEvent, error) {
	query := `
		SELECT id, operation_id, event_type, occurred_at, prior_status, new_status, detail, correlation_id
		FROM operation_events
		WHERE operation_id = $1
		ORDER BY occurred_at ASC
	`

	rows, err := r.q.QueryContext(ctx, query, operationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list operation events: %w", err)
	}
	defer rows.Close()

	var events []*domain.OperationEvent
	for rows.Next() {
		var (
			event  domain.OperationEvent
			detail []byte
		)
		err := rows.Scan(
			&event.ID,
			&event.OperationID,
			&event.Type,
			&event.OccurredAt,
			&event.PriorStatus,
			&event.NewStatus,
			&detail,
			&event.CorrelationID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan operation event: %w", err)
		}
		if len(detail) > 0 {
			if err := json.Unmarshal(detail, &event.Detail); err != nil {
				return nil, fmt.Errorf("failed to unmarshal event detail: %w", err)
			}
		}
		events = append(events, &event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate operation events: %w", err)
	}
	return events, nil
}
