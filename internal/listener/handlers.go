package listener

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pglogrepl"
)

// Event names published to NATS. Each message body is an entityEvent
// carrying only the row id; consumers reload the row themselves.
const (
	EventDeploymentCreated = "deployment.created"
	EventDeploymentUpdated = "deployment.updated"
	EventDomainCreated     = "domain.created"
	EventDomainUpdated     = "domain.updated"
)

type entityEvent struct {
	ID string `json:"id"`
}

// handleDMLOperation routes INSERT and UPDATE operations by table.
// DELETE operations are ignored since the API uses soft-delete.
func (s *Service) handleDMLOperation(ctx context.Context, relationID uint32, tuple *pglogrepl.TupleData, operation string) error {
	relation, ok := s.relations[relationID]
	if !ok {
		return fmt.Errorf("unknown relation ID %d", relationID)
	}

	if operation != "INSERT" && operation != "UPDATE" {
		s.logger.Debug("Ignoring operation (soft-delete used)",
			"table", relation.RelationName,
			"operation", operation)
		return nil
	}

	switch relation.RelationName {
	case "deployments":
		return s.handleChange(ctx, tuple, operation, relation, EventDeploymentCreated, EventDeploymentUpdated)
	case "domains":
		return s.handleChange(ctx, tuple, operation, relation, EventDomainCreated, EventDomainUpdated)
	default:
		s.logger.Debug("Ignoring change for unhandled table", "table", relation.RelationName)
		return nil
	}
}

// handleChange extracts the row id from the tuple and publishes the
// created or updated event for it.
func (s *Service) handleChange(
	ctx context.Context,
	tuple *pglogrepl.TupleData,
	operation string,
	relation *pglogrepl.RelationMessageV2,
	createdEvent string,
	updatedEvent string,
) error {
	if tuple == nil {
		return fmt.Errorf("tuple is nil for %s change", relation.RelationName)
	}

	data, err := s.extractTupleData(tuple, relation)
	if err != nil {
		return fmt.Errorf("failed to extract %s data: %w", relation.RelationName, err)
	}

	id := data["id"]
	if id == "" {
		return fmt.Errorf("missing id in %s tuple", relation.RelationName)
	}

	switch operation {
	case "INSERT":
		return s.publishEvent(createdEvent, id)
	case "UPDATE":
		return s.publishEvent(updatedEvent, id)
	default:
		return nil
	}
}

// publishEvent publishes a JSON entity event to NATS
func (s *Service) publishEvent(eventName string, entityID string) error {
	payload, err := json.Marshal(entityEvent{ID: entityID})
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", eventName, err)
	}

	if err := s.natsClient.Publish(eventName, payload); err != nil {
		return fmt.Errorf("failed to publish %s: %w", eventName, err)
	}

	s.logger.Info("Published event", "event", eventName, "entity_id", entityID)
	return nil
}

// extractTupleData extracts column values from a PostgreSQL tuple
func (s *Service) extractTupleData(tuple *pglogrepl.TupleData, relation *pglogrepl.RelationMessageV2) (map[string]string, error) {
	data := make(map[string]string)

	for i, col := range tuple.Columns {
		if i >= len(relation.Columns) {
			continue
		}

		colName := relation.Columns[i].Name
		var value string

		if col.Data != nil {
			value = string(col.Data)
		}

		data[colName] = value
	}

	return data, nil
}
