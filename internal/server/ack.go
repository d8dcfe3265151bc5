package server

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/fenggwsx/StudyShelf/internal/protocol"
)

func (a *App) sendAck(ctx context.Context, session *clientSession, referenceID, status, reason string) {
	ack := protocol.Envelope{
		ID:        uuid.NewString(),
		Type:      protocol.MessageTypeAck,
		Timestamp: time.Now(),
		Payload: protocol.AckPayload{
			ReferenceID: referenceID,
			Status:      status,
			Reason:      reason,
		},
	}
	if err := session.send(ctx, ack); err != nil {
		log.Printf("send ack: %v", err)
	}
}

// reply sends an event answering the envelope referenceID.
func (a *App) reply(ctx context.Context, session *clientSession, referenceID, action string, payload interface{}) error {
	env := protocol.Envelope{
		ID:        uuid.NewString(),
		Type:      protocol.MessageTypeEvent,
		Timestamp: time.Now(),
		Metadata: map[string]interface{}{
			"action":       action,
			"reference_id": referenceID,
		},
		Payload: payload,
	}
	return session.send(ctx, env)
}

// notifyCatalogChanged tells every connected client to refresh its listings.
func (a *App) notifyCatalogChanged(kind, materialID string) {
	a.hub.Broadcast(protocol.Envelope{
		ID:        uuid.NewString(),
		Type:      protocol.MessageTypeEvent,
		Timestamp: time.Now(),
		Metadata: map[string]interface{}{
			"action": protocol.ActionCatalogChanged,
		},
		Payload: protocol.CatalogChange{Kind: kind, MaterialID: materialID},
	})
}
