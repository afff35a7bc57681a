package mq

import (
	"context"
	"encoding/hex"
	"encoding/json"

	"github.com/YessineAmor/stampd/internal/ledger/usecase"
	"github.com/YessineAmor/stampd/internal/pkg/instrument"
	"github.com/YessineAmor/stampd/internal/pkg/messaging"
	"github.com/YessineAmor/stampd/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

const keyOfCorrelationID string = "cID"

type Messaging struct {
	client messaging.Messaging
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Messaging, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) PublishFileStamped(ctx context.Context, msg usecase.FileStampedEvent) error {
	ctx, span := m.ins.Tracer("ledger.outbound.mq").Start(ctx, "PublishFileStamped")
	defer span.End()

	body, err := json.Marshal(event.FileStampedMessage{
		EventID:    msg.EventID,
		FileHash:   msg.FileHash,
		Timestamp:  msg.Timestamp,
		Commitment: hex.EncodeToString(msg.Commitment),
		Audit:      msg.Audit,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	if _, err := m.client.Publish(ctx, event.FileStampedDestination, messaging.OutgoingMessage{
		Body:    body,
		Key:     []byte(msg.FileHash),
		Headers: []messaging.Header{{Key: keyOfCorrelationID, Value: []byte(cID)}},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
