package inbound

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/YessineAmor/stampd/internal/ledger/usecase"
	"github.com/YessineAmor/stampd/internal/pkg/instrument"
	"github.com/YessineAmor/stampd/internal/pkg/messaging"
	"github.com/YessineAmor/stampd/internal/pkg/uid"
	"github.com/YessineAmor/stampd/internal/shared/event"
)

const keyOfCorrelationID string = "cID"

type MQHandler struct {
	uc   uc
	uuid uid.StringID
	ins  instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, headers []messaging.Header) context.Context {
	for i := range headers {
		if headers[i].Key == keyOfCorrelationID {
			return instrument.SetCorrelationID(ctx, string(headers[i].Value))
		}
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

func (h *MQHandler) StampRequested(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg.Headers())

	ctx, span := h.ins.Tracer("ledger.inbound.mq").Start(ctx, "StampRequested")
	defer span.End()

	body := msg.Body()
	slog.InfoContext(ctx, "consume: stamp requested", "msg_body", string(body))

	var payload event.StampRequestedMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of stamp requested", "msg_body", string(body), "error", err)
		return nil
	}

	return h.uc.ConsumeStampRequested(ctx, usecase.ConsumeStampRequestedInput{
		FileHash: payload.FileHash,
	})
}
