package inbound

import (
	"context"
	"testing"
	"time"

	"github.com/YessineAmor/stampd/internal/ledger/usecase"
	"github.com/YessineAmor/stampd/internal/pkg/instrument"
	"github.com/YessineAmor/stampd/internal/pkg/messaging"
	"github.com/YessineAmor/stampd/internal/pkg/uid"
)

type fakeMessage struct {
	body    []byte
	headers []messaging.Header
}

func (m fakeMessage) Body() []byte                  { return m.body }
func (m fakeMessage) Key() []byte                   { return nil }
func (m fakeMessage) Headers() []messaging.Header   { return m.headers }
func (m fakeMessage) Attributes() map[string]string { return nil }
func (m fakeMessage) ID() string                    { return "" }
func (m fakeMessage) Topic() string                 { return "" }
func (m fakeMessage) Subject() string               { return "" }
func (m fakeMessage) Timestamp() time.Time          { return time.Time{} }
func (m fakeMessage) Ack(context.Context) error     { return nil }

type consumeRecorder struct {
	fakeUC
	consumed []usecase.ConsumeStampRequestedInput
}

func (c *consumeRecorder) ConsumeStampRequested(_ context.Context, in usecase.ConsumeStampRequestedInput) error {
	c.consumed = append(c.consumed, in)
	return nil
}

func TestMQHandlerStampRequested(t *testing.T) {
	// Arrange
	uc := &consumeRecorder{}
	h := &MQHandler{uc: uc, uuid: uid.NewUUID(), ins: instrument.NewNoop()}
	msg := fakeMessage{
		body:    []byte(`{"file_hash":"abc123"}`),
		headers: []messaging.Header{{Key: "cID", Value: []byte("corr-1")}},
	}

	// Act
	if err := h.StampRequested(context.Background(), msg); err != nil {
		t.Fatalf("StampRequested returned error: %v", err)
	}

	// Assert
	if len(uc.consumed) != 1 || uc.consumed[0].FileHash != "abc123" {
		t.Fatalf("usecase received %+v", uc.consumed)
	}
}

func TestMQHandlerStampRequestedBadPayload(t *testing.T) {
	// Arrange
	uc := &consumeRecorder{}
	h := &MQHandler{uc: uc, uuid: uid.NewUUID(), ins: instrument.NewNoop()}
	msg := fakeMessage{body: []byte(`not json`)}

	// Act: malformed payloads are dropped, not retried.
	if err := h.StampRequested(context.Background(), msg); err != nil {
		t.Fatalf("StampRequested returned error: %v", err)
	}

	// Assert
	if len(uc.consumed) != 0 {
		t.Fatalf("expected no usecase calls, got %+v", uc.consumed)
	}
}
