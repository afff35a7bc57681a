package usecase

import (
	"context"
	"log/slog"
)

type ConsumeStampRequestedInput struct {
	FileHash string
}

// ConsumeStampRequested handles queue-fed stamping. Failures are logged and
// swallowed so the message is not redelivered forever; the requester can
// always re-publish.
func (s *Usecase) ConsumeStampRequested(ctx context.Context, in ConsumeStampRequestedInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeStampRequested")
	defer span.End()

	if _, err := s.Stamp(ctx, StampInput{FileHash: in.FileHash}); err != nil {
		slog.ErrorContext(ctx, "failed to stamp from queue", "file_hash", in.FileHash, "error", err)
	}

	return nil
}
