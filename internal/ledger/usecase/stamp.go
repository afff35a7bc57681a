package usecase

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/YessineAmor/stampd/internal/ledger/entity"
	"github.com/YessineAmor/stampd/internal/pkg/clock"
	"github.com/YessineAmor/stampd/internal/pkg/goerror"
)

type StampInput struct {
	// FileHash is an opaque caller-supplied string. Any value is accepted,
	// including the empty string; no length or charset rules apply.
	FileHash string
}

type StampOutput struct {
	FileHash    string
	Timestamp   uint64
	Commitment  []byte
	Attestation []byte
}

// Stamp records the current time for a file hash. The time source is read
// exactly once per call and the resulting record unconditionally replaces
// any earlier stamp for the same hash.
func (s *Usecase) Stamp(ctx context.Context, in StampInput) (*StampOutput, error) {
	ctx, span := s.startSpan(ctx, "Stamp")
	defer span.End()

	now := clock.UnixNano(s.clock)
	commitment := s.hasher.Sum(in.FileHash + strconv.FormatUint(now, 10))

	var attestation []byte
	if s.tsa != nil && s.cfg.GetBool("modules.ledger.tsa_enabled") {
		token, err := s.tsa.Timestamp(ctx, bytes.NewReader(commitment))
		if err != nil {
			slog.WarnContext(ctx, "failed to countersign commitment", "file_hash", in.FileHash, "error", err)
		} else {
			attestation = token
		}
	}

	if err := s.repoDB.UpsertStamp(ctx, entity.StampRecord{
		FileHash:    in.FileHash,
		Timestamp:   now,
		Commitment:  commitment,
		Attestation: attestation,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to repo upsert stamp", "file_hash", in.FileHash, "error", err)
		return nil, goerror.NewServer(err)
	}

	audit := fmt.Sprintf("Stamping file '%s' at '%d'", in.FileHash, now)
	slog.InfoContext(ctx, audit)

	if s.repoCache != nil {
		if err := s.repoCache.SetStamp(ctx, in.FileHash, entity.TimestampedFile{
			Timestamp:   now,
			Commitment:  commitment,
			Attestation: attestation,
		}); err != nil {
			slog.WarnContext(ctx, "failed to cache stamp", "file_hash", in.FileHash, "error", err)
		}
	}

	if s.repoMQ != nil {
		var eventID int64
		if s.eventID != nil {
			eventID = s.eventID.Generate()
		}
		if err := s.repoMQ.PublishFileStamped(ctx, FileStampedEvent{
			EventID:    eventID,
			FileHash:   in.FileHash,
			Timestamp:  now,
			Commitment: commitment,
			Audit:      audit,
		}); err != nil {
			slog.WarnContext(ctx, "failed to publish file stamped event", "file_hash", in.FileHash, "error", err)
		}
	}

	return &StampOutput{
		FileHash:    in.FileHash,
		Timestamp:   now,
		Commitment:  commitment,
		Attestation: attestation,
	}, nil
}
