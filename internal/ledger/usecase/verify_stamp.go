package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/YessineAmor/stampd/internal/pkg/goerror"
)

type VerifyStampInput struct {
	FileHash string
}

type VerifyStampOutput struct {
	FileHash   string
	Found      bool
	Match      bool
	Timestamp  uint64
	Commitment []byte
}

// VerifyStamp recomputes the commitment for a stored stamp and checks it
// against the stored value. Found is false for hashes that were never
// stamped; Match is only meaningful when Found is true.
func (s *Usecase) VerifyStamp(ctx context.Context, in VerifyStampInput) (*VerifyStampOutput, error) {
	ctx, span := s.startSpan(ctx, "VerifyStamp")
	defer span.End()

	record, err := s.repoDB.GetStamp(ctx, in.FileHash)
	if errors.Is(err, goerror.ErrNotFound) {
		return &VerifyStampOutput{FileHash: in.FileHash}, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get stamp", "file_hash", in.FileHash, "error", err)
		return nil, goerror.NewServer(err)
	}

	preimage := in.FileHash + strconv.FormatUint(record.Timestamp, 10)

	return &VerifyStampOutput{
		FileHash:   in.FileHash,
		Found:      true,
		Match:      s.hasher.Verify(record.Commitment, preimage),
		Timestamp:  record.Timestamp,
		Commitment: record.Commitment,
	}, nil
}
