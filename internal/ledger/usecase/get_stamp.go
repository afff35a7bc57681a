package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/YessineAmor/stampd/internal/ledger/entity"
	"github.com/YessineAmor/stampd/internal/pkg/goerror"
)

type GetStampInput struct {
	FileHash string
}

type GetStampOutput struct {
	FileHash    string
	Timestamp   uint64
	Commitment  []byte
	Attestation []byte
}

// GetStamp returns the stored stamp for a file hash, or the never-stamped
// default record when the hash is unknown. An unknown hash is not an error;
// only storage failures are.
func (s *Usecase) GetStamp(ctx context.Context, in GetStampInput) (*GetStampOutput, error) {
	ctx, span := s.startSpan(ctx, "GetStamp")
	defer span.End()

	if s.repoCache != nil {
		cached, err := s.repoCache.GetStamp(ctx, in.FileHash)
		if err != nil && !errors.Is(err, goerror.ErrNotFound) {
			slog.WarnContext(ctx, "failed to read stamp cache", "file_hash", in.FileHash, "error", err)
		}
		if err == nil && cached != nil {
			return &GetStampOutput{
				FileHash:    in.FileHash,
				Timestamp:   cached.Timestamp,
				Commitment:  cached.Commitment,
				Attestation: cached.Attestation,
			}, nil
		}
	}

	record, err := s.repoDB.GetStamp(ctx, in.FileHash)
	if errors.Is(err, goerror.ErrNotFound) {
		def := entity.DefaultTimestampedFile()
		return &GetStampOutput{
			FileHash:   in.FileHash,
			Timestamp:  def.Timestamp,
			Commitment: def.Commitment,
		}, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get stamp", "file_hash", in.FileHash, "error", err)
		return nil, goerror.NewServer(err)
	}

	if s.repoCache != nil {
		if err := s.repoCache.SetStamp(ctx, in.FileHash, record.TimestampedFile()); err != nil {
			slog.WarnContext(ctx, "failed to cache stamp", "file_hash", in.FileHash, "error", err)
		}
	}

	return &GetStampOutput{
		FileHash:    in.FileHash,
		Timestamp:   record.Timestamp,
		Commitment:  record.Commitment,
		Attestation: record.Attestation,
	}, nil
}
