package db

import (
	"context"

	"github.com/YessineAmor/stampd/internal/ledger/entity"
)

const getStampSQL = `
SELECT file_hash, stamped_at, commitment, attestation, created_at, updated_at
FROM ledger_stamps
WHERE file_hash = $1
`

func (s *DB) GetStamp(ctx context.Context, fileHash string) (_ *entity.StampRecord, err error) {
	ctx, span := s.startSpan(ctx, "GetStamp")
	defer func() { s.endSpan(span, err) }()

	var (
		record    entity.StampRecord
		stampedAt int64
	)
	err = s.conn.QueryRow(ctx, getStampSQL, fileHash).Scan(
		&record.FileHash,
		&stampedAt,
		&record.Commitment,
		&record.Attestation,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, s.mapError(err)
	}

	record.Timestamp = uint64(stampedAt)

	return &record, nil
}
