package db

import (
	"context"

	"github.com/YessineAmor/stampd/internal/ledger/entity"
)

// Single-statement upsert so each stamp is one atomic read-modify-write;
// the last writer always wins.
const upsertStampSQL = `
INSERT INTO ledger_stamps (file_hash, stamped_at, commitment, attestation, created_at, updated_at)
VALUES ($1, $2, $3, $4, now(), now())
ON CONFLICT (file_hash) DO UPDATE
SET stamped_at = EXCLUDED.stamped_at,
    commitment = EXCLUDED.commitment,
    attestation = EXCLUDED.attestation,
    updated_at = now()
`

func (s *DB) UpsertStamp(ctx context.Context, record entity.StampRecord) (err error) {
	ctx, span := s.startSpan(ctx, "UpsertStamp")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, upsertStampSQL,
		record.FileHash,
		int64(record.Timestamp),
		record.Commitment,
		record.Attestation,
	)
	return s.mapError(err)
}
