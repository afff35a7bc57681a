package db

import (
	"context"

	"github.com/YessineAmor/stampd/internal/ledger/entity"
)

const listStampsAscSQL = `
SELECT file_hash, stamped_at, commitment, attestation, created_at, updated_at
FROM ledger_stamps
ORDER BY updated_at ASC, file_hash ASC
LIMIT $1 OFFSET $2
`

const listStampsDescSQL = `
SELECT file_hash, stamped_at, commitment, attestation, created_at, updated_at
FROM ledger_stamps
ORDER BY updated_at DESC, file_hash DESC
LIMIT $1 OFFSET $2
`

const countStampsSQL = `SELECT count(*) FROM ledger_stamps`

func (s *DB) ListStamps(ctx context.Context, filter entity.StampListFilterData) (_ []entity.StampRecord, _ int64, err error) {
	ctx, span := s.startSpan(ctx, "ListStamps")
	defer func() { s.endSpan(span, err) }()

	query := listStampsDescSQL
	if filter.OrderDirection == "asc" {
		query = listStampsAscSQL
	}

	rows, err := s.conn.Query(ctx, query, filter.Size, filter.Offset)
	if err != nil {
		return nil, 0, s.mapError(err)
	}
	defer rows.Close()

	items := make([]entity.StampRecord, 0, filter.Size)
	for rows.Next() {
		var (
			record    entity.StampRecord
			stampedAt int64
		)
		if err = rows.Scan(
			&record.FileHash,
			&stampedAt,
			&record.Commitment,
			&record.Attestation,
			&record.CreatedAt,
			&record.UpdatedAt,
		); err != nil {
			return nil, 0, s.mapError(err)
		}

		record.Timestamp = uint64(stampedAt)
		items = append(items, record)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, s.mapError(err)
	}

	var count int64
	if err = s.conn.QueryRow(ctx, countStampsSQL).Scan(&count); err != nil {
		return nil, 0, s.mapError(err)
	}

	return items, count, nil
}
