package usecase

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/YessineAmor/stampd/internal/ledger/entity"
	"github.com/YessineAmor/stampd/internal/pkg/goerror"
	"github.com/YessineAmor/stampd/internal/pkg/idempotency"
	"github.com/YessineAmor/stampd/internal/pkg/storage"
	"github.com/samber/lo"
)

const stampExportPageSize int32 = 1_000

const stampExportIdempotencyKey string = "ledger:stamp-export"

type StampExportOutput struct {
	Bucket string
	Key    string
	Count  int64
}

type stampExportRow struct {
	FileHash    string `json:"file_hash"`
	Timestamp   uint64 `json:"timestamp"`
	Commitment  string `json:"commitment"`
	Attestation string `json:"attestation,omitempty"`
	UpdatedAt   string `json:"updated_at"`
}

// StampExport writes a JSON snapshot of the whole ledger to object storage.
// Concurrent exports are rejected while one is still running.
func (s *Usecase) StampExport(ctx context.Context) (*StampExportOutput, error) {
	ctx, span := s.startSpan(ctx, "StampExport")
	defer span.End()

	if s.storage == nil {
		return nil, goerror.NewBusiness("export storage is not configured", goerror.CodeInternal)
	}

	var out *StampExportOutput
	run := func(ctx context.Context) error {
		result, err := s.exportSnapshot(ctx)
		if err != nil {
			return err
		}
		out = result
		return nil
	}

	if s.idem == nil {
		if err := run(ctx); err != nil {
			return nil, err
		}
		return out, nil
	}

	err := s.idem.Exec(ctx, stampExportIdempotencyKey, run,
		idempotency.WithLockDuration(5*time.Minute),
		idempotency.WithStateTTL(time.Second),
	)
	if errors.Is(err, idempotency.ErrAlreadyInProgress) {
		return nil, goerror.NewBusiness("an export is already in progress", goerror.CodeConflict)
	}
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (s *Usecase) exportSnapshot(ctx context.Context) (*StampExportOutput, error) {
	filterData := entity.StampListFilterData{
		OrderDirection: "asc",
		Size:           stampExportPageSize,
	}

	var (
		records []entity.StampRecord
		page    int64 = 1
		total   int64
	)

	for {
		filterData.Offset = (page - 1) * int64(stampExportPageSize)

		pageRecords, count, err := s.repoDB.ListStamps(ctx, filterData)
		if err != nil {
			slog.ErrorContext(ctx, "failed to repo export stamps", "error", err)
			return nil, goerror.NewServer(err)
		}

		if page == 1 {
			total = count
			if total == 0 {
				break
			}
			records = make([]entity.StampRecord, 0, min(total, int64(stampExportPageSize)))
		}

		records = append(records, pageRecords...)

		if int64(len(records)) >= total || len(pageRecords) == 0 {
			break
		}

		page++
	}

	rows := lo.Map(records, func(r entity.StampRecord, _ int) stampExportRow {
		return stampExportRow{
			FileHash:    r.FileHash,
			Timestamp:   r.Timestamp,
			Commitment:  hex.EncodeToString(r.Commitment),
			Attestation: hex.EncodeToString(r.Attestation),
			UpdatedAt:   r.UpdatedAt.UTC().Format(time.RFC3339),
		}
	})

	body, err := json.Marshal(rows)
	if err != nil {
		slog.ErrorContext(ctx, "failed to encode stamp export", "error", err)
		return nil, goerror.NewServer(err)
	}

	bucket := strings.TrimSpace(s.cfg.GetString("modules.ledger.export_bucket"))
	key := "exports/stamps-" + s.oid.Generate() + ".json"

	if _, err := s.storage.PutObject(ctx, bucket, key, bytes.NewReader(body), storage.PutOptions{
		Size:        int64(len(body)),
		ContentType: "application/json",
	}); err != nil {
		slog.ErrorContext(ctx, "failed to upload stamp export", "bucket", bucket, "key", key, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &StampExportOutput{
		Bucket: bucket,
		Key:    key,
		Count:  int64(len(records)),
	}, nil
}
