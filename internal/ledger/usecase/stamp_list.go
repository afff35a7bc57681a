package usecase

import (
	"context"
	"log/slog"

	"github.com/YessineAmor/stampd/internal/ledger/entity"
	"github.com/YessineAmor/stampd/internal/pkg/goerror"
)

type StampListInput struct {
	Size      int32  `validate:"gte=0,lte=100"`
	Page      int32  `validate:"gte=0"`
	SortOrder string `validate:"omitempty,oneof=asc desc"` // already trimmed and lowered
}

type StampListOutput struct {
	Page   int32
	Size   int32
	Total  int64
	Stamps []entity.StampRecord
}

func (s *Usecase) StampList(ctx context.Context, in StampListInput) (*StampListOutput, error) {
	ctx, span := s.startSpan(ctx, "StampList")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	if in.Size <= 0 {
		in.Size = 10 // default limit
	}
	if in.SortOrder != "asc" {
		in.SortOrder = "desc"
	}

	filterData := entity.StampListFilterData{
		OrderDirection: in.SortOrder,
		Size:           in.Size,
		// widen before multiplying, int32 math would wrap for large pages
		Offset: int64(max(in.Page, 1)-1) * int64(in.Size),
	}

	stamps, count, err := s.repoDB.ListStamps(ctx, filterData)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list stamps", "error", err)
		return nil, goerror.NewServer(err)
	}

	return &StampListOutput{
		Page:   max(in.Page, 1),
		Size:   in.Size,
		Total:  count,
		Stamps: stamps,
	}, nil
}
