package inbound

import (
	"context"

	"github.com/YessineAmor/stampd/internal/ledger/usecase"
)

type ucConsumer interface {
	ConsumeStampRequested(ctx context.Context, in usecase.ConsumeStampRequestedInput) error
}

type uc interface {
	ucConsumer

	Stamp(ctx context.Context, in usecase.StampInput) (*usecase.StampOutput, error)
	GetStamp(ctx context.Context, in usecase.GetStampInput) (*usecase.GetStampOutput, error)
	VerifyStamp(ctx context.Context, in usecase.VerifyStampInput) (*usecase.VerifyStampOutput, error)
	StampList(ctx context.Context, in usecase.StampListInput) (*usecase.StampListOutput, error)
	StampExport(ctx context.Context) (*usecase.StampExportOutput, error)
}
