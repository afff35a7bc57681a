package inbound

import (
	"encoding/hex"
	"strings"

	"github.com/YessineAmor/stampd/internal/ledger/entity"
	"github.com/YessineAmor/stampd/internal/ledger/usecase"
	"github.com/YessineAmor/stampd/internal/pkg/router"
	"github.com/samber/lo"
)

type HTTPEndpoint struct {
	uc uc
}

// Stamp records the current time for the submitted file hash. Re-stamping
// the same hash replaces the previous record.
func (h *HTTPEndpoint) Stamp(r *router.Request) (any, error) {
	var req StampRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	out, err := h.uc.Stamp(r.Context(), usecase.StampInput{FileHash: req.FileHash})
	if err != nil {
		return nil, err
	}

	return StampResponse{
		FileHash:    out.FileHash,
		Timestamp:   out.Timestamp,
		Commitment:  hex.EncodeToString(out.Commitment),
		Attestation: hex.EncodeToString(out.Attestation),
	}, nil
}

// GetStamp returns the stored stamp for a file hash. Unknown hashes get the
// default record with timestamp 0 and an empty commitment, not a 404.
func (h *HTTPEndpoint) GetStamp(r *router.Request) (any, error) {
	out, err := h.uc.GetStamp(r.Context(), usecase.GetStampInput{
		FileHash: r.GetParam("file_hash"),
	})
	if err != nil {
		return nil, err
	}

	return GetStampResponse{
		FileHash:    out.FileHash,
		Timestamp:   out.Timestamp,
		Commitment:  hex.EncodeToString(out.Commitment),
		Attestation: hex.EncodeToString(out.Attestation),
	}, nil
}

// VerifyStamp recomputes and checks the commitment for a stored stamp.
func (h *HTTPEndpoint) VerifyStamp(r *router.Request) (any, error) {
	var req VerifyStampRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	out, err := h.uc.VerifyStamp(r.Context(), usecase.VerifyStampInput{FileHash: req.FileHash})
	if err != nil {
		return nil, err
	}

	return VerifyStampResponse{
		FileHash:   out.FileHash,
		Found:      out.Found,
		Match:      out.Match,
		Timestamp:  out.Timestamp,
		Commitment: hex.EncodeToString(out.Commitment),
	}, nil
}

// StampList returns a page of stamps ordered by last update.
func (h *HTTPEndpoint) StampList(r *router.Request) (any, error) {
	size, err := r.GetQueryInt32("size")
	if err != nil {
		return nil, err
	}

	page, err := r.GetQueryInt32("page")
	if err != nil {
		return nil, err
	}

	out, err := h.uc.StampList(r.Context(), usecase.StampListInput{
		Size:      size,
		Page:      page,
		SortOrder: strings.ToLower(strings.TrimSpace(r.GetQuery("sort_order"))),
	})
	if err != nil {
		return nil, err
	}

	return StampsResponse{
		Stamps: lo.Map(out.Stamps, func(item entity.StampRecord, _ int) StampItemResponse {
			return StampItemResponse{
				FileHash:   item.FileHash,
				Timestamp:  item.Timestamp,
				Commitment: hex.EncodeToString(item.Commitment),
				UpdatedAt:  item.UpdatedAt,
			}
		}),
		total: out.Total,
		size:  out.Size,
		page:  out.Page,
	}, nil
}

// StampExport snapshots the whole ledger to object storage.
func (h *HTTPEndpoint) StampExport(r *router.Request) (any, error) {
	out, err := h.uc.StampExport(r.Context())
	if err != nil {
		return nil, err
	}

	return StampExportResponse{
		Bucket: out.Bucket,
		Key:    out.Key,
		Count:  out.Count,
	}, nil
}
