package inbound

import "time"

type StampRequest struct {
	FileHash string `json:"file_hash"`
}

type StampResponse struct {
	FileHash    string `json:"file_hash"`
	Timestamp   uint64 `json:"timestamp"`
	Commitment  string `json:"commitment"`
	Attestation string `json:"attestation,omitempty"`
}

func (StampResponse) Message() string {
	return "file hash has been stamped"
}

type GetStampResponse struct {
	FileHash    string `json:"file_hash"`
	Timestamp   uint64 `json:"timestamp"`
	Commitment  string `json:"commitment"`
	Attestation string `json:"attestation,omitempty"`
}

type VerifyStampRequest struct {
	FileHash string `json:"file_hash"`
}

type VerifyStampResponse struct {
	FileHash   string `json:"file_hash"`
	Found      bool   `json:"found"`
	Match      bool   `json:"match"`
	Timestamp  uint64 `json:"timestamp,omitempty"`
	Commitment string `json:"commitment,omitempty"`
}

type StampItemResponse struct {
	FileHash   string    `json:"file_hash"`
	Timestamp  uint64    `json:"timestamp"`
	Commitment string    `json:"commitment"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type StampsResponse struct {
	Stamps []StampItemResponse `json:"stamps"`
	// meta
	total int64
	size  int32
	page  int32
}

func (r StampsResponse) Meta() map[string]any {
	return map[string]any{
		"total": r.total,
		"size":  r.size,
		"page":  r.page,
	}
}

type StampExportResponse struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
	Count  int64  `json:"count"`
}

func (StampExportResponse) Message() string {
	return "ledger snapshot has been exported"
}
