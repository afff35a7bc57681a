package inbound

import (
	"bytes"
	"context"
	"encoding/hex"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/YessineAmor/stampd/internal/ledger/usecase"
	"github.com/YessineAmor/stampd/internal/pkg/router"
)

type fakeUC struct {
	stampIn   *usecase.StampInput
	getIn     *usecase.GetStampInput
	verifyIn  *usecase.VerifyStampInput
	listIn    *usecase.StampListInput
	exportRan bool
}

func (f *fakeUC) Stamp(_ context.Context, in usecase.StampInput) (*usecase.StampOutput, error) {
	f.stampIn = &in
	return &usecase.StampOutput{
		FileHash:   in.FileHash,
		Timestamp:  100,
		Commitment: []byte{0xab, 0xcd},
	}, nil
}

func (f *fakeUC) GetStamp(_ context.Context, in usecase.GetStampInput) (*usecase.GetStampOutput, error) {
	f.getIn = &in
	return &usecase.GetStampOutput{FileHash: in.FileHash, Timestamp: 0, Commitment: []byte{}}, nil
}

func (f *fakeUC) VerifyStamp(_ context.Context, in usecase.VerifyStampInput) (*usecase.VerifyStampOutput, error) {
	f.verifyIn = &in
	return &usecase.VerifyStampOutput{FileHash: in.FileHash, Found: true, Match: true, Timestamp: 100}, nil
}

func (f *fakeUC) StampList(_ context.Context, in usecase.StampListInput) (*usecase.StampListOutput, error) {
	f.listIn = &in
	return &usecase.StampListOutput{Page: 1, Size: 10}, nil
}

func (f *fakeUC) StampExport(context.Context) (*usecase.StampExportOutput, error) {
	f.exportRan = true
	return &usecase.StampExportOutput{Bucket: "b", Key: "k", Count: 3}, nil
}

func (f *fakeUC) ConsumeStampRequested(context.Context, usecase.ConsumeStampRequestedInput) error {
	return nil
}

func TestHTTPEndpointStamp(t *testing.T) {
	// Arrange
	uc := &fakeUC{}
	end := &HTTPEndpoint{uc: uc}
	req := httptest.NewRequest("POST", "/api/v1/ledger/stamps", bytes.NewBufferString(`{"file_hash":"abc123"}`))
	req.Header.Set("Content-Type", "application/json")

	// Act
	resp, err := end.Stamp(&router.Request{Request: req})

	// Assert
	if err != nil {
		t.Fatalf("Stamp returned error: %v", err)
	}
	if uc.stampIn == nil || uc.stampIn.FileHash != "abc123" {
		t.Fatalf("usecase received %+v, want file hash abc123", uc.stampIn)
	}
	out, ok := resp.(StampResponse)
	if !ok {
		t.Fatalf("unexpected response type %T", resp)
	}
	if out.Timestamp != 100 || out.Commitment != hex.EncodeToString([]byte{0xab, 0xcd}) {
		t.Fatalf("unexpected response: %+v", out)
	}
}

func TestHTTPEndpointVerifyStamp(t *testing.T) {
	// Arrange
	uc := &fakeUC{}
	end := &HTTPEndpoint{uc: uc}
	req := httptest.NewRequest("POST", "/api/v1/ledger/stamps/verify", strings.NewReader(`{"file_hash":"abc123"}`))
	req.Header.Set("Content-Type", "application/json")

	// Act
	resp, err := end.VerifyStamp(&router.Request{Request: req})

	// Assert
	if err != nil {
		t.Fatalf("VerifyStamp returned error: %v", err)
	}
	out, ok := resp.(VerifyStampResponse)
	if !ok {
		t.Fatalf("unexpected response type %T", resp)
	}
	if !out.Found || !out.Match {
		t.Fatalf("unexpected response: %+v", out)
	}
}

func TestHTTPEndpointStampList(t *testing.T) {
	// Arrange
	uc := &fakeUC{}
	end := &HTTPEndpoint{uc: uc}
	req := httptest.NewRequest("GET", "/api/v1/ledger/stamps?size=5&page=2&sort_order=ASC", nil)

	// Act
	_, err := end.StampList(&router.Request{Request: req})

	// Assert
	if err != nil {
		t.Fatalf("StampList returned error: %v", err)
	}
	if uc.listIn == nil {
		t.Fatalf("usecase was not called")
	}
	if uc.listIn.Size != 5 || uc.listIn.Page != 2 || uc.listIn.SortOrder != "asc" {
		t.Fatalf("usecase received %+v", uc.listIn)
	}
}

func TestHTTPEndpointStampExport(t *testing.T) {
	// Arrange
	uc := &fakeUC{}
	end := &HTTPEndpoint{uc: uc}
	req := httptest.NewRequest("POST", "/api/v1/ledger/stamps-export", nil)

	// Act
	resp, err := end.StampExport(&router.Request{Request: req})

	// Assert
	if err != nil {
		t.Fatalf("StampExport returned error: %v", err)
	}
	if !uc.exportRan {
		t.Fatalf("usecase was not called")
	}
	out, ok := resp.(StampExportResponse)
	if !ok {
		t.Fatalf("unexpected response type %T", resp)
	}
	if out.Count != 3 {
		t.Fatalf("count = %d, want 3", out.Count)
	}
}
