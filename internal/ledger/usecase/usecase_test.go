package usecase_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/YessineAmor/stampd/internal/ledger/entity"
	"github.com/YessineAmor/stampd/internal/ledger/outbound/memdb"
	"github.com/YessineAmor/stampd/internal/ledger/usecase"
	"github.com/YessineAmor/stampd/internal/pkg/clock"
	"github.com/YessineAmor/stampd/internal/pkg/config"
	"github.com/YessineAmor/stampd/internal/pkg/goerror"
	"github.com/YessineAmor/stampd/internal/pkg/hash"
	"github.com/YessineAmor/stampd/internal/pkg/instrument"
	"github.com/YessineAmor/stampd/internal/pkg/tsa"
	"github.com/YessineAmor/stampd/internal/pkg/validator"
)

type stubConfig struct {
	config.Config
	bools map[string]bool
	strs  map[string]string
}

func (c stubConfig) GetBool(key string) bool     { return c.bools[key] }
func (c stubConfig) GetString(key string) string { return c.strs[key] }

type capturedMQ struct {
	events []usecase.FileStampedEvent
}

func (m *capturedMQ) PublishFileStamped(_ context.Context, msg usecase.FileStampedEvent) error {
	m.events = append(m.events, msg)
	return nil
}

type failingRepoDB struct{}

func (failingRepoDB) UpsertStamp(context.Context, entity.StampRecord) error {
	return errors.New("storage down")
}

func (failingRepoDB) GetStamp(context.Context, string) (*entity.StampRecord, error) {
	return nil, errors.New("storage down")
}

func (failingRepoDB) ListStamps(context.Context, entity.StampListFilterData) ([]entity.StampRecord, int64, error) {
	return nil, 0, errors.New("storage down")
}

func newTestUsecase(t *testing.T, clk clock.Clocker) (*usecase.Usecase, *memdb.Store, *capturedMQ) {
	t.Helper()

	v10, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("failed to build validator: %v", err)
	}

	store := memdb.NewStore(clk)
	mq := &capturedMQ{}

	uc := usecase.NewLedger(usecase.Dependency{
		RepoDB:     store,
		RepoMQ:     mq,
		Config:     stubConfig{},
		Clock:      clk,
		Hasher:     hash.NewKeccak256(),
		Validator:  v10,
		Instrument: instrument.NewNoop(),
	})

	return uc, store, mq
}

func TestStampRoundTrip(t *testing.T) {
	// Arrange
	clk := clock.NewFixed(time.Unix(0, 424242))
	uc, _, _ := newTestUsecase(t, clk)
	ctx := context.Background()

	// Act
	stamped, err := uc.Stamp(ctx, usecase.StampInput{FileHash: "deadbeef"})
	if err != nil {
		t.Fatalf("Stamp returned error: %v", err)
	}
	got, err := uc.GetStamp(ctx, usecase.GetStampInput{FileHash: "deadbeef"})

	// Assert
	if err != nil {
		t.Fatalf("GetStamp returned error: %v", err)
	}
	if got.Timestamp != stamped.Timestamp {
		t.Fatalf("timestamp = %d, want %d", got.Timestamp, stamped.Timestamp)
	}
	if !bytes.Equal(got.Commitment, stamped.Commitment) {
		t.Fatalf("commitment differs between stamp and get")
	}
}

func TestGetStampDefaultOnMiss(t *testing.T) {
	// Arrange
	uc, _, _ := newTestUsecase(t, clock.New())

	// Act
	got, err := uc.GetStamp(context.Background(), usecase.GetStampInput{FileHash: "never-stamped"})

	// Assert
	if err != nil {
		t.Fatalf("GetStamp returned error: %v", err)
	}
	if got.Timestamp != 0 {
		t.Fatalf("timestamp = %d, want 0 for unknown hash", got.Timestamp)
	}
	if len(got.Commitment) != 0 {
		t.Fatalf("commitment = %v, want empty for unknown hash", got.Commitment)
	}
}

func TestStampOverwrite(t *testing.T) {
	// Arrange
	clk := clock.NewFixed(time.Unix(0, 100))
	uc, _, _ := newTestUsecase(t, clk)
	ctx := context.Background()

	// Act
	first, err := uc.Stamp(ctx, usecase.StampInput{FileHash: "h"})
	if err != nil {
		t.Fatalf("first Stamp returned error: %v", err)
	}
	clk.T = time.Unix(0, 200)
	second, err := uc.Stamp(ctx, usecase.StampInput{FileHash: "h"})
	if err != nil {
		t.Fatalf("second Stamp returned error: %v", err)
	}
	got, err := uc.GetStamp(ctx, usecase.GetStampInput{FileHash: "h"})

	// Assert: the last stamp wins and the earlier one is unrecoverable.
	if err != nil {
		t.Fatalf("GetStamp returned error: %v", err)
	}
	if got.Timestamp != second.Timestamp {
		t.Fatalf("timestamp = %d, want %d", got.Timestamp, second.Timestamp)
	}
	if bytes.Equal(got.Commitment, first.Commitment) {
		t.Fatalf("expected the first commitment to be replaced")
	}
}

func TestStampIsolationBetweenHashes(t *testing.T) {
	// Arrange
	clk := clock.NewFixed(time.Unix(0, 100))
	uc, _, _ := newTestUsecase(t, clk)
	ctx := context.Background()

	// Act
	if _, err := uc.Stamp(ctx, usecase.StampInput{FileHash: "a"}); err != nil {
		t.Fatalf("Stamp returned error: %v", err)
	}
	clk.T = time.Unix(0, 200)
	if _, err := uc.Stamp(ctx, usecase.StampInput{FileHash: "b"}); err != nil {
		t.Fatalf("Stamp returned error: %v", err)
	}
	gotA, errA := uc.GetStamp(ctx, usecase.GetStampInput{FileHash: "a"})
	gotB, errB := uc.GetStamp(ctx, usecase.GetStampInput{FileHash: "b"})

	// Assert
	if errA != nil || errB != nil {
		t.Fatalf("GetStamp returned errors: %v, %v", errA, errB)
	}
	if gotA.Timestamp != 100 || gotB.Timestamp != 200 {
		t.Fatalf("stamps bled between hashes: a=%d b=%d", gotA.Timestamp, gotB.Timestamp)
	}
}

func TestStampCommitmentVector(t *testing.T) {
	// Arrange: at logical time 100, stamping "abc123" must commit to the
	// digest of the raw concatenation "abc123100".
	clk := clock.NewFixed(time.Unix(0, 100))
	uc, _, _ := newTestUsecase(t, clk)
	want := hash.NewKeccak256().Sum("abc123100")

	// Act
	got, err := uc.Stamp(context.Background(), usecase.StampInput{FileHash: "abc123"})

	// Assert
	if err != nil {
		t.Fatalf("Stamp returned error: %v", err)
	}
	if got.Timestamp != 100 {
		t.Fatalf("timestamp = %d, want 100", got.Timestamp)
	}
	if !bytes.Equal(got.Commitment, want) {
		t.Fatalf("commitment = %x, want %x", got.Commitment, want)
	}
}

func TestStampDeterminismAcrossInstances(t *testing.T) {
	// Arrange: two independent instances fed the same hash and time sequence
	// must produce identical commitments.
	clkA := clock.NewFixed(time.Unix(0, 777))
	clkB := clock.NewFixed(time.Unix(0, 777))
	ucA, _, _ := newTestUsecase(t, clkA)
	ucB, _, _ := newTestUsecase(t, clkB)
	ctx := context.Background()

	// Act
	outA, errA := ucA.Stamp(ctx, usecase.StampInput{FileHash: "same"})
	outB, errB := ucB.Stamp(ctx, usecase.StampInput{FileHash: "same"})

	// Assert
	if errA != nil || errB != nil {
		t.Fatalf("Stamp returned errors: %v, %v", errA, errB)
	}
	if !bytes.Equal(outA.Commitment, outB.Commitment) {
		t.Fatalf("commitments differ: %x vs %x", outA.Commitment, outB.Commitment)
	}
}

func TestStampAcceptsEmptyFileHash(t *testing.T) {
	// Arrange
	clk := clock.NewFixed(time.Unix(0, 5))
	uc, _, _ := newTestUsecase(t, clk)
	want := hash.NewKeccak256().Sum("5")

	// Act
	got, err := uc.Stamp(context.Background(), usecase.StampInput{FileHash: ""})

	// Assert
	if err != nil {
		t.Fatalf("Stamp returned error: %v", err)
	}
	if !bytes.Equal(got.Commitment, want) {
		t.Fatalf("commitment = %x, want %x", got.Commitment, want)
	}
}

func TestStampPublishesAuditEvent(t *testing.T) {
	// Arrange
	clk := clock.NewFixed(time.Unix(0, 100))
	uc, _, mq := newTestUsecase(t, clk)

	// Act
	if _, err := uc.Stamp(context.Background(), usecase.StampInput{FileHash: "abc123"}); err != nil {
		t.Fatalf("Stamp returned error: %v", err)
	}

	// Assert
	if len(mq.events) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(mq.events))
	}
	event := mq.events[0]
	if event.FileHash != "abc123" || event.Timestamp != 100 {
		t.Fatalf("unexpected event: %+v", event)
	}
	if event.Audit != "Stamping file 'abc123' at '100'" {
		t.Fatalf("audit line = %q", event.Audit)
	}
}

func TestStampWithAttestation(t *testing.T) {
	// Arrange
	clk := clock.NewFixed(time.Unix(0, 100))
	v10, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("failed to build validator: %v", err)
	}
	uc := usecase.NewLedger(usecase.Dependency{
		RepoDB:     memdb.NewStore(clk),
		Config:     stubConfig{bools: map[string]bool{"modules.ledger.tsa_enabled": true}},
		Clock:      clk,
		Hasher:     hash.NewKeccak256(),
		TSA:        tsa.Fake{T: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)},
		Validator:  v10,
		Instrument: instrument.NewNoop(),
	})
	ctx := context.Background()

	// Act
	stamped, err := uc.Stamp(ctx, usecase.StampInput{FileHash: "abc123"})
	if err != nil {
		t.Fatalf("Stamp returned error: %v", err)
	}
	got, err := uc.GetStamp(ctx, usecase.GetStampInput{FileHash: "abc123"})

	// Assert
	if err != nil {
		t.Fatalf("GetStamp returned error: %v", err)
	}
	if len(stamped.Attestation) == 0 {
		t.Fatalf("expected an attestation token")
	}
	if !bytes.Equal(got.Attestation, stamped.Attestation) {
		t.Fatalf("attestation not stored with the stamp")
	}
}

func TestGetStampStorageError(t *testing.T) {
	// Arrange
	v10, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("failed to build validator: %v", err)
	}
	uc := usecase.NewLedger(usecase.Dependency{
		RepoDB:     failingRepoDB{},
		Config:     stubConfig{},
		Clock:      clock.New(),
		Hasher:     hash.NewKeccak256(),
		Validator:  v10,
		Instrument: instrument.NewNoop(),
	})

	// Act
	_, err = uc.GetStamp(context.Background(), usecase.GetStampInput{FileHash: "h"})

	// Assert: a storage failure is an error, not the default record.
	if err == nil {
		t.Fatalf("expected an error from a failing store")
	}
	var gerr *goerror.Error
	if !errors.As(err, &gerr) {
		t.Fatalf("expected a goerror.Error, got %T", err)
	}
}

func TestVerifyStamp(t *testing.T) {
	// Arrange
	clk := clock.NewFixed(time.Unix(0, 100))
	uc, store, _ := newTestUsecase(t, clk)
	ctx := context.Background()
	if _, err := uc.Stamp(ctx, usecase.StampInput{FileHash: "abc123"}); err != nil {
		t.Fatalf("Stamp returned error: %v", err)
	}

	// Act & Assert: stored stamp verifies.
	out, err := uc.VerifyStamp(ctx, usecase.VerifyStampInput{FileHash: "abc123"})
	if err != nil {
		t.Fatalf("VerifyStamp returned error: %v", err)
	}
	if !out.Found || !out.Match {
		t.Fatalf("expected found and matching stamp, got %+v", out)
	}

	// Unknown hash is reported as not found, not an error.
	out, err = uc.VerifyStamp(ctx, usecase.VerifyStampInput{FileHash: "unknown"})
	if err != nil {
		t.Fatalf("VerifyStamp returned error: %v", err)
	}
	if out.Found || out.Match {
		t.Fatalf("expected neither found nor match, got %+v", out)
	}

	// A tampered commitment fails verification.
	if err := store.UpsertStamp(ctx, entity.StampRecord{
		FileHash:   "tampered",
		Timestamp:  100,
		Commitment: []byte{0xde, 0xad},
	}); err != nil {
		t.Fatalf("UpsertStamp returned error: %v", err)
	}
	out, err = uc.VerifyStamp(ctx, usecase.VerifyStampInput{FileHash: "tampered"})
	if err != nil {
		t.Fatalf("VerifyStamp returned error: %v", err)
	}
	if !out.Found || out.Match {
		t.Fatalf("expected found but mismatching stamp, got %+v", out)
	}
}

func TestStampList(t *testing.T) {
	// Arrange
	clk := clock.NewFixed(time.Unix(0, 100))
	uc, _, _ := newTestUsecase(t, clk)
	ctx := context.Background()
	for _, h := range []string{"h1", "h2", "h3"} {
		if _, err := uc.Stamp(ctx, usecase.StampInput{FileHash: h}); err != nil {
			t.Fatalf("Stamp returned error: %v", err)
		}
	}

	// Act
	out, err := uc.StampList(ctx, usecase.StampListInput{Size: 2, Page: 1, SortOrder: "asc"})

	// Assert
	if err != nil {
		t.Fatalf("StampList returned error: %v", err)
	}
	if out.Total != 3 {
		t.Fatalf("total = %d, want 3", out.Total)
	}
	if len(out.Stamps) != 2 {
		t.Fatalf("len(stamps) = %d, want 2", len(out.Stamps))
	}
}

func TestStampListFarPage(t *testing.T) {
	// Arrange
	uc, _, _ := newTestUsecase(t, clock.NewFixed(time.Unix(0, 100)))
	ctx := context.Background()
	if _, err := uc.Stamp(ctx, usecase.StampInput{FileHash: "h1"}); err != nil {
		t.Fatalf("Stamp returned error: %v", err)
	}

	// Act: the offset for the last representable page exceeds int32.
	out, err := uc.StampList(ctx, usecase.StampListInput{Size: 100, Page: 2147483646, SortOrder: "asc"})

	// Assert
	if err != nil {
		t.Fatalf("StampList returned error: %v", err)
	}
	if out.Total != 1 {
		t.Fatalf("total = %d, want 1", out.Total)
	}
	if len(out.Stamps) != 0 {
		t.Fatalf("len(stamps) = %d, want empty page", len(out.Stamps))
	}
}

func TestStampListRejectsOversizedPageSize(t *testing.T) {
	// Arrange
	uc, _, _ := newTestUsecase(t, clock.New())

	// Act
	_, err := uc.StampList(context.Background(), usecase.StampListInput{Size: 500})

	// Assert
	if err == nil {
		t.Fatalf("expected a validation error for size over the cap")
	}
	var gerr *goerror.Error
	if !errors.As(err, &gerr) {
		t.Fatalf("expected a goerror.Error, got %T", err)
	}
	if gerr.Code() != goerror.CodeInvalidInput {
		t.Fatalf("code = %v, want %v", gerr.Code(), goerror.CodeInvalidInput)
	}
}

func TestStampListRejectsBadSortOrder(t *testing.T) {
	// Arrange
	uc, _, _ := newTestUsecase(t, clock.New())

	// Act
	_, err := uc.StampList(context.Background(), usecase.StampListInput{SortOrder: "sideways"})

	// Assert
	if err == nil {
		t.Fatalf("expected a validation error")
	}
	var gerr *goerror.Error
	if !errors.As(err, &gerr) {
		t.Fatalf("expected a goerror.Error, got %T", err)
	}
}
