package memdb

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/YessineAmor/stampd/internal/ledger/entity"
	"github.com/YessineAmor/stampd/internal/pkg/clock"
	"github.com/YessineAmor/stampd/internal/pkg/goerror"
)

func TestStoreRoundTrip(t *testing.T) {
	// Arrange
	store := NewStore(clock.NewFixed(time.Unix(0, 100)))
	record := entity.StampRecord{
		FileHash:   "abc123",
		Timestamp:  100,
		Commitment: []byte{0x01, 0x02},
	}

	// Act
	if err := store.UpsertStamp(context.Background(), record); err != nil {
		t.Fatalf("UpsertStamp returned error: %v", err)
	}
	got, err := store.GetStamp(context.Background(), "abc123")

	// Assert
	if err != nil {
		t.Fatalf("GetStamp returned error: %v", err)
	}
	if got.Timestamp != 100 || !bytes.Equal(got.Commitment, []byte{0x01, 0x02}) {
		t.Fatalf("GetStamp = %+v, want stored record", got)
	}
}

func TestStoreGetUnknownHash(t *testing.T) {
	// Arrange
	store := NewStore(clock.New())

	// Act
	_, err := store.GetStamp(context.Background(), "missing")

	// Assert
	if !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreOverwrite(t *testing.T) {
	// Arrange
	store := NewStore(clock.NewFixed(time.Unix(10, 0)))
	ctx := context.Background()

	// Act
	if err := store.UpsertStamp(ctx, entity.StampRecord{FileHash: "h", Timestamp: 1, Commitment: []byte{0xaa}}); err != nil {
		t.Fatalf("first UpsertStamp returned error: %v", err)
	}
	if err := store.UpsertStamp(ctx, entity.StampRecord{FileHash: "h", Timestamp: 2, Commitment: []byte{0xbb}}); err != nil {
		t.Fatalf("second UpsertStamp returned error: %v", err)
	}
	got, err := store.GetStamp(ctx, "h")

	// Assert
	if err != nil {
		t.Fatalf("GetStamp returned error: %v", err)
	}
	if got.Timestamp != 2 || !bytes.Equal(got.Commitment, []byte{0xbb}) {
		t.Fatalf("expected last stamp to win, got %+v", got)
	}
}

func TestStoreIsolationBetweenKeys(t *testing.T) {
	// Arrange
	store := NewStore(clock.New())
	ctx := context.Background()
	if err := store.UpsertStamp(ctx, entity.StampRecord{FileHash: "a", Timestamp: 1, Commitment: []byte{0x0a}}); err != nil {
		t.Fatalf("UpsertStamp returned error: %v", err)
	}
	if err := store.UpsertStamp(ctx, entity.StampRecord{FileHash: "b", Timestamp: 2, Commitment: []byte{0x0b}}); err != nil {
		t.Fatalf("UpsertStamp returned error: %v", err)
	}

	// Act
	gotA, errA := store.GetStamp(ctx, "a")
	gotB, errB := store.GetStamp(ctx, "b")

	// Assert
	if errA != nil || errB != nil {
		t.Fatalf("GetStamp returned errors: %v, %v", errA, errB)
	}
	if gotA.Timestamp != 1 || gotB.Timestamp != 2 {
		t.Fatalf("records bled between keys: a=%+v b=%+v", gotA, gotB)
	}
}

func TestStoreReturnsCopies(t *testing.T) {
	// Arrange
	store := NewStore(clock.New())
	ctx := context.Background()
	original := []byte{0x01, 0x02, 0x03}
	if err := store.UpsertStamp(ctx, entity.StampRecord{FileHash: "h", Timestamp: 1, Commitment: original}); err != nil {
		t.Fatalf("UpsertStamp returned error: %v", err)
	}

	// Act: mutate both the input slice and a returned slice.
	original[0] = 0xff
	first, err := store.GetStamp(ctx, "h")
	if err != nil {
		t.Fatalf("GetStamp returned error: %v", err)
	}
	first.Commitment[1] = 0xee
	second, err := store.GetStamp(ctx, "h")

	// Assert
	if err != nil {
		t.Fatalf("GetStamp returned error: %v", err)
	}
	if !bytes.Equal(second.Commitment, []byte{0x01, 0x02, 0x03}) {
		t.Fatalf("stored commitment was mutated through caller slices: %v", second.Commitment)
	}
}

func TestStoreList(t *testing.T) {
	// Arrange
	base := time.Unix(1000, 0)
	store := NewStore(clock.NewFixed(base))
	ctx := context.Background()
	for _, h := range []string{"h1", "h2", "h3"} {
		if err := store.UpsertStamp(ctx, entity.StampRecord{FileHash: h, Timestamp: 1, Commitment: []byte{0x01}}); err != nil {
			t.Fatalf("UpsertStamp returned error: %v", err)
		}
	}

	// Act
	items, total, err := store.ListStamps(ctx, entity.StampListFilterData{OrderDirection: "asc", Size: 2, Offset: 0})

	// Assert
	if err != nil {
		t.Fatalf("ListStamps returned error: %v", err)
	}
	if total != 3 {
		t.Fatalf("total = %d, want 3", total)
	}
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(items))
	}
	if items[0].FileHash != "h1" || items[1].FileHash != "h2" {
		t.Fatalf("unexpected page ordering: %s, %s", items[0].FileHash, items[1].FileHash)
	}

	items, _, err = store.ListStamps(ctx, entity.StampListFilterData{OrderDirection: "asc", Size: 2, Offset: 2})
	if err != nil {
		t.Fatalf("ListStamps returned error: %v", err)
	}
	if len(items) != 1 || items[0].FileHash != "h3" {
		t.Fatalf("unexpected second page: %+v", items)
	}
}

func TestStoreListOffsetOutOfRange(t *testing.T) {
	// Arrange
	store := NewStore(clock.NewFixed(time.Unix(1000, 0)))
	ctx := context.Background()
	for _, h := range []string{"h1", "h2"} {
		if err := store.UpsertStamp(ctx, entity.StampRecord{FileHash: h, Timestamp: 1, Commitment: []byte{0x01}}); err != nil {
			t.Fatalf("UpsertStamp returned error: %v", err)
		}
	}

	// Act & Assert: offsets past the end and negative offsets must not panic.
	items, total, err := store.ListStamps(ctx, entity.StampListFilterData{OrderDirection: "asc", Size: 100, Offset: 1 << 40})
	if err != nil {
		t.Fatalf("ListStamps returned error: %v", err)
	}
	if total != 2 || len(items) != 0 {
		t.Fatalf("total = %d, len(items) = %d, want 2 and 0", total, len(items))
	}

	items, _, err = store.ListStamps(ctx, entity.StampListFilterData{OrderDirection: "asc", Size: 100, Offset: -5})
	if err != nil {
		t.Fatalf("ListStamps returned error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2 for clamped offset", len(items))
	}
}

func TestStoreConcurrentUpserts(t *testing.T) {
	// Arrange
	store := NewStore(clock.New())
	ctx := context.Background()

	// Act
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = store.UpsertStamp(ctx, entity.StampRecord{
				FileHash:   "shared",
				Timestamp:  uint64(n + 1),
				Commitment: []byte{byte(n)},
			})
		}(i)
	}
	wg.Wait()

	// Assert
	got, err := store.GetStamp(ctx, "shared")
	if err != nil {
		t.Fatalf("GetStamp returned error: %v", err)
	}
	if got.Timestamp == 0 {
		t.Fatalf("expected a stamp to be stored")
	}
	if store.Writes() != 50 {
		t.Fatalf("Writes() = %d, want 50", store.Writes())
	}
}
