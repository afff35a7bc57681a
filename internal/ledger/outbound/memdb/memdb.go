// Package memdb is an in-memory ledger store. A single mutex serializes
// every read-modify-write, which is enough at this scale; callers always
// get copies, never the stored slices.
package memdb

import (
	"context"
	"sort"
	"sync"

	"github.com/YessineAmor/stampd/internal/ledger/entity"
	"github.com/YessineAmor/stampd/internal/pkg/clock"
	"github.com/YessineAmor/stampd/internal/pkg/goerror"
	"go.uber.org/atomic"
)

type Store struct {
	mu      sync.RWMutex
	records map[string]entity.StampRecord
	clock   clock.Clocker

	writes atomic.Int64
	reads  atomic.Int64
}

func NewStore(clk clock.Clocker) *Store {
	return &Store{
		records: make(map[string]entity.StampRecord),
		clock:   clk,
	}
}

func (s *Store) UpsertStamp(_ context.Context, record entity.StampRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()

	stored := cloneRecord(record)
	stored.CreatedAt = now
	stored.UpdatedAt = now
	if prev, ok := s.records[record.FileHash]; ok {
		stored.CreatedAt = prev.CreatedAt
	}
	s.records[record.FileHash] = stored
	s.writes.Inc()

	return nil
}

func (s *Store) GetStamp(_ context.Context, fileHash string) (*entity.StampRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	s.reads.Inc()

	record, ok := s.records[fileHash]
	if !ok {
		return nil, goerror.ErrNotFound
	}

	out := cloneRecord(record)
	return &out, nil
}

func (s *Store) ListStamps(_ context.Context, filter entity.StampListFilterData) ([]entity.StampRecord, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	s.reads.Inc()

	all := make([]entity.StampRecord, 0, len(s.records))
	for _, record := range s.records {
		all = append(all, cloneRecord(record))
	}

	asc := filter.OrderDirection == "asc"
	sort.Slice(all, func(i, j int) bool {
		if !all[i].UpdatedAt.Equal(all[j].UpdatedAt) {
			if asc {
				return all[i].UpdatedAt.Before(all[j].UpdatedAt)
			}
			return all[i].UpdatedAt.After(all[j].UpdatedAt)
		}
		if asc {
			return all[i].FileHash < all[j].FileHash
		}
		return all[i].FileHash > all[j].FileHash
	})

	total := int64(len(all))

	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return []entity.StampRecord{}, total, nil
	}

	start := int(offset)
	end := len(all)
	if filter.Size > 0 && start+int(filter.Size) < end {
		end = start + int(filter.Size)
	}

	return all[start:end], total, nil
}

// Writes reports how many upserts the store has served.
func (s *Store) Writes() int64 {
	return s.writes.Load()
}

// Reads reports how many lookups the store has served.
func (s *Store) Reads() int64 {
	return s.reads.Load()
}

func cloneRecord(record entity.StampRecord) entity.StampRecord {
	out := record
	out.Commitment = append([]byte(nil), record.Commitment...)
	out.Attestation = append([]byte(nil), record.Attestation...)
	return out
}
