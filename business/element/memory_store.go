package element

import (
	"context"
	"sort"
	"sync"

	"adaptiveCreative/domain"

	"github.com/google/uuid"
)

type arenaKey struct {
	brandID string
	key     domain.ElementKey
}

type receiptKey struct {
	rewardID uuid.UUID
	arenaKey
}

// MemoryStore keeps posteriors in a flat arena indexed by brand and key.
type MemoryStore struct {
	mu       sync.RWMutex
	arena    []domain.CreativeElement
	index    map[arenaKey]int
	receipts map[receiptKey]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		index:    make(map[arenaKey]int),
		receipts: make(map[receiptKey]struct{}),
	}
}

// checkReceipt must be called with mu held.
func (s *MemoryStore) checkReceipt(receipt *domain.OutcomeReceipt) (receiptKey, error) {
	if receipt == nil {
		return receiptKey{}, nil
	}
	rk := receiptKey{receipt.RewardID, arenaKey{receipt.BrandID, receipt.Key()}}
	if _, ok := s.receipts[rk]; ok {
		return rk, ErrAlreadyApplied
	}
	return rk, nil
}

func (s *MemoryStore) GetElement(ctx context.Context, brandID string, key domain.ElementKey) (*domain.CreativeElement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[arenaKey{brandID, key}]
	if !ok {
		return nil, nil
	}
	el := s.arena[i]
	return &el, nil
}

func (s *MemoryStore) InsertElement(ctx context.Context, el *domain.CreativeElement, receipt *domain.OutcomeReceipt) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rk, err := s.checkReceipt(receipt)
	if err != nil {
		return false, err
	}
	k := arenaKey{el.BrandID, el.Key()}
	if _, ok := s.index[k]; ok {
		return false, nil
	}
	s.index[k] = len(s.arena)
	s.arena = append(s.arena, *el)
	if receipt != nil {
		s.receipts[rk] = struct{}{}
	}
	return true, nil
}

func (s *MemoryStore) CompareAndSwap(ctx context.Context, el *domain.CreativeElement, expectedVersion int64, receipt *domain.OutcomeReceipt) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rk, err := s.checkReceipt(receipt)
	if err != nil {
		return false, err
	}
	i, ok := s.index[arenaKey{el.BrandID, el.Key()}]
	if !ok || s.arena[i].Version != expectedVersion {
		return false, nil
	}
	s.arena[i] = *el
	if receipt != nil {
		s.receipts[rk] = struct{}{}
	}
	return true, nil
}

func (s *MemoryStore) ListElements(ctx context.Context, brandID string) ([]domain.CreativeElement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.CreativeElement
	for k, i := range s.index {
		if k.brandID == brandID {
			out = append(out, s.arena[i])
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Key().Less(out[j].Key())
	})
	return out, nil
}
