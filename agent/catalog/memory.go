package catalog

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// MemoryStore keeps the catalog in process memory. It backs DB-less
// deployments and tests; insertion order is preserved and ids are
// assigned sequentially from 1.
type MemoryStore struct {
	mu     sync.RWMutex
	cards  []CardRecord
	nextID int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1}
}

func (s *MemoryStore) Load(_ context.Context, records []CardRecord) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := 0
	for i := range records {
		rec := records[i]
		if err := rec.Validate(); err != nil {
			log.Warn().Err(err).Str("card", rec.Name).Msg("skipping malformed card record")
			continue
		}
		// round-trip through the stored representation so memory and
		// Postgres deployments agree on perks normalization
		rec.PerksRaw = JoinPerks(rec.Perks)
		rec.Perks = SplitPerks(rec.PerksRaw)
		rec.ID = s.nextID
		s.nextID++
		s.cards = append(s.cards, rec)
		stored++
	}
	return stored, nil
}

func (s *MemoryStore) Query(_ context.Context, f Filter) ([]CardRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(strings.TrimSpace(f.EligibilityContains))

	var out []CardRecord
	for _, c := range s.cards {
		if f.MaxMinIncome != nil && c.MinIncome > *f.MaxMinIncome {
			continue
		}
		if len(f.RewardTypes) > 0 && !containsRewardType(f.RewardTypes, c.RewardType) {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(c.Eligibility), needle) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func containsRewardType(set []RewardType, rt RewardType) bool {
	for _, s := range set {
		if s == rt {
			return true
		}
	}
	return false
}
