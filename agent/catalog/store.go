package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	contractx "github.com/Purvi09/credit-card-advisor/agent/contract"
)

// Filter is the fixed query predicate: a conjunction of an income
// ceiling, an optional reward-type set, and an optional free-text
// containment match on eligibility. The store gives no ordering
// guarantee beyond insertion (id) order.
type Filter struct {
	MaxMinIncome        *int
	RewardTypes         []RewardType
	EligibilityContains string
}

// Store is the catalog contract. Query is read-only and side-effect
// free. Load skips (and logs) individual bad records instead of
// aborting the batch; it returns how many records were stored.
type Store interface {
	Load(ctx context.Context, records []CardRecord) (int, error)
	Query(ctx context.Context, f Filter) ([]CardRecord, error)
}

// PostgresConfig configures the bun/pgdriver backing store.
type PostgresConfig struct {
	DSN     string        `envconfig:"DSN" split_words:"true" required:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"5s"`
}

// BunStore persists the catalog in Postgres through bun.
type BunStore struct {
	db *bun.DB
}

func NewBunStore(cfg PostgresConfig) (*BunStore, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, fmt.Errorf("%w: postgres dsn is required", contractx.ErrStoreUnavailable)
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(dsn),
		pgdriver.WithTimeout(cfg.Timeout),
	))
	db := bun.NewDB(sqldb, pgdialect.New())

	return &BunStore{db: db}, nil
}

// Open verifies connectivity and ensures the credit_cards table exists.
// A failure here is ErrStoreUnavailable; the process owner decides
// whether to retry.
func (s *BunStore) Open(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", contractx.ErrStoreUnavailable, err)
	}
	if _, err := s.db.NewCreateTable().
		Model((*CardRecord)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("%w: create credit_cards table: %v", contractx.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *BunStore) Close() error {
	return s.db.Close()
}

func (s *BunStore) Load(ctx context.Context, records []CardRecord) (int, error) {
	stored := 0
	for i := range records {
		rec := records[i]
		if err := rec.Validate(); err != nil {
			log.Warn().Err(err).Str("card", rec.Name).Msg("skipping malformed card record")
			continue
		}
		rec.PerksRaw = JoinPerks(rec.Perks)
		rec.ID = 0
		if _, err := s.db.NewInsert().Model(&rec).Exec(ctx); err != nil {
			// one failed insert must not abort the batch
			log.Warn().Err(err).Str("card", rec.Name).Msg("card insert failed, skipping")
			continue
		}
		stored++
	}
	return stored, nil
}

func (s *BunStore) Query(ctx context.Context, f Filter) ([]CardRecord, error) {
	q := s.db.NewSelect().Model((*[]CardRecord)(nil))

	if f.MaxMinIncome != nil {
		q = q.Where("min_income <= ?", *f.MaxMinIncome)
	}
	if len(f.RewardTypes) > 0 {
		q = q.Where("reward_type IN (?)", bun.In(f.RewardTypes))
	}
	if needle := strings.TrimSpace(f.EligibilityContains); needle != "" {
		q = q.Where("eligibility ILIKE ?", "%"+needle+"%")
	}

	var cards []CardRecord
	if err := q.Order("id ASC").Scan(ctx, &cards); err != nil {
		return nil, fmt.Errorf("%w: query catalog: %v", contractx.ErrStoreUnavailable, err)
	}
	for i := range cards {
		cards[i].Perks = SplitPerks(cards[i].PerksRaw)
	}
	return cards, nil
}
