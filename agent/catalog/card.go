package catalog

import (
	"errors"
	"strings"

	"github.com/uptrace/bun"
)

// RewardType is the card's primary reward currency. Values match the
// catalog ingestion format verbatim.
type RewardType string

const (
	RewardCashback     RewardType = "Cashback"
	RewardPoints       RewardType = "Reward Points"
	RewardTravelPoints RewardType = "Travel Points"
)

// CardRecord is one immutable catalog entry. The store assigns ID on
// insert; perks are persisted comma-joined in a single column and split
// back on read.
type CardRecord struct {
	bun.BaseModel `bun:"table:credit_cards,alias:cc" json:"-"`

	ID          int64      `bun:"id,pk,autoincrement" json:"id"`
	Name        string     `bun:"name,notnull" json:"name"`
	Issuer      string     `bun:"issuer,notnull" json:"issuer"`
	AnnualFee   int        `bun:"annual_fee" json:"annual_fee"`
	RewardType  RewardType `bun:"reward_type" json:"reward_type"`
	Eligibility string     `bun:"eligibility" json:"eligibility"`
	MinIncome   int        `bun:"min_income" json:"min_income"`
	PerksRaw    string     `bun:"perks" json:"-"`
	Perks       []string   `bun:"-" json:"perks,omitempty"`
	ApplyLink   string     `bun:"apply_link" json:"apply_link,omitempty"`
}

var (
	ErrMissingName   = errors.New("card name is required")
	ErrMissingIssuer = errors.New("card issuer is required")
	ErrNegativeField = errors.New("card has a negative numeric field")
)

// Validate reports why a record must be dropped at load time. Records
// are stored whole or not at all.
func (c *CardRecord) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrMissingName
	}
	if strings.TrimSpace(c.Issuer) == "" {
		return ErrMissingIssuer
	}
	if c.AnnualFee < 0 || c.MinIncome < 0 {
		return ErrNegativeField
	}
	return nil
}

// JoinPerks serializes a perks sequence for storage. Entries are trimmed;
// empty entries are dropped.
func JoinPerks(perks []string) string {
	kept := make([]string, 0, len(perks))
	for _, p := range perks {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			kept = append(kept, trimmed)
		}
	}
	return strings.Join(kept, ", ")
}

// SplitPerks is the inverse of JoinPerks. Order is preserved.
func SplitPerks(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	perks := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			perks = append(perks, trimmed)
		}
	}
	return perks
}
