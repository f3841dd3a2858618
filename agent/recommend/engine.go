package recommend

import (
	"context"
	"fmt"
	"sort"
	"strings"

	catalogx "github.com/Purvi09/credit-card-advisor/agent/catalog"
	contractx "github.com/Purvi09/credit-card-advisor/agent/contract"
	statex "github.com/Purvi09/credit-card-advisor/agent/state"
)

// MaxResults caps how many cards a single recommendation cycle returns.
const MaxResults = 5

// Match pairs an eligible card with its benefit score and projected
// annual reward for the profile it was computed against.
type Match struct {
	Card                  catalogx.CardRecord
	Score                 int
	EstimatedAnnualReward float64
}

// Engine ranks catalog cards against a user profile. Given identical
// (profile, catalog) input the output is identical: scoring, reward
// estimation, and ordering are all deterministic.
type Engine struct {
	rates RateTable
}

func NewEngine(rates RateTable) *Engine {
	if rates == nil {
		rates = DefaultRateTable()
	}
	return &Engine{rates: rates}
}

// Recommend filters by eligibility, scores benefit overlap, estimates
// annual rewards, and returns the top matches. Income is a hard
// precondition: calling before the profile has one is a sequencing bug
// and fails with ErrIncompleteProfile rather than defaulting to zero.
func (e *Engine) Recommend(ctx context.Context, profile *statex.UserProfile, store catalogx.Store) ([]Match, error) {
	if profile == nil || profile.Income == nil {
		return nil, fmt.Errorf("%w: income is not set", contractx.ErrIncompleteProfile)
	}

	cards, err := store.Query(ctx, catalogx.Filter{MaxMinIncome: profile.Income})
	if err != nil {
		return nil, err
	}
	if len(cards) == 0 {
		return nil, contractx.ErrNoEligibleCards
	}

	matches := make([]Match, 0, len(cards))
	for _, card := range cards {
		matches = append(matches, Match{
			Card:                  card,
			Score:                 benefitScore(profile.Preferences, card),
			EstimatedAnnualReward: e.estimateAnnualReward(profile, card),
		})
	}

	// catalog order is the final tie-break, so the sort must be stable
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		if matches[i].EstimatedAnnualReward != matches[j].EstimatedAnnualReward {
			return matches[i].EstimatedAnnualReward > matches[j].EstimatedAnnualReward
		}
		return matches[i].Card.AnnualFee < matches[j].Card.AnnualFee
	})

	if len(matches) > MaxResults {
		matches = matches[:MaxResults]
	}
	return matches, nil
}

// benefitScore counts preference tags found in the card's normalized
// benefit text (reward type plus perks), case-insensitive containment.
func benefitScore(preferences []string, card catalogx.CardRecord) int {
	var sb strings.Builder
	sb.WriteString(strings.ToLower(string(card.RewardType)))
	for _, perk := range card.Perks {
		sb.WriteByte(' ')
		sb.WriteString(strings.ToLower(perk))
	}
	blob := sb.String()

	score := 0
	for _, pref := range preferences {
		norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(pref)), "_", " ")
		if norm != "" && strings.Contains(blob, norm) {
			score++
		}
	}
	return score
}

func (e *Engine) estimateAnnualReward(profile *statex.UserProfile, card catalogx.CardRecord) float64 {
	total := 0.0
	for _, cat := range profile.SpendingInOrder() {
		monthly := profile.Spending[cat]
		total += float64(monthly) * 12 * e.rates.Rate(card.RewardType, cat)
	}
	return total
}
