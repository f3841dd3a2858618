package recommend

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	catalogx "github.com/Purvi09/credit-card-advisor/agent/catalog"
	contractx "github.com/Purvi09/credit-card-advisor/agent/contract"
)

// RateTable maps reward type and spending category to the fraction of
// monthly spend returned as annual reward value. It is tuning data, not
// logic: deployments override it with a file, the algorithm never
// changes.
type RateTable map[catalogx.RewardType]map[contractx.SpendingCategory]float64

// DefaultRateTable holds illustrative rates. Cashback is tiered by
// category; point currencies use a flat point-to-rupee conversion.
func DefaultRateTable() RateTable {
	return RateTable{
		catalogx.RewardCashback: {
			contractx.SpendFuel:      0.02,
			contractx.SpendTravel:    0.03,
			contractx.SpendGroceries: 0.02,
			contractx.SpendDining:    0.05,
		},
		catalogx.RewardPoints: {
			contractx.SpendFuel:      0.01,
			contractx.SpendTravel:    0.015,
			contractx.SpendGroceries: 0.01,
			contractx.SpendDining:    0.02,
		},
		catalogx.RewardTravelPoints: {
			contractx.SpendFuel:      0.01,
			contractx.SpendTravel:    0.04,
			contractx.SpendGroceries: 0.005,
			contractx.SpendDining:    0.01,
		},
	}
}

// Rate returns the configured rate, zero when the pair is absent.
func (t RateTable) Rate(rt catalogx.RewardType, cat contractx.SpendingCategory) float64 {
	if byCat, ok := t[rt]; ok {
		return byCat[cat]
	}
	return 0
}

// LoadRateTable reads a rate file (yaml/json/toml, decided by
// extension) shaped as reward-type -> category -> rate. Reward-type
// keys are matched case-insensitively with underscores treated as
// spaces, so "reward_points" addresses "Reward Points".
func LoadRateTable(path string) (RateTable, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read rate table: %w", err)
	}

	var raw map[string]map[string]float64
	if err := v.Unmarshal(&raw); err != nil {
		return nil, fmt.Errorf("parse rate table: %w", err)
	}

	table := make(RateTable, len(raw))
	for rewardKey, byCat := range raw {
		rt, ok := canonicalRewardType(rewardKey)
		if !ok {
			return nil, fmt.Errorf("unknown reward type %q in rate table", rewardKey)
		}
		table[rt] = make(map[contractx.SpendingCategory]float64, len(byCat))
		for catKey, rate := range byCat {
			table[rt][contractx.SpendingCategory(strings.ToLower(catKey))] = rate
		}
	}
	return table, nil
}

func canonicalRewardType(key string) (catalogx.RewardType, bool) {
	norm := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(key), "_", " "))
	for _, rt := range []catalogx.RewardType{catalogx.RewardCashback, catalogx.RewardPoints, catalogx.RewardTravelPoints} {
		if norm == strings.ToLower(string(rt)) {
			return rt, true
		}
	}
	return "", false
}
