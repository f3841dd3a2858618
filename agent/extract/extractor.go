package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	contractx "github.com/Purvi09/credit-card-advisor/agent/contract"
	promptx "github.com/Purvi09/credit-card-advisor/agent/prompt"
	statex "github.com/Purvi09/credit-card-advisor/agent/state"
)

const defaultTimeout = 30 * time.Second

// Extractor turns free-text utterances into profile field updates using
// the external text-completion capability. It never clears a field:
// merging obeys the profile's "only refine" mutators, so re-running the
// same utterance is idempotent.
type Extractor struct {
	completer contractx.Completer
	timeout   time.Duration
}

func New(completer contractx.Completer, timeout time.Duration) (*Extractor, error) {
	if completer == nil {
		return nil, errors.New("completer is required")
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Extractor{completer: completer, timeout: timeout}, nil
}

// Update merges any newly identified field values from userText into
// profile and returns the names of the fields that changed. On a failed
// or unparseable completion the profile is left untouched and the error
// wraps contract.ErrExtractionFailed.
func (e *Extractor) Update(ctx context.Context, profile *statex.UserProfile, userText string, history []contractx.Turn) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	raw, err := e.completer.Complete(ctx, promptx.Extractor(), history, userText)
	if err != nil {
		return nil, fmt.Errorf("%w: completion call: %v", contractx.ErrExtractionFailed, err)
	}

	fields, err := parseFields(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrExtractionFailed, err)
	}

	return merge(profile, fields), nil
}

// parseFields digs a JSON object out of the model's reply. The
// capability is untrusted: fences, prose around the object, and loose
// number formats are all tolerated.
func parseFields(raw string) (map[string]any, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 || end <= start {
		return nil, fmt.Errorf("no JSON object in completion response")
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &fields); err != nil {
		return nil, fmt.Errorf("parse completion response: %v", err)
	}
	return fields, nil
}

func merge(profile *statex.UserProfile, fields map[string]any) []string {
	var changed []string

	if v, ok := fields["income"]; ok {
		if income, ok := asInt(v); ok && profile.SetIncome(income) {
			changed = append(changed, "income")
		}
	}

	if v, ok := fields["spending"].(map[string]any); ok {
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			cat := contractx.SpendingCategory(strings.ToLower(strings.TrimSpace(k)))
			if cat == "" {
				continue
			}
			if amount, ok := asInt(v[k]); ok && profile.SetSpending(cat, amount) {
				changed = append(changed, "spending."+string(cat))
			}
		}
	}

	for _, tag := range asStrings(fields["preferences"]) {
		if profile.AddPreference(tag) && !contains(changed, "preferences") {
			changed = append(changed, "preferences")
		}
	}

	if v, ok := fields["credit_score"]; ok {
		if score := asString(v); score != "" && profile.SetCreditScore(score) {
			changed = append(changed, "credit_score")
		}
	}

	for _, name := range asStrings(fields["existing_cards"]) {
		if profile.AddExistingCard(name) && !contains(changed, "existing_cards") {
			changed = append(changed, "existing_cards")
		}
	}

	return changed
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		if n < 0 {
			return 0, false
		}
		return int(n), true
	case string:
		cleaned := strings.ReplaceAll(strings.TrimSpace(n), ",", "")
		parsed, err := strconv.Atoi(cleaned)
		if err != nil || parsed < 0 {
			return 0, false
		}
		return parsed, true
	case json.Number:
		parsed, err := n.Int64()
		if err != nil || parsed < 0 {
			return 0, false
		}
		return int(parsed), true
	default:
		return 0, false
	}
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case float64:
		return strconv.Itoa(int(s))
	default:
		return ""
	}
}

func asStrings(v any) []string {
	switch list := v.(type) {
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s := asString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if trimmed := strings.TrimSpace(list); trimmed != "" {
			return []string{trimmed}
		}
	}
	return nil
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
