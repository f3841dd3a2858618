package state

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	catalogx "github.com/Purvi09/credit-card-advisor/agent/catalog"
	contractx "github.com/Purvi09/credit-card-advisor/agent/contract"
)

// Phase is the session's position in the advisory lifecycle.
type Phase string

const (
	PhaseCollecting   Phase = "collecting"
	PhaseRecommending Phase = "recommending"
	PhaseIdle         Phase = "idle"
)

func (p Phase) Valid() bool {
	switch p {
	case PhaseCollecting, PhaseRecommending, PhaseIdle:
		return true
	}
	return false
}

// UserProfile is the structured financial picture extracted over the
// session. Fields are never cleared: a value is only replaced by a
// strictly more specific later answer. Revision increments on every
// material change, which is how the state machine notices that a
// delivered recommendation has gone stale.
type UserProfile struct {
	Income        *int                               `json:"income,omitempty"`
	Spending      map[contractx.SpendingCategory]int `json:"spending,omitempty"`
	Preferences   []string                           `json:"preferences,omitempty"`
	CreditScore   string                             `json:"credit_score,omitempty"`
	ExistingCards []string                           `json:"existing_cards,omitempty"`
	Revision      int                                `json:"revision"`
}

func NewUserProfile() *UserProfile {
	return &UserProfile{
		Spending: make(map[contractx.SpendingCategory]int, 4),
	}
}

// SetIncome records monthly income. Negative values are ignored;
// re-stating the same value is a no-op.
func (p *UserProfile) SetIncome(v int) bool {
	if v < 0 {
		return false
	}
	if p.Income != nil && *p.Income == v {
		return false
	}
	p.Income = &v
	p.Revision++
	return true
}

// SetSpending adds or overwrites one category's monthly spend. Entries
// are never removed; the same key with a new amount is a refinement.
func (p *UserProfile) SetSpending(cat contractx.SpendingCategory, amount int) bool {
	if amount < 0 {
		return false
	}
	if p.Spending == nil {
		p.Spending = make(map[contractx.SpendingCategory]int, 4)
	}
	if cur, ok := p.Spending[cat]; ok && cur == amount {
		return false
	}
	p.Spending[cat] = amount
	p.Revision++
	return true
}

// AddPreference adds a benefit tag to the preference set. Tags are
// normalized to lower case; duplicates are no-ops.
func (p *UserProfile) AddPreference(tag string) bool {
	norm := strings.ToLower(strings.TrimSpace(tag))
	if norm == "" {
		return false
	}
	for _, existing := range p.Preferences {
		if existing == norm {
			return false
		}
	}
	p.Preferences = append(p.Preferences, norm)
	p.Revision++
	return true
}

// SetCreditScore records the score band. The "unknown" sentinel never
// overwrites a concrete band: it is strictly less specific.
func (p *UserProfile) SetCreditScore(score string) bool {
	norm := strings.ToLower(strings.TrimSpace(score))
	if norm == "" || norm == p.CreditScore {
		return false
	}
	if norm == contractx.CreditScoreUnknown && p.CreditScore != "" {
		return false
	}
	p.CreditScore = norm
	p.Revision++
	return true
}

// AddExistingCard appends a card the user already holds. Order is
// preserved; duplicates are no-ops.
func (p *UserProfile) AddExistingCard(name string) bool {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return false
	}
	for _, existing := range p.ExistingCards {
		if strings.EqualFold(existing, trimmed) {
			return false
		}
	}
	p.ExistingCards = append(p.ExistingCards, trimmed)
	p.Revision++
	return true
}

// ReadyForRecommendation reports whether the Collecting → Recommending
// preconditions hold: income set, two spending categories, at least one
// preference.
func (p *UserProfile) ReadyForRecommendation() bool {
	return p.Income != nil && len(p.Spending) >= 2 && len(p.Preferences) > 0
}

// SpendingInOrder returns the recorded spending entries in the
// canonical category order. Map iteration order must never leak into
// anything user-visible or score-relevant.
func (p *UserProfile) SpendingInOrder() []contractx.SpendingCategory {
	cats := make([]contractx.SpendingCategory, 0, len(p.Spending))
	for _, c := range contractx.SpendingCategories() {
		if _, ok := p.Spending[c]; ok {
			cats = append(cats, c)
		}
	}
	// tolerate categories outside the canonical set, sorted for determinism
	var extra []contractx.SpendingCategory
	for c := range p.Spending {
		if !isCanonicalCategory(c) {
			extra = append(extra, c)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(cats, extra...)
}

func isCanonicalCategory(c contractx.SpendingCategory) bool {
	for _, known := range contractx.SpendingCategories() {
		if known == c {
			return true
		}
	}
	return false
}

/* ------------------------------ SessionState ----------------------------- */

var (
	ErrInvalidSession = errors.New("session id is empty")
	ErrInvalidPhase   = errors.New("invalid session phase")
)

// SessionState is the per-session source of truth: phase, profile,
// history, and the last delivered recommendations. It is mutated only
// under the registry's per-session lock.
type SessionState struct {
	SessionID string `json:"session_id"`
	Phase     Phase  `json:"phase"`

	Profile   *UserProfile     `json:"profile"`
	TurnCount int              `json:"turn_count"`
	History   []contractx.Turn `json:"history,omitempty"`

	// LastRecommendations is replaced wholesale on each recommending
	// cycle; RecommendedRevision is the profile revision it was
	// computed for.
	LastRecommendations []catalogx.CardRecord `json:"last_recommendations,omitempty"`
	RecommendedRevision int                   `json:"recommended_revision,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewSessionState(sessionID string, now time.Time) *SessionState {
	return &SessionState{
		SessionID: sessionID,
		Phase:     PhaseCollecting,
		Profile:   NewUserProfile(),
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
}

func (s *SessionState) Touch(now time.Time) {
	s.UpdatedAt = now.UTC()
}

// EnsureProfile makes sure s.Profile is initialized, e.g. after a
// round-trip through an external store.
func (s *SessionState) EnsureProfile() {
	if s.Profile == nil {
		s.Profile = NewUserProfile()
	}
	if s.Profile.Spending == nil {
		s.Profile.Spending = make(map[contractx.SpendingCategory]int, 4)
	}
}

// AppendTurn records one utterance; history is append-only.
func (s *SessionState) AppendTurn(role contractx.Role, text string) {
	s.History = append(s.History, contractx.Turn{Role: role, Text: text})
}

// SetRecommendations replaces the delivered set and pins the profile
// revision it answers.
func (s *SessionState) SetRecommendations(cards []catalogx.CardRecord) {
	s.LastRecommendations = cards
	s.RecommendedRevision = s.Profile.Revision
}

// RecommendationsStale reports whether the profile has materially
// changed since the last delivered set.
func (s *SessionState) RecommendationsStale() bool {
	return s.Profile.Revision != s.RecommendedRevision
}

func (s *SessionState) Validate() error {
	if strings.TrimSpace(s.SessionID) == "" {
		return ErrInvalidSession
	}
	if !s.Phase.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPhase, s.Phase)
	}
	return nil
}
