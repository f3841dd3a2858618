package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	catalogx "github.com/Purvi09/credit-card-advisor/agent/catalog"
	contractx "github.com/Purvi09/credit-card-advisor/agent/contract"
	recommendx "github.com/Purvi09/credit-card-advisor/agent/recommend"
	statex "github.com/Purvi09/credit-card-advisor/agent/state"
)

var ErrInvalidMessage = errors.New("message is empty")

// ProfileExtractor updates a profile from one utterance and reports
// which fields changed.
type ProfileExtractor interface {
	Update(ctx context.Context, profile *statex.UserProfile, userText string, history []contractx.Turn) ([]string, error)
}

// Recommender ranks catalog cards against a profile.
type Recommender interface {
	Recommend(ctx context.Context, profile *statex.UserProfile, store catalogx.Store) ([]recommendx.Match, error)
}

// Advisor is the per-session state machine: it owns the
// collecting → recommending → idle lifecycle and decides, each turn,
// whether to ask the next question or deliver recommendations.
type Advisor struct {
	registry  *statex.Registry
	extractor ProfileExtractor
	engine    Recommender
	catalog   catalogx.Store
}

func New(registry *statex.Registry, extractor ProfileExtractor, engine Recommender, catalog catalogx.Store) (*Advisor, error) {
	if registry == nil {
		return nil, errors.New("session registry is required")
	}
	if extractor == nil {
		return nil, errors.New("profile extractor is required")
	}
	if engine == nil {
		return nil, errors.New("recommendation engine is required")
	}
	if catalog == nil {
		return nil, errors.New("catalog store is required")
	}
	return &Advisor{
		registry:  registry,
		extractor: extractor,
		engine:    engine,
		catalog:   catalog,
	}, nil
}

// HandleTurn processes one inbound utterance for the session and
// returns the reply plus the phase the session ended the turn in.
// History and profile are mutated in place under the registry's
// per-session lock.
func (a *Advisor) HandleTurn(ctx context.Context, sessionID string, userText string) (string, statex.Phase, error) {
	text := strings.TrimSpace(userText)
	if text == "" {
		return "", "", fmt.Errorf("%w: %v", contractx.ErrValidation, ErrInvalidMessage)
	}

	var (
		reply string
		phase statex.Phase
	)
	err := a.registry.Do(ctx, sessionID, func(st *statex.SessionState) error {
		st.EnsureProfile()
		st.TurnCount++

		history := append([]contractx.Turn(nil), st.History...)
		st.AppendTurn(contractx.RoleUser, text)

		changed, extractErr := a.extractor.Update(ctx, st.Profile, text, history)
		if extractErr != nil {
			if !errors.Is(extractErr, contractx.ErrExtractionFailed) {
				return extractErr
			}
			// degrade: profile is untouched, re-ask the pending question
			log.Warn().Err(extractErr).Str("session_id", st.SessionID).Msg("extraction failed, re-asking")
			reply = "Sorry, I didn't quite catch that. " + nextQuestion(st.Profile)
			phase = st.Phase
			st.AppendTurn(contractx.RoleAssistant, reply)
			return nil
		}

		a.transition(st, changed)

		var dispatchErr error
		reply, dispatchErr = a.dispatch(ctx, st)
		if dispatchErr != nil {
			return dispatchErr
		}
		phase = st.Phase
		st.AppendTurn(contractx.RoleAssistant, reply)

		log.Debug().
			Str("session_id", st.SessionID).
			Str("phase", string(st.Phase)).
			Int("turn", st.TurnCount).
			Strs("changed", changed).
			Msg("turn handled")
		return nil
	})
	if err != nil {
		return "", "", err
	}
	return reply, phase, nil
}

// transition applies the phase rules for one turn. A material profile
// change reopens collecting from any phase; the collecting exit fires
// the moment the profile preconditions hold.
func (a *Advisor) transition(st *statex.SessionState, changed []string) {
	if len(changed) > 0 && st.Phase != statex.PhaseCollecting {
		st.Phase = statex.PhaseCollecting
	}
	if st.Phase == statex.PhaseCollecting && st.Profile.ReadyForRecommendation() {
		st.Phase = statex.PhaseRecommending
	}
	// recommendations already delivered for this exact profile: the
	// conversation settles into idle
	if st.Phase == statex.PhaseRecommending && st.RecommendedRevision > 0 && !st.RecommendationsStale() {
		st.Phase = statex.PhaseIdle
	}
}

func (a *Advisor) dispatch(ctx context.Context, st *statex.SessionState) (string, error) {
	switch st.Phase {
	case statex.PhaseRecommending:
		return a.recommend(ctx, st)
	case statex.PhaseIdle:
		return "I've already shared the best matches for your profile. Tell me if your income, spending, or preferences change and I'll take another look.", nil
	default:
		return nextQuestion(st.Profile), nil
	}
}

func (a *Advisor) recommend(ctx context.Context, st *statex.SessionState) (string, error) {
	matches, err := a.engine.Recommend(ctx, st.Profile, a.catalog)
	switch {
	case errors.Is(err, contractx.ErrNoEligibleCards):
		st.SetRecommendations(nil)
		return "I couldn't find a card that matches your income right now. If your income or spending changes, tell me and I'll look again.", nil
	case err != nil:
		return "", err
	}

	cards := make([]catalogx.CardRecord, 0, len(matches))
	for _, m := range matches {
		cards = append(cards, m.Card)
	}
	st.SetRecommendations(cards)

	return formatMatches(st.Profile, matches), nil
}

/* ----------------------------- question script ---------------------------- */

var spendingQuestions = map[contractx.SpendingCategory]string{
	contractx.SpendFuel:      "Roughly how much do you spend on fuel or petrol each month?",
	contractx.SpendTravel:    "How much do you spend on travel (flights, hotels) in a typical month?",
	contractx.SpendGroceries: "What about groceries and shopping, how much per month?",
	contractx.SpendDining:    "And dining or food delivery, what do you spend there monthly?",
}

// nextQuestion picks the first unanswered required field. A populated
// field is never asked again.
func nextQuestion(p *statex.UserProfile) string {
	if p.Income == nil {
		return "To get started, what is your monthly income in rupees?"
	}
	if len(p.Spending) < 2 {
		for _, cat := range contractx.SpendingCategories() {
			if _, ok := p.Spending[cat]; !ok {
				return spendingQuestions[cat]
			}
		}
	}
	if len(p.Preferences) == 0 {
		return "Which benefits matter most to you: cashback, travel rewards, lounge access, or a fuel surcharge waiver?"
	}
	if p.CreditScore == "" {
		return "Do you know your credit score? A band like 700-750 is fine, or just say unknown."
	}
	return "Do you already hold any credit cards? If so, which ones?"
}

/* ---------------------------- reply formatting ---------------------------- */

func formatMatches(p *statex.UserProfile, matches []recommendx.Match) string {
	var sb strings.Builder
	sb.WriteString("Based on your profile, here are my top picks:\n")
	for i, m := range matches {
		card := m.Card
		fmt.Fprintf(&sb, "\n%d. %s (%s)\n", i+1, card.Name, card.Issuer)
		fmt.Fprintf(&sb, "   Why: %s\n", fitReason(p, m))
		fmt.Fprintf(&sb, "   Estimated annual rewards: ~Rs %.0f\n", m.EstimatedAnnualReward)
		if len(card.Perks) > 0 {
			fmt.Fprintf(&sb, "   Key perks: %s\n", strings.Join(card.Perks, ", "))
		}
		fmt.Fprintf(&sb, "   Annual fee: Rs %d\n", card.AnnualFee)
	}
	sb.WriteString("\nWant me to refine these? Tell me more about your spending or preferences.")
	return sb.String()
}

func fitReason(p *statex.UserProfile, m recommendx.Match) string {
	if m.Score > 0 {
		n := m.Score
		if n > len(p.Preferences) {
			n = len(p.Preferences)
		}
		return fmt.Sprintf("%s rewards matching %d of your preferred benefits", m.Card.RewardType, n)
	}
	return fmt.Sprintf("fits your income with %s rewards on your spending", m.Card.RewardType)
}
