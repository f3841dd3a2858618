package state

import (
	"testing"
	"time"

	contractx "github.com/Purvi09/credit-card-advisor/agent/contract"
)

func TestUserProfileSetIncome(t *testing.T) {
	t.Parallel()

	p := NewUserProfile()
	if !p.SetIncome(60000) {
		t.Fatalf("SetIncome(60000) = false, want true")
	}
	if p.Income == nil || *p.Income != 60000 {
		t.Fatalf("Income = %v, want 60000", p.Income)
	}
	if p.Revision != 1 {
		t.Fatalf("Revision = %d, want 1", p.Revision)
	}

	if p.SetIncome(60000) {
		t.Fatalf("SetIncome(same value) = true, want false")
	}
	if p.Revision != 1 {
		t.Fatalf("Revision after no-op = %d, want 1", p.Revision)
	}

	if p.SetIncome(-1) {
		t.Fatalf("SetIncome(-1) = true, want false")
	}
	if *p.Income != 60000 {
		t.Fatalf("Income after rejected update = %d, want 60000", *p.Income)
	}

	if !p.SetIncome(80000) {
		t.Fatalf("SetIncome(80000) = false, want true")
	}
	if p.Revision != 2 {
		t.Fatalf("Revision = %d, want 2", p.Revision)
	}
}

func TestUserProfileSetSpendingRefines(t *testing.T) {
	t.Parallel()

	p := NewUserProfile()
	if !p.SetSpending(contractx.SpendFuel, 3000) {
		t.Fatalf("SetSpending() = false, want true")
	}
	if p.SetSpending(contractx.SpendFuel, 3000) {
		t.Fatalf("SetSpending(same amount) = true, want false")
	}
	if !p.SetSpending(contractx.SpendFuel, 4500) {
		t.Fatalf("SetSpending(new amount) = false, want true")
	}
	if p.Spending[contractx.SpendFuel] != 4500 {
		t.Fatalf("Spending[fuel] = %d, want 4500", p.Spending[contractx.SpendFuel])
	}
	if len(p.Spending) != 1 {
		t.Fatalf("len(Spending) = %d, want 1", len(p.Spending))
	}
}

func TestUserProfileAddPreferenceDedupes(t *testing.T) {
	t.Parallel()

	p := NewUserProfile()
	if !p.AddPreference("  Cashback ") {
		t.Fatalf("AddPreference() = false, want true")
	}
	if p.AddPreference("cashback") {
		t.Fatalf("AddPreference(duplicate) = true, want false")
	}
	if len(p.Preferences) != 1 || p.Preferences[0] != "cashback" {
		t.Fatalf("Preferences = %v, want [cashback]", p.Preferences)
	}
}

func TestUserProfileCreditScoreUnknownNeverOverwrites(t *testing.T) {
	t.Parallel()

	p := NewUserProfile()
	if !p.SetCreditScore("unknown") {
		t.Fatalf("SetCreditScore(unknown) on empty = false, want true")
	}
	if !p.SetCreditScore("700-750") {
		t.Fatalf("SetCreditScore(band) = false, want true")
	}
	if p.SetCreditScore("unknown") {
		t.Fatalf("SetCreditScore(unknown) over band = true, want false")
	}
	if p.CreditScore != "700-750" {
		t.Fatalf("CreditScore = %q, want %q", p.CreditScore, "700-750")
	}
}

func TestUserProfileAddExistingCardCaseInsensitive(t *testing.T) {
	t.Parallel()

	p := NewUserProfile()
	if !p.AddExistingCard("Millennia") {
		t.Fatalf("AddExistingCard() = false, want true")
	}
	if p.AddExistingCard("millennia") {
		t.Fatalf("AddExistingCard(case variant) = true, want false")
	}
	if len(p.ExistingCards) != 1 {
		t.Fatalf("ExistingCards = %v, want one entry", p.ExistingCards)
	}
}

func TestUserProfileReadyForRecommendation(t *testing.T) {
	t.Parallel()

	p := NewUserProfile()
	if p.ReadyForRecommendation() {
		t.Fatalf("empty profile reported ready")
	}

	p.SetIncome(60000)
	p.SetSpending(contractx.SpendFuel, 3000)
	if p.ReadyForRecommendation() {
		t.Fatalf("one spending category reported ready")
	}

	p.SetSpending(contractx.SpendDining, 5000)
	if p.ReadyForRecommendation() {
		t.Fatalf("no preferences reported ready")
	}

	p.AddPreference("cashback")
	if !p.ReadyForRecommendation() {
		t.Fatalf("complete profile reported not ready")
	}
}

func TestUserProfileSpendingInOrder(t *testing.T) {
	t.Parallel()

	p := NewUserProfile()
	p.SetSpending(contractx.SpendDining, 5000)
	p.SetSpending(contractx.SpendFuel, 3000)
	p.SetSpending(contractx.SpendTravel, 8000)

	got := p.SpendingInOrder()
	want := []contractx.SpendingCategory{contractx.SpendFuel, contractx.SpendTravel, contractx.SpendDining}
	if len(got) != len(want) {
		t.Fatalf("SpendingInOrder() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("SpendingInOrder()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSessionStateStaleness(t *testing.T) {
	t.Parallel()

	st := NewSessionState("s1", time.Now())
	st.Profile.SetIncome(60000)
	st.SetRecommendations(nil)

	if st.RecommendationsStale() {
		t.Fatalf("just-pinned recommendations reported stale")
	}

	st.Profile.SetSpending(contractx.SpendFuel, 3000)
	if !st.RecommendationsStale() {
		t.Fatalf("profile change did not mark recommendations stale")
	}
}

func TestSessionStateValidate(t *testing.T) {
	t.Parallel()

	st := NewSessionState("s1", time.Now())
	if err := st.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	st.Phase = Phase("bogus")
	if err := st.Validate(); err == nil {
		t.Fatalf("Validate() accepted invalid phase")
	}

	st = NewSessionState("  ", time.Now())
	if err := st.Validate(); err == nil {
		t.Fatalf("Validate() accepted blank session id")
	}
}
