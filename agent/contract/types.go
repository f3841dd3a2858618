package contract

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one utterance in a session's history.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// SpendingCategory is one of the fixed monthly-spend buckets the advisor
// collects. The set mirrors the catalog's reward-rate dimensions.
type SpendingCategory string

const (
	SpendFuel      SpendingCategory = "fuel"
	SpendTravel    SpendingCategory = "travel"
	SpendGroceries SpendingCategory = "groceries"
	SpendDining    SpendingCategory = "dining"
)

// SpendingCategories lists all categories in canonical order.
func SpendingCategories() []SpendingCategory {
	return []SpendingCategory{SpendFuel, SpendTravel, SpendGroceries, SpendDining}
}

// CreditScoreUnknown is the sentinel for "user does not know their score".
const CreditScoreUnknown = "unknown"
