// Package account holds the user-facing account types shared by the CLI's
// credential stores, API client and session manager.
package account

// Tier is a subscription tier. Tiers the client does not know about are kept
// verbatim so a newer backend never breaks an older client.
type Tier string

const (
	TierFree         Tier = "free"
	TierPro          Tier = "pro"
	TierAgency       Tier = "agency"
	TierGrowthAgency Tier = "growth_agency"
)

// Known reports whether t is one of the tiers this build knows about.
func (t Tier) Known() bool {
	switch t {
	case TierFree, TierPro, TierAgency, TierGrowthAgency:
		return true
	}
	return false
}

// Profile is the user snapshot returned by the backend. The local copy is a
// cache only and is dropped together with the session token.
type Profile struct {
	ID                  string `json:"id"`
	Email               string `json:"email"`
	FullName            string `json:"full_name"`
	SubscriptionTier    Tier   `json:"subscription_tier"`
	OnboardingCompleted bool   `json:"onboarding_completed"`
	EmailVerified       bool   `json:"email_verified,omitempty"`
}

// Clone returns a copy of p so cached snapshots can't be mutated by callers.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

// UnlimitedUsage is the limit sentinel the backend sends for unmetered tiers.
const UnlimitedUsage = -1

// Usage is the analysis usage for the current billing period.
type Usage struct {
	Used  int `json:"used"`
	Limit int `json:"limit"`
}

// Unlimited reports whether the usage limit is the unlimited sentinel.
func (u Usage) Unlimited() bool {
	return u.Limit == UnlimitedUsage
}

// Remaining returns how many analyses are left, or -1 when unlimited.
func (u Usage) Remaining() int {
	if u.Unlimited() {
		return UnlimitedUsage
	}
	if u.Used >= u.Limit {
		return 0
	}
	return u.Limit - u.Used
}
