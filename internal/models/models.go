package models

import (
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// BaseModel provides common fields and auto-generated ULID for all models
type BaseModel struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(26)"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// BeforeCreate generates a ULID for the ID field if it's empty
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	return nil
}

// Config is the deployment-wide settings row. Only one row exists; it is
// created on first start.
type Config struct {
	BaseModel
	JWTSecret string `json:"-" gorm:"type:varchar(64);not null"` // 64 hex chars

	// Usage period bookkeeping
	UsagePeriodStart time.Time  `json:"usage_period_start" gorm:"not null"`
	NextUsageResetAt *time.Time `json:"next_usage_reset_at"` // Calculated from the reset schedule
}

// Subscription tiers
const (
	TierFree         = "free"
	TierPro          = "pro"
	TierAgency       = "agency"
	TierGrowthAgency = "growth_agency"
)

// UnlimitedUsage is the limit reported for unmetered tiers
const UnlimitedUsage = -1

var tierLimits = map[string]int{
	TierFree:         5,
	TierPro:          100,
	TierAgency:       500,
	TierGrowthAgency: UnlimitedUsage,
}

// ValidTier reports whether tier is a known subscription tier
func ValidTier(tier string) bool {
	_, ok := tierLimits[tier]
	return ok
}

// TierLimit returns the analyses allowed per period for tier. Unknown tiers
// get the free limit.
func TierLimit(tier string) int {
	if limit, ok := tierLimits[tier]; ok {
		return limit
	}
	return tierLimits[TierFree]
}

// User is an account
type User struct {
	BaseModel
	Email               string    `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash        string    `json:"-" gorm:"not null"`
	FullName            string    `json:"full_name"`
	SubscriptionTier    string    `json:"subscription_tier" gorm:"not null;default:free"`
	OnboardingCompleted bool      `json:"onboarding_completed" gorm:"not null;default:false"`
	EmailVerified       bool      `json:"email_verified" gorm:"not null;default:false"`
	UpdatedAt           time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// Action token purposes
const (
	PurposePasswordReset = "password_reset"
	PurposeEmailVerify   = "email_verify"
)

// ActionToken is a single-use emailed token. Only the SHA-256 hash of the
// token is stored.
type ActionToken struct {
	BaseModel
	UserID    string     `json:"user_id" gorm:"not null;index"`
	Purpose   string     `json:"purpose" gorm:"not null"`
	TokenHash string     `json:"-" gorm:"uniqueIndex;not null"`
	ExpiresAt time.Time  `json:"expires_at" gorm:"not null"`
	UsedAt    *time.Time `json:"used_at"`

	User *User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// Usable reports whether the token can still be redeemed at now
func (t *ActionToken) Usable(now time.Time) bool {
	return t.UsedAt == nil && now.Before(t.ExpiresAt)
}

// UsageEvent records one analysis run by a user
type UsageEvent struct {
	BaseModel
	UserID string `json:"user_id" gorm:"not null;index"`

	User *User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&User{}, &Config{}, &ActionToken{}, &UsageEvent{})
}

// FindByID safely finds a record by string ID
func FindByID[T any](db *gorm.DB, id string, model *T) error {
	return db.Where("id = ?", id).First(model).Error
}
