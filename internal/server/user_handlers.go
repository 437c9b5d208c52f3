package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/coldread-dev/coldread/internal/models"
)

// UsageResponse is the current period's analysis usage. Limit is -1 for
// unlimited tiers.
type UsageResponse struct {
	Used  int64 `json:"used"`
	Limit int   `json:"limit"`
}

// UpdatePlanRequest represents a subscription tier change
type UpdatePlanRequest struct {
	SubscriptionTier string `json:"subscription_tier" validate:"required,oneof=free pro agency growth_agency"`
}

func (s *Server) usageFor(user *models.User) (*UsageResponse, error) {
	var settings models.Config
	if err := s.db.First(&settings).Error; err != nil {
		return nil, err
	}

	var used int64
	if err := s.db.Model(&models.UsageEvent{}).
		Where("user_id = ? AND created_at >= ?", user.ID, settings.UsagePeriodStart).
		Count(&used).Error; err != nil {
		return nil, err
	}

	return &UsageResponse{Used: used, Limit: models.TierLimit(user.SubscriptionTier)}, nil
}

func (s *Server) getUsage(c *gin.Context) {
	user, _ := currentUser(c)

	usage, err := s.usageFor(user)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to compute usage")
		respondInternal(c)
		return
	}

	c.JSON(http.StatusOK, usage)
}

// recordAnalysis counts one analysis against the user's plan
func (s *Server) recordAnalysis(c *gin.Context) {
	user, _ := currentUser(c)

	usage, err := s.usageFor(user)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to compute usage")
		respondInternal(c)
		return
	}
	if usage.Limit != models.UnlimitedUsage && usage.Used >= int64(usage.Limit) {
		respondDetail(c, http.StatusPaymentRequired, "Usage limit reached for your plan")
		return
	}

	if err := s.db.Create(&models.UsageEvent{
		BaseModel: models.BaseModel{CreatedAt: s.now().UTC()},
		UserID:    user.ID,
	}).Error; err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to record analysis")
		respondInternal(c)
		return
	}
	s.metrics.Analysis(user.SubscriptionTier)

	usage.Used++
	c.JSON(http.StatusCreated, usage)
}

func (s *Server) completeOnboarding(c *gin.Context) {
	user, _ := currentUser(c)

	if !user.OnboardingCompleted {
		if err := s.db.Model(user).Update("onboarding_completed", true).Error; err != nil {
			s.logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to complete onboarding")
			respondInternal(c)
			return
		}
		user.OnboardingCompleted = true
		s.logger.Info().Str("user_id", user.ID).Msg("Onboarding completed")
	}

	c.JSON(http.StatusOK, newUserDetail(user))
}

func (s *Server) updatePlan(c *gin.Context) {
	var req UpdatePlanRequest
	if !s.bindJSON(c, &req) {
		return
	}
	user, _ := currentUser(c)

	if err := s.db.Model(user).Update("subscription_tier", req.SubscriptionTier).Error; err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to update plan")
		respondInternal(c)
		return
	}
	user.SubscriptionTier = req.SubscriptionTier

	s.logger.Info().
		Str("user_id", user.ID).
		Str("subscription_tier", req.SubscriptionTier).
		Msg("Plan changed")

	c.JSON(http.StatusOK, newUserDetail(user))
}
