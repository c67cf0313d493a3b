package services

import (
	"time"

	"github.com/planhive/planhive/backend/internal/models"
	"github.com/planhive/planhive/backend/pkg/logger"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

var tokenCleanupCron *cron.Cron

// StartTokenCleanupScheduler purges expired and revoked refresh tokens
// daily at 03:00.
func StartTokenCleanupScheduler(db *gorm.DB) {
	tokenCleanupCron = cron.New()
	_, err := tokenCleanupCron.AddFunc("0 3 * * *", func() {
		CleanupRefreshTokens(db)
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to schedule refresh token cleanup")
		return
	}
	tokenCleanupCron.Start()
	logger.Info().Msg("Refresh token cleanup scheduler started")
}

// StopTokenCleanupScheduler stops the cleanup scheduler.
func StopTokenCleanupScheduler() {
	if tokenCleanupCron != nil {
		tokenCleanupCron.Stop()
	}
}

// CleanupRefreshTokens deletes refresh tokens that expired or were revoked
// more than 24 hours ago. Returns the number of rows removed.
func CleanupRefreshTokens(db *gorm.DB) int64 {
	cutoff := time.Now().Add(-24 * time.Hour)
	result := db.Where("expires_at < ?", time.Now()).
		Or("revoked_at IS NOT NULL AND revoked_at < ?", cutoff).
		Delete(&models.RefreshToken{})
	if result.Error != nil {
		logger.Error().Err(result.Error).Msg("Refresh token cleanup failed")
		return 0
	}
	if result.RowsAffected > 0 {
		logger.Info().Int64("removed", result.RowsAffected).Msg("Expired refresh tokens removed")
	}
	return result.RowsAffected
}
