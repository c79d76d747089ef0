package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/sirupsen/logrus"
)

// ExpiredTokenCleaner deletes password reset tokens and token revocations
// that are no longer needed.
type ExpiredTokenCleaner interface {
	DeleteExpired(ctx context.Context, now time.Time) (resetTokens, revoked int64, err error)
}

// CleanupTokensTask purges expired reset tokens and revocations.
type CleanupTokensTask struct{}

// Config returns the queue configuration for token cleanup tasks.
func (t CleanupTokensTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "cleanup_tokens",
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// CleanupTokensProcessor creates a processor function for CleanupTokensTask.
func CleanupTokensProcessor(cleaner ExpiredTokenCleaner, log logrus.FieldLogger) backlite.QueueProcessor[CleanupTokensTask] {
	return func(ctx context.Context, _ CleanupTokensTask) error {
		if cleaner == nil {
			return fmt.Errorf("token cleaner not configured")
		}

		resets, revoked, err := cleaner.DeleteExpired(ctx, time.Now())
		if err != nil {
			return fmt.Errorf("cleanup tokens: %w", err)
		}

		log.WithFields(logrus.Fields{
			"reset_tokens": resets,
			"revocations":  revoked,
		}).Info("Cleaned up expired tokens")
		return nil
	}
}

// NewCleanupTokensQueue creates a backlite queue for token cleanup tasks.
func NewCleanupTokensQueue(cleaner ExpiredTokenCleaner, log logrus.FieldLogger) backlite.Queue {
	return backlite.NewQueue(CleanupTokensProcessor(cleaner, log))
}
