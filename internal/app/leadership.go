package app

import (
	"context"
	"time"

	"auction-marketplace/internal/domain"
	"auction-marketplace/pkg/logger"
)

// Campaign keeps trying to take the leader key until ctx is done, then
// releases it if held.
func Campaign(ctx context.Context, election domain.LeaderElection, instanceID string, interval time.Duration, log logger.Logger) {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		became, err := election.BecomeLeader(ctx, instanceID)
		switch {
		case err != nil && ctx.Err() == nil:
			log.Error("Failed to attempt leadership", "error", err)
		case became:
			log.Info("Became scheduler leader", "instance_id", instanceID)
		}

		select {
		case <-ctx.Done():
			if err := election.ReleaseLeadership(context.WithoutCancel(ctx), instanceID); err != nil {
				log.Error("Failed to release leadership", "error", err)
			}
			return
		case <-ticker.C:
		}
	}
}
