package services

import (
	"auction-marketplace/internal/domain"
	"auction-marketplace/internal/domain/repositories"
	"auction-marketplace/pkg/logger"
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
)

// CronAuctionScheduler executes due close_auction jobs. Only the instance
// holding the leader key runs them.
type CronAuctionScheduler struct {
	cron           *cron.Cron
	spec           string
	repo           repositories.SchedulerRepository
	auctionMgr     *AuctionManager
	leaderElection domain.LeaderElection
	instanceID     string
	now            func() time.Time
	log            logger.Logger
}

func NewCronAuctionScheduler(repo repositories.SchedulerRepository, auctionMgr *AuctionManager,
	leaderElection domain.LeaderElection, instanceID, spec string, log logger.Logger) *CronAuctionScheduler {
	return &CronAuctionScheduler{
		cron:           cron.New(),
		spec:           spec,
		repo:           repo,
		auctionMgr:     auctionMgr,
		leaderElection: leaderElection,
		instanceID:     instanceID,
		now:            time.Now,
		log:            log,
	}
}

func (s *CronAuctionScheduler) Start(ctx context.Context) error {
	s.log.Info("Starting auction scheduler", "spec", s.spec)

	_, err := s.cron.AddFunc(s.spec, func() {
		s.RunOnce(ctx)
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

func (s *CronAuctionScheduler) Stop() error {
	s.log.Info("Stopping auction scheduler")
	<-s.cron.Stop().Done()
	return nil
}

// RunOnce processes the jobs due now if this instance is the leader.
func (s *CronAuctionScheduler) RunOnce(ctx context.Context) {
	if s.leaderElection != nil {
		isLeader, err := s.leaderElection.IsLeader(ctx, s.instanceID)
		if err != nil {
			s.log.Error("Failed to check leadership", "error", err)
			return
		}
		if !isLeader {
			return
		}
	}
	s.processPendingJobs(ctx)
}

func (s *CronAuctionScheduler) processPendingJobs(ctx context.Context) {
	jobs, err := s.repo.GetPendingJobs(ctx, s.now().UTC())
	if err != nil {
		s.log.Error("Failed to get pending jobs", "error", err)
		return
	}

	for _, job := range jobs {
		s.log.Info("Processing job", "job_id", job.ID, "type", job.JobType, "listing_id", job.ListingID)

		status, err := s.execute(ctx, job)
		if err != nil {
			// Don't mark as executed on error, will retry
			s.log.Error("Failed to execute job", "job_id", job.ID, "error", err)
			continue
		}

		if err := s.repo.UpdateJobStatus(ctx, job.ID, status); err != nil {
			s.log.Error("Failed to update job status", "job_id", job.ID, "status", status, "error", err)
		}
	}
}

// execute returns the final status for the job, or an error if it should be
// retried on the next run.
func (s *CronAuctionScheduler) execute(ctx context.Context, job *domain.ScheduledJob) (domain.JobStatus, error) {
	switch job.JobType {
	case domain.JobCloseAuction:
		_, err := s.auctionMgr.CloseScheduled(ctx, job)
		switch {
		case err == nil, errors.Is(err, domain.ErrAuctionClosed):
			return domain.JobExecuted, nil
		case errors.Is(err, domain.ErrNotListingOwner), errors.Is(err, domain.ErrListingNotFound):
			s.log.Warn("Cancelling job", "job_id", job.ID, "listing_id", job.ListingID, "reason", err.Error())
			return domain.JobCancelled, nil
		default:
			return "", err
		}
	default:
		s.log.Warn("Unknown job type", "job_id", job.ID, "type", job.JobType)
		return domain.JobCancelled, nil
	}
}
