package mysql

import (
	"auction-marketplace/internal/domain"
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

type MySQLSchedulerRepository struct {
	q sqlx.ExtContext
}

func NewMySQLSchedulerRepository(q sqlx.ExtContext) *MySQLSchedulerRepository {
	return &MySQLSchedulerRepository{q: q}
}

func (r *MySQLSchedulerRepository) CreateJob(ctx context.Context, job *domain.ScheduledJob) error {
	query := `
        INSERT INTO scheduled_jobs (id, listing_id, job_type, requested_by, run_at, status, created_at)
        VALUES (:id, :listing_id, :job_type, :requested_by, :run_at, :status, :created_at)
    `
	if _, err := sqlx.NamedExecContext(ctx, r.q, query, job); err != nil {
		return fmt.Errorf("CreateJob: %w", err)
	}
	return nil
}

func (r *MySQLSchedulerRepository) GetPendingJobs(ctx context.Context, before time.Time) ([]*domain.ScheduledJob, error) {
	query := `
        SELECT id, listing_id, job_type, requested_by, run_at, status, created_at
        FROM scheduled_jobs
        WHERE status = ? AND run_at <= ?
        ORDER BY run_at ASC
    `
	var jobs []*domain.ScheduledJob
	if err := sqlx.SelectContext(ctx, r.q, &jobs, query, string(domain.JobPending), before); err != nil {
		return nil, fmt.Errorf("GetPendingJobs: %w", err)
	}
	return jobs, nil
}

func (r *MySQLSchedulerRepository) UpdateJobStatus(ctx context.Context, jobID string, status domain.JobStatus) error {
	_, err := r.q.ExecContext(ctx, `UPDATE scheduled_jobs SET status = ? WHERE id = ?`, string(status), jobID)
	if err != nil {
		return fmt.Errorf("UpdateJobStatus: %w", err)
	}
	return nil
}

func (r *MySQLSchedulerRepository) CancelJobsForListing(ctx context.Context, listingID string) error {
	query := `UPDATE scheduled_jobs SET status = ? WHERE listing_id = ? AND status = ?`
	_, err := r.q.ExecContext(ctx, query, string(domain.JobCancelled), listingID, string(domain.JobPending))
	if err != nil {
		return fmt.Errorf("CancelJobsForListing: %w", err)
	}
	return nil
}
