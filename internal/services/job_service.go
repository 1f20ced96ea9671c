package services

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/justsurfingit/jobboard/internal/identity"
	"github.com/justsurfingit/jobboard/internal/metrics"
	"github.com/justsurfingit/jobboard/internal/models"
	"github.com/justsurfingit/jobboard/internal/store"
)

// JobService is the read/create side of the job repository.
type JobService struct {
	Store store.JobStore
	IDs   identity.Allocator
	Log   *logrus.Entry
}

func NewJobService(s store.JobStore, ids identity.Allocator, log *logrus.Entry) *JobService {
	return &JobService{
		Store: s,
		IDs:   ids,
		Log:   log,
	}
}

// CreateJob stores the draft as a new job with empty sub-collections. The
// draft is not validated beyond being an object; the new id is reported as
// InsertedID.
func (s *JobService) CreateJob(ctx context.Context, draft map[string]interface{}) (store.WriteResult, error) {
	job := models.NewJob(s.IDs.NewID(), draft)
	res, err := s.Store.InsertJob(ctx, job)
	if err != nil {
		return store.WriteResult{}, s.storeFailure("insert_job", err)
	}
	s.Log.WithField("job_id", job.ID).Info("job created")
	return res, nil
}

func (s *JobService) GetAllJobs(ctx context.Context) ([]models.Job, error) {
	jobs, err := s.Store.FindJobs(ctx)
	if err != nil {
		return nil, s.storeFailure("find_jobs", err)
	}
	return jobs, nil
}

// GetJobByID returns store.ErrNotFound when no job has id.
func (s *JobService) GetJobByID(ctx context.Context, id string) (models.Job, error) {
	job, err := s.Store.FindJob(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Job{}, err
		}
		return models.Job{}, s.storeFailure("find_job", err)
	}
	return job, nil
}

// FindAppliedJobs lists the jobs email applied to, without their applicants.
func (s *JobService) FindAppliedJobs(ctx context.Context, email string) ([]models.Job, error) {
	jobs, err := s.Store.FindJobsByApplicant(ctx, email)
	if err != nil {
		return nil, s.storeFailure("find_applied_jobs", err)
	}
	return jobs, nil
}

func (s *JobService) storeFailure(op string, err error) error {
	metrics.RecordStoreError(op)
	s.Log.WithError(err).WithField("operation", op).Error("store call failed")
	return err
}
