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

// AppendResult is the store's write report plus the id allocated for the
// appended sub-document, when the operation allocates one.
type AppendResult struct {
	store.WriteResult
	ID string `json:"id,omitempty"`
}

// AppendService performs every mutation of a job after creation. Each call
// is one atomic store write. A write that matches no job or thread is still
// acknowledged; MatchedCount is the only sign that nothing changed.
type AppendService struct {
	Store store.JobStore
	IDs   identity.Allocator
	Log   *logrus.Entry
}

func NewAppendService(s store.JobStore, ids identity.Allocator, log *logrus.Entry) *AppendService {
	return &AppendService{
		Store: s,
		IDs:   ids,
		Log:   log,
	}
}

func (e *AppendService) ApplyToJob(ctx context.Context, jobID, userID, email string) (AppendResult, error) {
	return e.push(ctx, jobID, models.Applicants, models.Applicant{ID: userID, Email: email}, "")
}

// CloseJob logs a Closed record. It does not stop later appends.
func (e *AppendService) CloseJob(ctx context.Context, jobID string) (AppendResult, error) {
	return e.push(ctx, jobID, models.ApplicationHistory, models.StatusRecord{State: models.StateClosed}, "")
}

func (e *AppendService) OpenThread(ctx context.Context, jobID, userID, email, question string) (AppendResult, error) {
	return e.openThread(ctx, models.Queries, jobID, userID, email, question)
}

func (e *AppendService) OpenChat(ctx context.Context, jobID, userID, email, question string) (AppendResult, error) {
	return e.openThread(ctx, models.ChatThreads, jobID, userID, email, question)
}

func (e *AppendService) openThread(ctx context.Context, field models.Collection, jobID, userID, email, question string) (AppendResult, error) {
	t := models.Thread{
		ID:       e.IDs.NewID(),
		UserID:   userID,
		Email:    email,
		Question: question,
		Replies:  []string{},
	}
	return e.push(ctx, jobID, field, t, t.ID)
}

func (e *AppendService) RecordApproval(ctx context.Context, jobID, userID, email, decision string) (AppendResult, error) {
	a := models.Approval{
		ID:       e.IDs.NewID(),
		UserID:   userID,
		JobID:    jobID,
		Email:    email,
		Decision: decision,
	}
	return e.push(ctx, jobID, models.Approvals, a, a.ID)
}

// ReplyToThread appends reply to the query thread with threadID in whichever
// job holds it.
func (e *AppendService) ReplyToThread(ctx context.Context, threadID, reply string) (AppendResult, error) {
	return e.reply(ctx, models.Queries, threadID, reply)
}

func (e *AppendService) ReplyToChat(ctx context.Context, threadID, reply string) (AppendResult, error) {
	return e.reply(ctx, models.ChatThreads, threadID, reply)
}

// ThreadOwner returns the id of the job holding the thread, or
// store.ErrNotFound.
func (e *AppendService) ThreadOwner(ctx context.Context, field models.Collection, threadID string) (string, error) {
	jobID, err := e.Store.FindThreadOwner(ctx, field, threadID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return "", e.storeFailure("find_thread_owner", err)
	}
	return jobID, err
}

func (e *AppendService) push(ctx context.Context, jobID string, field models.Collection, elem interface{}, id string) (AppendResult, error) {
	res, err := e.Store.PushJobField(ctx, jobID, field, elem)
	if err != nil {
		return AppendResult{}, e.storeFailure("push_"+string(field), err)
	}
	e.observe(field, res, logrus.Fields{"job_id": jobID, "sub_id": id})
	return AppendResult{WriteResult: res, ID: id}, nil
}

func (e *AppendService) reply(ctx context.Context, field models.Collection, threadID, reply string) (AppendResult, error) {
	res, err := e.Store.PushThreadReply(ctx, field, threadID, reply)
	if err != nil {
		return AppendResult{}, e.storeFailure("reply_"+string(field), err)
	}
	e.observe(field, res, logrus.Fields{"thread_id": threadID})
	return AppendResult{WriteResult: res}, nil
}

func (e *AppendService) observe(field models.Collection, res store.WriteResult, fields logrus.Fields) {
	matched := res.MatchedCount > 0
	metrics.RecordAppend(string(field), matched)
	entry := e.Log.WithFields(fields).WithField("collection", field)
	if !matched {
		entry.Warn("append acknowledged but matched nothing")
		return
	}
	entry.Debug("append applied")
}

func (e *AppendService) storeFailure(op string, err error) error {
	metrics.RecordStoreError(op)
	e.Log.WithError(err).WithField("operation", op).Error("store call failed")
	return err
}
