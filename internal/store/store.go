// Package store holds the document store adapters behind the job and user
// repositories. Every write is a single atomic operation on one document.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/justsurfingit/jobboard/internal/models"
)

var (
	ErrNotFound            = errors.New("store: document not found")
	ErrDuplicate           = errors.New("store: duplicate key")
	ErrNotThreadCollection = errors.New("store: collection does not hold threads")
	ErrUnknownCollection   = errors.New("store: unknown collection")
)

// WriteResult is the store's report for one write. Acknowledged means the
// write was accepted; it says nothing about whether a document matched.
type WriteResult struct {
	Acknowledged  bool   `json:"acknowledged"`
	InsertedID    string `json:"insertedId,omitempty"`
	MatchedCount  int64  `json:"matchedCount"`
	ModifiedCount int64  `json:"modifiedCount"`
	UpsertedCount int64  `json:"upsertedCount"`
	UpsertedID    string `json:"upsertedId,omitempty"`
}

type JobStore interface {
	InsertJob(ctx context.Context, job models.Job) (WriteResult, error)
	FindJobs(ctx context.Context) ([]models.Job, error)
	FindJob(ctx context.Context, id string) (models.Job, error)
	// FindJobsByApplicant returns the jobs with an applicant carrying email,
	// with the applicants field left out of each document.
	FindJobsByApplicant(ctx context.Context, email string) ([]models.Job, error)

	// PushJobField appends elem to field of the job with jobID.
	PushJobField(ctx context.Context, jobID string, field models.Collection, elem interface{}) (WriteResult, error)
	// PushThreadReply appends reply to the replies of the thread with
	// threadID in field, in whichever job holds it.
	PushThreadReply(ctx context.Context, field models.Collection, threadID, reply string) (WriteResult, error)
	FindThreadOwner(ctx context.Context, field models.Collection, threadID string) (string, error)
}

type UserStore interface {
	FindUsers(ctx context.Context) ([]models.User, error)
	FindUserByEmail(ctx context.Context, email string) (models.User, error)
	InsertUser(ctx context.Context, user models.User) (WriteResult, error)
	// UpsertUserEmail creates a user with newID for email unless one exists.
	UpsertUserEmail(ctx context.Context, email, newID string) (WriteResult, error)
}

// checkPush rejects unknown fields and elements whose type does not belong
// in field.
func checkPush(field models.Collection, elem interface{}) error {
	var ok bool
	switch field {
	case models.Applicants:
		_, ok = elem.(models.Applicant)
	case models.ApplicationHistory:
		_, ok = elem.(models.StatusRecord)
	case models.Queries, models.ChatThreads:
		_, ok = elem.(models.Thread)
	case models.Approvals:
		_, ok = elem.(models.Approval)
	default:
		return ErrUnknownCollection
	}
	if !ok {
		return fmt.Errorf("store: %T cannot be pushed to %s", elem, field)
	}
	return nil
}

func checkThreadField(field models.Collection) error {
	if !field.IsThread() {
		return ErrNotThreadCollection
	}
	return nil
}

// normalizeElem gives new threads an empty reply list so later replies can
// be appended to it.
func normalizeElem(elem interface{}) interface{} {
	if t, ok := elem.(models.Thread); ok && t.Replies == nil {
		t.Replies = []string{}
		return t
	}
	return elem
}
