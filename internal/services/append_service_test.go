package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justsurfingit/jobboard/internal/identity"
	"github.com/justsurfingit/jobboard/internal/models"
	"github.com/justsurfingit/jobboard/internal/store"
)

func quietLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func newEngine(t *testing.T) (*JobService, *AppendService) {
	t.Helper()
	s := store.NewMemoryJobStore()
	ids := identity.NewUUIDAllocator()
	return NewJobService(s, ids, quietLog()), NewAppendService(s, ids, quietLog())
}

func createJob(t *testing.T, jobs *JobService, title string) string {
	t.Helper()
	res, err := jobs.CreateJob(context.Background(), map[string]interface{}{"title": title})
	require.NoError(t, err)
	require.NotEmpty(t, res.InsertedID)
	return res.InsertedID
}

func TestOpenThreadThenReply(t *testing.T) {
	ctx := context.Background()
	jobs, engine := newEngine(t)
	j1 := createJob(t, jobs, "J1")

	opened, err := engine.OpenThread(ctx, j1, "u1", "a@x.com", "Q?")
	require.NoError(t, err)
	require.NotEmpty(t, opened.ID)

	_, err = engine.ReplyToThread(ctx, opened.ID, "A1")
	require.NoError(t, err)

	job, err := jobs.GetJobByID(ctx, j1)
	require.NoError(t, err)
	require.Len(t, job.Queries, 1)
	assert.Equal(t, "Q?", job.Queries[0].Question)
	assert.Equal(t, []string{"A1"}, job.Queries[0].Replies)
}

func TestApplyIsPureAppend(t *testing.T) {
	ctx := context.Background()
	jobs, engine := newEngine(t)
	j := createJob(t, jobs, "J")

	for i := 0; i < 3; i++ {
		_, err := engine.ApplyToJob(ctx, j, fmt.Sprintf("u%d", i), fmt.Sprintf("u%d@x.com", i))
		require.NoError(t, err)
	}
	before, _ := jobs.GetJobByID(ctx, j)

	_, err := engine.ApplyToJob(ctx, j, "u9", "u9@x.com")
	require.NoError(t, err)

	after, _ := jobs.GetJobByID(ctx, j)
	require.Len(t, after.Applicants, 4)
	assert.Equal(t, before.Applicants, after.Applicants[:3])
	assert.Equal(t, models.Applicant{ID: "u9", Email: "u9@x.com"}, after.Applicants[3])
}

func TestApplyAllowsDuplicateApplications(t *testing.T) {
	ctx := context.Background()
	jobs, engine := newEngine(t)
	j := createJob(t, jobs, "J")

	_, _ = engine.ApplyToJob(ctx, j, "u1", "a@x.com")
	_, _ = engine.ApplyToJob(ctx, j, "u1", "a@x.com")

	job, _ := jobs.GetJobByID(ctx, j)
	assert.Len(t, job.Applicants, 2)
}

func TestApplyToMissingJobLooksLikeSuccess(t *testing.T) {
	_, engine := newEngine(t)

	res, err := engine.ApplyToJob(context.Background(), "missing", "u1", "a@x.com")
	require.NoError(t, err)
	assert.True(t, res.Acknowledged)
	assert.Zero(t, res.MatchedCount)
}

func TestReplyIsolatedToTargetThread(t *testing.T) {
	ctx := context.Background()
	jobs, engine := newEngine(t)
	j1 := createJob(t, jobs, "J1")
	j2 := createJob(t, jobs, "J2")

	a, _ := engine.OpenThread(ctx, j1, "u1", "a@x.com", "first")
	b, _ := engine.OpenThread(ctx, j1, "u2", "b@x.com", "second")
	c, _ := engine.OpenThread(ctx, j2, "u3", "c@x.com", "third")
	chat, _ := engine.OpenChat(ctx, j2, "u3", "c@x.com", "chat")

	before2, _ := jobs.GetJobByID(ctx, j2)

	_, err := engine.ReplyToThread(ctx, b.ID, "only b")
	require.NoError(t, err)

	after1, _ := jobs.GetJobByID(ctx, j1)
	after2, _ := jobs.GetJobByID(ctx, j2)
	assert.Equal(t, a.ID, after1.Queries[0].ID)
	assert.Empty(t, after1.Queries[0].Replies)
	assert.Equal(t, []string{"only b"}, after1.Queries[1].Replies)
	assert.Equal(t, before2, after2)
	assert.Equal(t, c.ID, after2.Queries[0].ID)
	assert.Equal(t, chat.ID, after2.ChatThreads[0].ID)
}

func TestReplyIsNotIdempotent(t *testing.T) {
	ctx := context.Background()
	jobs, engine := newEngine(t)
	j := createJob(t, jobs, "J")
	th, _ := engine.OpenThread(ctx, j, "u1", "a@x.com", "Q?")

	_, _ = engine.ReplyToThread(ctx, th.ID, "same")
	_, _ = engine.ReplyToThread(ctx, th.ID, "same")

	job, _ := jobs.GetJobByID(ctx, j)
	assert.Equal(t, []string{"same", "same"}, job.Queries[0].Replies)
}

func TestReplyToChatDoesNotReachQueries(t *testing.T) {
	ctx := context.Background()
	jobs, engine := newEngine(t)
	j := createJob(t, jobs, "J")
	q, _ := engine.OpenThread(ctx, j, "u1", "a@x.com", "Q?")

	res, err := engine.ReplyToChat(ctx, q.ID, "wrong kind")
	require.NoError(t, err)
	assert.True(t, res.Acknowledged)
	assert.Zero(t, res.MatchedCount)

	job, _ := jobs.GetJobByID(ctx, j)
	assert.Empty(t, job.Queries[0].Replies)
}

func TestAllocatedIDsAreUnique(t *testing.T) {
	ctx := context.Background()
	jobs, engine := newEngine(t)
	j1 := createJob(t, jobs, "J1")
	j2 := createJob(t, jobs, "J2")

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		for _, j := range []string{j1, j2} {
			th, err := engine.OpenThread(ctx, j, "u", "e@x.com", "q")
			require.NoError(t, err)
			ch, err := engine.OpenChat(ctx, j, "u", "e@x.com", "q")
			require.NoError(t, err)
			ap, err := engine.RecordApproval(ctx, j, "u", "e@x.com", "approved")
			require.NoError(t, err)
			for _, id := range []string{th.ID, ch.ID, ap.ID} {
				assert.False(t, seen[id], "id %s issued twice", id)
				seen[id] = true
			}
		}
	}
	assert.Len(t, seen, 120)
}

func TestCloseJobIsAdvisory(t *testing.T) {
	ctx := context.Background()
	jobs, engine := newEngine(t)
	j := createJob(t, jobs, "J")

	_, err := engine.CloseJob(ctx, j)
	require.NoError(t, err)
	_, err = engine.CloseJob(ctx, j)
	require.NoError(t, err)

	res, err := engine.ApplyToJob(ctx, j, "u1", "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.MatchedCount)
	_, err = engine.OpenThread(ctx, j, "u1", "a@x.com", "still open?")
	require.NoError(t, err)
	_, err = engine.RecordApproval(ctx, j, "u1", "a@x.com", "approved")
	require.NoError(t, err)

	job, _ := jobs.GetJobByID(ctx, j)
	assert.Equal(t, []models.StatusRecord{{State: models.StateClosed}, {State: models.StateClosed}}, job.ApplicationHistory)
	assert.Len(t, job.Applicants, 1)
	assert.Len(t, job.Queries, 1)
	require.Len(t, job.Approvals, 1)
	assert.Equal(t, j, job.Approvals[0].JobID)
	assert.Equal(t, "approved", job.Approvals[0].Decision)
}

func TestThreadOwner(t *testing.T) {
	ctx := context.Background()
	jobs, engine := newEngine(t)
	j := createJob(t, jobs, "J")
	ch, _ := engine.OpenChat(ctx, j, "u1", "a@x.com", "hi")

	owner, err := engine.ThreadOwner(ctx, models.ChatThreads, ch.ID)
	require.NoError(t, err)
	assert.Equal(t, j, owner)

	_, err = engine.ThreadOwner(ctx, models.Queries, ch.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

type failingJobStore struct {
	store.JobStore
}

func (failingJobStore) PushJobField(context.Context, string, models.Collection, interface{}) (store.WriteResult, error) {
	return store.WriteResult{}, errors.New("connection reset")
}

func TestStoreFailurePropagates(t *testing.T) {
	engine := NewAppendService(failingJobStore{}, identity.NewUUIDAllocator(), quietLog())

	_, err := engine.ApplyToJob(context.Background(), "j", "u", "e@x.com")
	assert.EqualError(t, err, "connection reset")
}
