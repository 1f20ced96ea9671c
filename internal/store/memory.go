package store

import (
	"context"
	"sort"
	"sync"

	"github.com/justsurfingit/jobboard/internal/models"
)

// MemoryJobStore keeps jobs in process. Each operation holds the lock for its
// whole read-modify-write, which gives the same per-document atomicity the
// database adapters get from a single statement.
type MemoryJobStore struct {
	mu    sync.RWMutex
	jobs  map[string]*models.Job
	order []string
	// threads indexes thread id -> owning job id per thread collection.
	threads map[models.Collection]map[string]string
}

func NewMemoryJobStore() *MemoryJobStore {
	return &MemoryJobStore{
		jobs: make(map[string]*models.Job),
		threads: map[models.Collection]map[string]string{
			models.Queries:     {},
			models.ChatThreads: {},
		},
	}
}

func (s *MemoryJobStore) InsertJob(ctx context.Context, job models.Job) (WriteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[job.ID]; ok {
		return WriteResult{}, ErrDuplicate
	}
	cp := job.Clone()
	s.jobs[job.ID] = &cp
	s.order = append(s.order, job.ID)
	for _, field := range []models.Collection{models.Queries, models.ChatThreads} {
		for _, t := range cp.Threads(field) {
			s.threads[field][t.ID] = job.ID
		}
	}
	return WriteResult{Acknowledged: true, InsertedID: job.ID}, nil
}

func (s *MemoryJobStore) FindJobs(ctx context.Context) ([]models.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Job, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.jobs[id].Clone())
	}
	return out, nil
}

func (s *MemoryJobStore) FindJob(ctx context.Context, id string) (models.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return models.Job{}, ErrNotFound
	}
	return job.Clone(), nil
}

func (s *MemoryJobStore) FindJobsByApplicant(ctx context.Context, email string) ([]models.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Job{}
	for _, id := range s.order {
		job := s.jobs[id]
		for _, a := range job.Applicants {
			if a.Email == email {
				cp := job.Clone()
				cp.Applicants = nil
				out = append(out, cp)
				break
			}
		}
	}
	return out, nil
}

func (s *MemoryJobStore) PushJobField(ctx context.Context, jobID string, field models.Collection, elem interface{}) (WriteResult, error) {
	if err := checkPush(field, elem); err != nil {
		return WriteResult{}, err
	}
	elem = normalizeElem(elem)

	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return WriteResult{Acknowledged: true}, nil
	}
	switch v := elem.(type) {
	case models.Applicant:
		job.Applicants = append(job.Applicants, v)
	case models.StatusRecord:
		job.ApplicationHistory = append(job.ApplicationHistory, v)
	case models.Approval:
		job.Approvals = append(job.Approvals, v)
	case models.Thread:
		v.Replies = append([]string{}, v.Replies...)
		if field == models.Queries {
			job.Queries = append(job.Queries, v)
		} else {
			job.ChatThreads = append(job.ChatThreads, v)
		}
		s.threads[field][v.ID] = jobID
	}
	return WriteResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: 1}, nil
}

func (s *MemoryJobStore) PushThreadReply(ctx context.Context, field models.Collection, threadID, reply string) (WriteResult, error) {
	if err := checkThreadField(field); err != nil {
		return WriteResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	jobID, ok := s.threads[field][threadID]
	if !ok {
		return WriteResult{Acknowledged: true}, nil
	}
	threads := s.jobs[jobID].Threads(field)
	for i := range threads {
		if threads[i].ID == threadID {
			threads[i].Replies = append(threads[i].Replies, reply)
			break
		}
	}
	return WriteResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: 1}, nil
}

func (s *MemoryJobStore) FindThreadOwner(ctx context.Context, field models.Collection, threadID string) (string, error) {
	if err := checkThreadField(field); err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	jobID, ok := s.threads[field][threadID]
	if !ok {
		return "", ErrNotFound
	}
	return jobID, nil
}

// MemoryUserStore keeps users in process, keyed by id with a unique email.
// Users go in and come out as copies.
type MemoryUserStore struct {
	mu      sync.RWMutex
	users   map[string]models.User
	byEmail map[string]string
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		users:   make(map[string]models.User),
		byEmail: make(map[string]string),
	}
}

func (s *MemoryUserStore) FindUsers(ctx context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (s *MemoryUserStore) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return s.users[id].Clone(), nil
}

func (s *MemoryUserStore) InsertUser(ctx context.Context, user models.User) (WriteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; ok {
		return WriteResult{}, ErrDuplicate
	}
	if _, ok := s.byEmail[user.Email]; ok {
		return WriteResult{}, ErrDuplicate
	}
	s.users[user.ID] = user.Clone()
	s.byEmail[user.Email] = user.ID
	return WriteResult{Acknowledged: true, InsertedID: user.ID}, nil
}

func (s *MemoryUserStore) UpsertUserEmail(ctx context.Context, email, newID string) (WriteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[email]; ok {
		return WriteResult{Acknowledged: true, MatchedCount: 1}, nil
	}
	s.users[newID] = models.User{ID: newID, Email: email, Profile: map[string]interface{}{}}
	s.byEmail[email] = newID
	return WriteResult{Acknowledged: true, UpsertedCount: 1, UpsertedID: newID}, nil
}
