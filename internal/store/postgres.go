package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/justsurfingit/jobboard/internal/models"
)

// JobRecord is the postgres row for a job: the whole aggregate lives in one
// jsonb column so every append is a single-row update.
type JobRecord struct {
	ID  string `gorm:"primaryKey"`
	Doc string `gorm:"type:jsonb;not null"`
}

func (JobRecord) TableName() string { return "jobs" }

type UserRecord struct {
	ID    string `gorm:"primaryKey"`
	Email string `gorm:"uniqueIndex;not null"`
	Doc   string `gorm:"type:jsonb;not null"`
}

func (UserRecord) TableName() string { return "users" }

const (
	pushFieldSQL = `UPDATE jobs
SET doc = jsonb_set(doc, ARRAY[?::text], COALESCE(doc -> ?::text, '[]'::jsonb) || jsonb_build_array(?::jsonb))
WHERE id = ?`

	// The sub-select resolves the thread through the GIN index on doc and
	// finds its position, so only that element's replies are rewritten.
	// Positions never shift because the arrays are append-only.
	pushReplySQL = `UPDATE jobs AS j
SET doc = jsonb_set(j.doc, ARRAY[?::text, t.pos::text, 'replies'],
	COALESCE(j.doc #> ARRAY[?::text, t.pos::text, 'replies'], '[]'::jsonb) || to_jsonb(?::text))
FROM (
	SELECT jobs.id, e.pos - 1 AS pos
	FROM jobs, jsonb_array_elements(jobs.doc -> ?::text) WITH ORDINALITY AS e(elem, pos)
	WHERE jobs.doc @> ?::jsonb AND e.elem ->> 'id' = ?
	LIMIT 1
) AS t
WHERE j.id = t.id`

	threadOwnerSQL = `SELECT id FROM jobs WHERE doc @> ?::jsonb LIMIT 1`

	docIndexSQL = `CREATE INDEX IF NOT EXISTS jobs_doc_path_idx ON jobs USING GIN (doc jsonb_path_ops)`
)

// MigratePostgres creates the jobs and users tables and the containment
// index used by applicant and thread lookups.
func MigratePostgres(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(&JobRecord{}, &UserRecord{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	if err := db.WithContext(ctx).Exec(docIndexSQL).Error; err != nil {
		return fmt.Errorf("create doc index: %w", err)
	}
	return nil
}

type PostgresJobStore struct {
	DB *gorm.DB
}

func NewPostgresJobStore(db *gorm.DB) *PostgresJobStore {
	return &PostgresJobStore{DB: db}
}

func (s *PostgresJobStore) InsertJob(ctx context.Context, job models.Job) (WriteResult, error) {
	doc, err := json.Marshal(job)
	if err != nil {
		return WriteResult{}, fmt.Errorf("encode job: %w", err)
	}
	err = s.DB.WithContext(ctx).Create(&JobRecord{ID: job.ID, Doc: string(doc)}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return WriteResult{}, ErrDuplicate
	}
	if err != nil {
		return WriteResult{}, fmt.Errorf("insert job: %w", err)
	}
	return WriteResult{Acknowledged: true, InsertedID: job.ID}, nil
}

func (s *PostgresJobStore) FindJobs(ctx context.Context) ([]models.Job, error) {
	var records []JobRecord
	if err := s.DB.WithContext(ctx).Order("id").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("find jobs: %w", err)
	}
	return decodeJobs(records)
}

func (s *PostgresJobStore) FindJob(ctx context.Context, id string) (models.Job, error) {
	var rec JobRecord
	err := s.DB.WithContext(ctx).Where("id = ?", id).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Job{}, ErrNotFound
	}
	if err != nil {
		return models.Job{}, fmt.Errorf("find job %s: %w", id, err)
	}
	var job models.Job
	if err := json.Unmarshal([]byte(rec.Doc), &job); err != nil {
		return models.Job{}, err
	}
	return job, nil
}

func (s *PostgresJobStore) FindJobsByApplicant(ctx context.Context, email string) ([]models.Job, error) {
	filter, err := json.Marshal(map[string]interface{}{
		string(models.Applicants): []map[string]string{{"email": email}},
	})
	if err != nil {
		return nil, err
	}
	var records []JobRecord
	err = s.DB.WithContext(ctx).
		Select("id", "doc - 'applicants' AS doc").
		Where("doc @> ?::jsonb", string(filter)).
		Order("id").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("find jobs by applicant: %w", err)
	}
	return decodeJobs(records)
}

func (s *PostgresJobStore) PushJobField(ctx context.Context, jobID string, field models.Collection, elem interface{}) (WriteResult, error) {
	if err := checkPush(field, elem); err != nil {
		return WriteResult{}, err
	}
	raw, err := json.Marshal(normalizeElem(elem))
	if err != nil {
		return WriteResult{}, fmt.Errorf("encode %s element: %w", field, err)
	}
	res := s.DB.WithContext(ctx).Exec(pushFieldSQL, string(field), string(field), string(raw), jobID)
	if res.Error != nil {
		return WriteResult{}, fmt.Errorf("push %s: %w", field, res.Error)
	}
	return updateResult(res.RowsAffected), nil
}

func (s *PostgresJobStore) PushThreadReply(ctx context.Context, field models.Collection, threadID, reply string) (WriteResult, error) {
	if err := checkThreadField(field); err != nil {
		return WriteResult{}, err
	}
	filter, err := threadFilter(field, threadID)
	if err != nil {
		return WriteResult{}, err
	}
	res := s.DB.WithContext(ctx).Exec(pushReplySQL,
		string(field), string(field), reply, string(field), filter, threadID)
	if res.Error != nil {
		return WriteResult{}, fmt.Errorf("push reply to %s: %w", field, res.Error)
	}
	return updateResult(res.RowsAffected), nil
}

func (s *PostgresJobStore) FindThreadOwner(ctx context.Context, field models.Collection, threadID string) (string, error) {
	if err := checkThreadField(field); err != nil {
		return "", err
	}
	filter, err := threadFilter(field, threadID)
	if err != nil {
		return "", err
	}
	var ids []string
	if err := s.DB.WithContext(ctx).Raw(threadOwnerSQL, filter).Scan(&ids).Error; err != nil {
		return "", fmt.Errorf("find thread owner: %w", err)
	}
	if len(ids) == 0 {
		return "", ErrNotFound
	}
	return ids[0], nil
}

// threadFilter builds the containment document {field: [{"id": threadID}]}.
func threadFilter(field models.Collection, threadID string) (string, error) {
	raw, err := json.Marshal(map[string]interface{}{
		string(field): []map[string]string{{"id": threadID}},
	})
	return string(raw), err
}

// updateResult maps an UPDATE row count onto the store result. Rows matched
// by the filter are always rewritten, so matched equals modified.
func updateResult(rows int64) WriteResult {
	return WriteResult{Acknowledged: true, MatchedCount: rows, ModifiedCount: rows}
}

func decodeJobs(records []JobRecord) ([]models.Job, error) {
	jobs := make([]models.Job, 0, len(records))
	for _, rec := range records {
		var job models.Job
		if err := json.Unmarshal([]byte(rec.Doc), &job); err != nil {
			return nil, fmt.Errorf("job %s: %w", rec.ID, err)
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

type PostgresUserStore struct {
	DB *gorm.DB
}

func NewPostgresUserStore(db *gorm.DB) *PostgresUserStore {
	return &PostgresUserStore{DB: db}
}

func (s *PostgresUserStore) FindUsers(ctx context.Context) ([]models.User, error) {
	var records []UserRecord
	if err := s.DB.WithContext(ctx).Order("email").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	users := make([]models.User, 0, len(records))
	for _, rec := range records {
		u, err := decodeUser(rec)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

func (s *PostgresUserStore) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	var rec UserRecord
	err := s.DB.WithContext(ctx).Where("email = ?", email).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("find user: %w", err)
	}
	return decodeUser(rec)
}

func (s *PostgresUserStore) InsertUser(ctx context.Context, user models.User) (WriteResult, error) {
	rec, err := encodeUser(user)
	if err != nil {
		return WriteResult{}, err
	}
	err = s.DB.WithContext(ctx).Create(&rec).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return WriteResult{}, ErrDuplicate
	}
	if err != nil {
		return WriteResult{}, fmt.Errorf("insert user: %w", err)
	}
	return WriteResult{Acknowledged: true, InsertedID: user.ID}, nil
}

func (s *PostgresUserStore) UpsertUserEmail(ctx context.Context, email, newID string) (WriteResult, error) {
	rec, err := encodeUser(models.User{ID: newID, Email: email})
	if err != nil {
		return WriteResult{}, err
	}
	res := s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "email"}}, DoNothing: true}).
		Create(&rec)
	if res.Error != nil {
		return WriteResult{}, fmt.Errorf("upsert user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return WriteResult{Acknowledged: true, MatchedCount: 1}, nil
	}
	return WriteResult{Acknowledged: true, UpsertedCount: 1, UpsertedID: newID}, nil
}

func encodeUser(u models.User) (UserRecord, error) {
	doc, err := json.Marshal(u)
	if err != nil {
		return UserRecord{}, fmt.Errorf("encode user: %w", err)
	}
	return UserRecord{ID: u.ID, Email: u.Email, Doc: string(doc)}, nil
}

func decodeUser(rec UserRecord) (models.User, error) {
	var u models.User
	if err := json.Unmarshal([]byte(rec.Doc), &u); err != nil {
		return models.User{}, fmt.Errorf("user %s: %w", rec.ID, err)
	}
	return u, nil
}
