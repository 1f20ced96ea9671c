package models

import (
	"encoding/json"
	"fmt"
)

// Collection names one of the append-only arrays nested in a Job document.
// The value doubles as the document field name in every store.
type Collection string

const (
	Applicants         Collection = "applicants"
	ApplicationHistory Collection = "applicationHistory"
	Queries            Collection = "queries"
	ChatThreads        Collection = "chatThreads"
	Approvals          Collection = "approvals"
)

// IsThread reports whether elements of c are Threads that accept replies.
func (c Collection) IsThread() bool {
	return c == Queries || c == ChatThreads
}

func (c Collection) Valid() bool {
	switch c {
	case Applicants, ApplicationHistory, Queries, ChatThreads, Approvals:
		return true
	}
	return false
}

type JobState string

const StateClosed JobState = "Closed"

type Applicant struct {
	ID    string `json:"id" bson:"id"`
	Email string `json:"email" bson:"email"`
}

// StatusRecord is one entry of a job's application history log.
type StatusRecord struct {
	State JobState `json:"state" bson:"state"`
}

// Thread is a question posted on a job plus the replies it received, in order.
// Both query threads and chat threads use this shape.
type Thread struct {
	ID       string   `json:"id" bson:"id"`
	UserID   string   `json:"userId" bson:"userId"`
	Email    string   `json:"email" bson:"email"`
	Question string   `json:"question" bson:"question"`
	Replies  []string `json:"replies" bson:"replies"`
}

type Approval struct {
	ID       string `json:"id" bson:"id"`
	UserID   string `json:"userId" bson:"userId"`
	JobID    string `json:"jobId" bson:"jobId"`
	Email    string `json:"email" bson:"email"`
	Decision string `json:"decision" bson:"decision"`
}

// Job is the posting aggregate. Posting holds the caller supplied fields
// (title, description, ...) which are stored next to the sub-collections.
//
// A nil collection means the field was projected out of the read and is
// omitted when encoding; an empty one is encoded as [].
type Job struct {
	ID                 string                 `bson:"_id"`
	Applicants         []Applicant            `bson:"applicants"`
	ApplicationHistory []StatusRecord         `bson:"applicationHistory"`
	Queries            []Thread               `bson:"queries"`
	ChatThreads        []Thread               `bson:"chatThreads"`
	Approvals          []Approval             `bson:"approvals"`
	Posting            map[string]interface{} `bson:",inline"`
}

// NewJob builds a job document from a draft with every sub-collection empty.
// Draft keys that collide with the id or a sub-collection are dropped.
func NewJob(id string, draft map[string]interface{}) Job {
	posting := make(map[string]interface{}, len(draft))
	for k, v := range draft {
		if k == "_id" || Collection(k).Valid() {
			continue
		}
		posting[k] = v
	}
	return Job{
		ID:                 id,
		Applicants:         []Applicant{},
		ApplicationHistory: []StatusRecord{},
		Queries:            []Thread{},
		ChatThreads:        []Thread{},
		Approvals:          []Approval{},
		Posting:            posting,
	}
}

// Clone returns a deep copy of the job, nested posting values included.
func (j Job) Clone() Job {
	out := j
	out.Posting = copyMap(j.Posting)
	if j.Applicants != nil {
		out.Applicants = append([]Applicant{}, j.Applicants...)
	}
	if j.ApplicationHistory != nil {
		out.ApplicationHistory = append([]StatusRecord{}, j.ApplicationHistory...)
	}
	if j.Approvals != nil {
		out.Approvals = append([]Approval{}, j.Approvals...)
	}
	out.Queries = cloneThreads(j.Queries)
	out.ChatThreads = cloneThreads(j.ChatThreads)
	return out
}

func cloneThreads(in []Thread) []Thread {
	if in == nil {
		return nil
	}
	out := make([]Thread, len(in))
	for i, t := range in {
		out[i] = t
		out[i].Replies = append([]string{}, t.Replies...)
	}
	return out
}

// copyMap deep-copies the maps and slices a decoded JSON document is built
// from. Other values are immutable and shared.
func copyMap(in map[string]interface{}) map[string]interface{} {
	if in == nil {
		return nil
	}
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v interface{}) interface{} {
	switch v := v.(type) {
	case map[string]interface{}:
		return copyMap(v)
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, e := range v {
			out[i] = copyValue(e)
		}
		return out
	}
	return v
}

// Threads returns the thread slice stored under c, or nil for other collections.
func (j *Job) Threads(c Collection) []Thread {
	switch c {
	case Queries:
		return j.Queries
	case ChatThreads:
		return j.ChatThreads
	}
	return nil
}

func (j Job) MarshalJSON() ([]byte, error) {
	known := map[string]interface{}{"_id": j.ID}
	if j.Applicants != nil {
		known[string(Applicants)] = j.Applicants
	}
	if j.ApplicationHistory != nil {
		known[string(ApplicationHistory)] = j.ApplicationHistory
	}
	if j.Queries != nil {
		known[string(Queries)] = j.Queries
	}
	if j.ChatThreads != nil {
		known[string(ChatThreads)] = j.ChatThreads
	}
	if j.Approvals != nil {
		known[string(Approvals)] = j.Approvals
	}
	return marshalDocument(known, j.Posting)
}

func (j *Job) UnmarshalJSON(data []byte) error {
	var out Job
	posting, err := unmarshalDocument(data, func(key string, raw json.RawMessage) (bool, error) {
		switch key {
		case "_id":
			return true, json.Unmarshal(raw, &out.ID)
		case string(Applicants):
			return true, json.Unmarshal(raw, &out.Applicants)
		case string(ApplicationHistory):
			return true, json.Unmarshal(raw, &out.ApplicationHistory)
		case string(Queries):
			return true, json.Unmarshal(raw, &out.Queries)
		case string(ChatThreads):
			return true, json.Unmarshal(raw, &out.ChatThreads)
		case string(Approvals):
			return true, json.Unmarshal(raw, &out.Approvals)
		}
		return false, nil
	})
	if err != nil {
		return fmt.Errorf("decode job: %w", err)
	}
	out.Posting = posting
	*j = out
	return nil
}
