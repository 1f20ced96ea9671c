package dtos

// Request bodies for the job mutation endpoints. User and job ids are opaque
// strings; only presence is checked.

type ApplyRequest struct {
	UserID string `json:"userId" binding:"required"`
	JobID  string `json:"jobId" binding:"required"`
	Email  string `json:"email" binding:"required,email"`
}

type CloseRequest struct {
	JobID string `json:"jobId" binding:"required"`
}

// ThreadRequest opens a query or a chat thread on a job.
type ThreadRequest struct {
	UserID   string `json:"userId" binding:"required"`
	JobID    string `json:"jobId" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Question string `json:"question" binding:"required"`
}

type ApprovalRequest struct {
	UserID   string `json:"userId" binding:"required"`
	JobID    string `json:"jobId" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Approval string `json:"approval" binding:"required"`
}

// ReplyRequest targets a thread by its own id. The wire name "userId" is kept
// for existing clients; it carries the thread id.
type ReplyRequest struct {
	ThreadID string `json:"userId" binding:"required"`
	Reply    string `json:"reply" binding:"required"`
}
