package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/justsurfingit/jobboard/internal/dtos"
	"github.com/justsurfingit/jobboard/internal/models"
	"github.com/justsurfingit/jobboard/internal/services"
)

// JobHandler serves job postings and the append endpoints that grow them.
type JobHandler struct {
	JobService    *services.JobService
	AppendService *services.AppendService
}

func NewJobHandler(j *services.JobService, a *services.AppendService) *JobHandler {
	return &JobHandler{
		JobService:    j,
		AppendService: a,
	}
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func Root(c *gin.Context) {
	c.String(http.StatusOK, "Hello World!")
}

// CreateJob is POST /job. The body is stored as the posting, whatever its shape.
func (h *JobHandler) CreateJob(c *gin.Context) {
	var draft map[string]interface{}
	if err := c.ShouldBindJSON(&draft); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.JobService.CreateJob(c.Request.Context(), draft)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, res)
}

func (h *JobHandler) ListJobs(c *gin.Context) {
	jobs, err := h.JobService.GetAllJobs(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, jobs)
}

func (h *JobHandler) GetJob(c *gin.Context) {
	job, err := h.JobService.GetJobByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, job)
}

// AppliedJobs is GET /applied-jobs/:email. Applicant lists are not returned.
func (h *JobHandler) AppliedJobs(c *gin.Context) {
	jobs, err := h.JobService.FindAppliedJobs(c.Request.Context(), c.Param("email"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, jobs)
}

func (h *JobHandler) Apply(c *gin.Context) {
	var req dtos.ApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.AppendService.ApplyToJob(c.Request.Context(), req.JobID, req.UserID, req.Email)
	if err != nil {
		fail(c, err)
		return
	}
	acknowledged(c, res)
}

func (h *JobHandler) Close(c *gin.Context) {
	var req dtos.CloseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.AppendService.CloseJob(c.Request.Context(), req.JobID)
	if err != nil {
		fail(c, err)
		return
	}
	acknowledged(c, res)
}

func (h *JobHandler) Query(c *gin.Context) {
	var req dtos.ThreadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.AppendService.OpenThread(c.Request.Context(), req.JobID, req.UserID, req.Email, req.Question)
	if err != nil {
		fail(c, err)
		return
	}
	acknowledged(c, res)
}

func (h *JobHandler) ChatQuery(c *gin.Context) {
	var req dtos.ThreadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.AppendService.OpenChat(c.Request.Context(), req.JobID, req.UserID, req.Email, req.Question)
	if err != nil {
		fail(c, err)
		return
	}
	acknowledged(c, res)
}

func (h *JobHandler) Approval(c *gin.Context) {
	var req dtos.ApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.AppendService.RecordApproval(c.Request.Context(), req.JobID, req.UserID, req.Email, req.Approval)
	if err != nil {
		fail(c, err)
		return
	}
	acknowledged(c, res)
}

func (h *JobHandler) Reply(c *gin.Context) {
	h.reply(c, models.Queries)
}

func (h *JobHandler) ChatReply(c *gin.Context) {
	h.reply(c, models.ChatThreads)
}

func (h *JobHandler) reply(c *gin.Context, field models.Collection) {
	var req dtos.ReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	var (
		res services.AppendResult
		err error
	)
	if field == models.ChatThreads {
		res, err = h.AppendService.ReplyToChat(c.Request.Context(), req.ThreadID, req.Reply)
	} else {
		res, err = h.AppendService.ReplyToThread(c.Request.Context(), req.ThreadID, req.Reply)
	}
	if err != nil {
		fail(c, err)
		return
	}
	acknowledged(c, res)
}

// ThreadJob returns a handler resolving the job that owns a thread in field.
func (h *JobHandler) ThreadJob(field models.Collection) gin.HandlerFunc {
	return func(c *gin.Context) {
		owner, err := h.AppendService.ThreadOwner(c.Request.Context(), field, c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		ok(c, dtos.ThreadOwnerResponse{JobID: owner})
	}
}
