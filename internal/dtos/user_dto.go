package dtos

import "github.com/justsurfingit/jobboard/internal/store"

type LoginRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type LoginResponse struct {
	Token  string            `json:"token"`
	Result store.WriteResult `json:"result"`
}

type ThreadOwnerResponse struct {
	JobID string `json:"jobId"`
}
