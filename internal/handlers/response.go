package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/justsurfingit/jobboard/internal/services"
	"github.com/justsurfingit/jobboard/internal/store"
)

// envelope is the {status, data} body most endpoints answer with.
type envelope struct {
	Status bool        `json:"status"`
	Data   interface{} `json:"data,omitempty"`
	Error  string      `json:"error,omitempty"`
}

func ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, envelope{Status: true, Data: data})
}

func noMatch(c *gin.Context) {
	c.JSON(http.StatusOK, envelope{Status: false})
}

// acknowledged answers an append. status follows the store's
// acknowledgement only, so a write that matched nothing still reads as
// status true; data.matchedCount tells the two apart.
func acknowledged(c *gin.Context, res services.AppendResult) {
	if !res.Acknowledged {
		noMatch(c)
		return
	}
	ok(c, res)
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, envelope{Status: false, Error: "invalid request: " + err.Error()})
}

// fail maps service errors onto responses. Anything unrecognised is a store
// failure and becomes a 500 without leaking the cause.
func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		noMatch(c)
	case errors.Is(err, store.ErrDuplicate):
		c.JSON(http.StatusConflict, envelope{Status: false, Error: "already exists"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, envelope{Status: false, Error: "internal error"})
	}
}
