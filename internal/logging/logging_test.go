package logging

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewParsesLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, New("api", "debug", "text").Logger.GetLevel())
	assert.Equal(t, logrus.InfoLevel, New("api", "loud", "text").Logger.GetLevel())
}

func TestMiddlewareLogsRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	entry := New("api", "info", "json")
	var buf bytes.Buffer
	entry.Logger.SetOutput(&buf)

	r := gin.New()
	r.Use(Middleware(entry))
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "error", line["level"])
	assert.Equal(t, "api", line["service"])
	assert.Equal(t, "/boom", line["path"])
	assert.Equal(t, float64(500), line["status"])
}

func TestMiddlewareLogsCaller(t *testing.T) {
	gin.SetMode(gin.TestMode)
	entry := New("api", "info", "json")
	var buf bytes.Buffer
	entry.Logger.SetOutput(&buf)

	r := gin.New()
	r.Use(Middleware(entry))
	r.GET("/jobs", func(c *gin.Context) {
		c.Set(CallerKey, "a@x.com")
		c.Status(http.StatusOK)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/jobs", nil))

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "a@x.com", line["caller"])
}
