package handlers

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/justsurfingit/jobboard/internal/logging"
	"github.com/justsurfingit/jobboard/internal/metrics"
	"github.com/justsurfingit/jobboard/internal/models"
)

type RouterConfig struct {
	Jobs         *JobHandler
	Users        *UserHandler
	Tokens       TokenVerifier
	Log          *logrus.Entry
	AllowOrigins []string
}

func corsConfig(origins []string) cors.Config {
	config := cors.DefaultConfig()
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"}
	// No origins means any origin.
	if len(origins) == 0 {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = origins
	}
	return config
}

func NewRouter(rc RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), logging.Middleware(rc.Log), metrics.Middleware())
	r.Use(cors.New(corsConfig(rc.AllowOrigins)))

	r.GET("/", Root)
	r.GET("/health", HealthCheck)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Users
	r.GET("/users", rc.Users.ListUsers)
	r.POST("/user", rc.Users.CreateUser)
	r.PUT("/userlogin", rc.Users.Login)
	r.GET("/user/:email", rc.Users.GetUser)

	// Jobs
	r.GET("/jobs", RequireBearer(rc.Tokens), rc.Jobs.ListJobs)
	r.GET("/job/:id", rc.Jobs.GetJob)
	r.POST("/job", rc.Jobs.CreateJob)
	r.GET("/applied-jobs/:email", rc.Jobs.AppliedJobs)
	r.GET("/thread/:id/job", rc.Jobs.ThreadJob(models.Queries))
	r.GET("/chat/:id/job", rc.Jobs.ThreadJob(models.ChatThreads))

	// Appends
	r.PATCH("/apply", rc.Jobs.Apply)
	r.PATCH("/close", rc.Jobs.Close)
	r.PATCH("/query", rc.Jobs.Query)
	r.PATCH("/chatquery", rc.Jobs.ChatQuery)
	r.PATCH("/approval", rc.Jobs.Approval)
	r.PATCH("/reply", rc.Jobs.Reply)
	r.PATCH("/chatreply", rc.Jobs.ChatReply)

	return r
}
