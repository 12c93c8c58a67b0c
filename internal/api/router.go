// Package api is the thin HTTP adapter over the submission, runtime and
// catalog services (§6.1). It does no business logic of its own: each
// handler binds a request, calls a service method, and maps the result (or
// error) onto the wire shapes in §6.1.
package api

import (
	"net/http"

	"yantra/internal/metrics"
	"yantra/internal/middleware"
	"yantra/internal/runtimesvc"
	"yantra/internal/store"
	"yantra/internal/submission"

	"github.com/gin-gonic/gin"
)

// Server bundles the services the HTTP adapter dispatches to.
type Server struct {
	submissions *submission.Service
	runtimes    *runtimesvc.Service
	store       *store.Store
	uploadMax   int64
}

// NewServer constructs the HTTP adapter.
func NewServer(submissions *submission.Service, runtimes *runtimesvc.Service, st *store.Store, uploadMax int64) *Server {
	return &Server{submissions: submissions, runtimes: runtimes, store: st, uploadMax: uploadMax}
}

// NewRouter builds the Gin engine with all middleware and routes wired in.
func NewRouter(s *Server, corsOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.RequestID())
	r.Use(middleware.CORS(corsOrigins))
	r.Use(middleware.Security())
	r.Use(metrics.PrometheusMiddleware())

	r.GET("/health", s.handleHealth)
	r.GET("/metrics", gin.WrapH(metrics.PrometheusHandlerHTTP()))

	r.POST("/submit", s.handleSubmit)
	r.GET("/submit/results/:job_id", s.handleGetResults)

	r.POST("/compilers", s.handleCreateRuntime)
	r.GET("/compilers", s.handleListRuntimes)
	r.GET("/compilers/:id", s.handleGetRuntime)
	r.PUT("/compilers/:id", s.handleUpdateRuntime)
	r.DELETE("/compilers/:id", s.handleDeleteRuntime)
	r.POST("/compilers/:id/build", s.handleTriggerBuild)
	r.GET("/compilers/:id/logs", s.handleGetBuildLogs)

	r.POST("/templates", s.handleCreateTemplate)
	r.GET("/templates", s.handleListTemplates)
	r.GET("/templates/:id", s.handleGetTemplate)
	r.DELETE("/templates/:id", s.handleDeleteTemplate)

	return r
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "yantra-api"})
}

// detail writes the {detail: string} error body used throughout §6.1.
func detail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"detail": msg})
}
