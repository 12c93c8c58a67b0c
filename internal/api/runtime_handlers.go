package api

import (
	"errors"
	"net/http"
	"strconv"

	"yantra/internal/runtimesvc"
	"yantra/internal/store"

	"github.com/gin-gonic/gin"
)

type createRuntimeRequest struct {
	ID             string   `json:"id" binding:"required"`
	Name           string   `json:"name" binding:"required"`
	BuildRecipe    string   `json:"build_recipe" binding:"required"`
	RunCommand     []string `json:"run_command" binding:"required"`
	Version        string   `json:"version"`
	MemoryLimit    string   `json:"memory_limit"`
	CPULimit       string   `json:"cpu_limit"`
	TimeoutSeconds int      `json:"timeout_seconds"`
}

func (s *Server) handleCreateRuntime(c *gin.Context) {
	var req createRuntimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusBadRequest, err.Error())
		return
	}

	rt, err := s.runtimes.Create(c.Request.Context(), runtimesvc.CreateRequest{
		ID:             req.ID,
		Name:           req.Name,
		BuildRecipe:    req.BuildRecipe,
		RunCommand:     req.RunCommand,
		Version:        req.Version,
		MemoryLimit:    req.MemoryLimit,
		CPULimit:       req.CPULimit,
		TimeoutSeconds: req.TimeoutSeconds,
	})
	if err != nil {
		if errors.Is(err, runtimesvc.ErrDuplicateID) {
			detail(c, http.StatusBadRequest, "a compiler with this id already exists")
			return
		}
		detail(c, http.StatusBadRequest, err.Error())
		return
	}
	c.JSON(http.StatusCreated, rt)
}

func (s *Server) handleListRuntimes(c *gin.Context) {
	enabledOnly, _ := strconv.ParseBool(c.DefaultQuery("enabled_only", "false"))
	list, err := s.runtimes.List(enabledOnly)
	if err != nil {
		detail(c, http.StatusInternalServerError, "failed to list compilers")
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) handleGetRuntime(c *gin.Context) {
	rt, err := s.runtimes.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			detail(c, http.StatusNotFound, "compiler not found")
			return
		}
		detail(c, http.StatusInternalServerError, "failed to fetch compiler")
		return
	}
	c.JSON(http.StatusOK, rt)
}

type updateRuntimeRequest struct {
	Name           *string   `json:"name"`
	BuildRecipe    *string   `json:"build_recipe"`
	RunCommand     *[]string `json:"run_command"`
	Version        *string   `json:"version"`
	MemoryLimit    *string   `json:"memory_limit"`
	CPULimit       *string   `json:"cpu_limit"`
	TimeoutSeconds *int      `json:"timeout_seconds"`
	Enabled        *bool     `json:"enabled"`
}

func (s *Server) handleUpdateRuntime(c *gin.Context) {
	var req updateRuntimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusBadRequest, err.Error())
		return
	}

	rt, err := s.runtimes.Update(c.Request.Context(), c.Param("id"), runtimesvc.UpdateRequest{
		Name:           req.Name,
		BuildRecipe:    req.BuildRecipe,
		RunCommand:     req.RunCommand,
		Version:        req.Version,
		MemoryLimit:    req.MemoryLimit,
		CPULimit:       req.CPULimit,
		TimeoutSeconds: req.TimeoutSeconds,
		Enabled:        req.Enabled,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			detail(c, http.StatusNotFound, "compiler not found")
			return
		}
		if errors.Is(err, runtimesvc.ErrNothingToUpdate) {
			detail(c, http.StatusBadRequest, "no fields to update")
			return
		}
		detail(c, http.StatusInternalServerError, "failed to update compiler")
		return
	}
	c.JSON(http.StatusOK, rt)
}

func (s *Server) handleDeleteRuntime(c *gin.Context) {
	if err := s.runtimes.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			detail(c, http.StatusNotFound, "compiler not found")
			return
		}
		detail(c, http.StatusInternalServerError, "failed to delete compiler")
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleTriggerBuild(c *gin.Context) {
	rt, err := s.runtimes.TriggerBuild(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			detail(c, http.StatusNotFound, "compiler not found")
			return
		}
		detail(c, http.StatusInternalServerError, "failed to trigger build")
		return
	}
	c.JSON(http.StatusOK, rt)
}

func (s *Server) handleGetBuildLogs(c *gin.Context) {
	logs, err := s.runtimes.GetBuildLogs(c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			detail(c, http.StatusNotFound, "compiler not found")
			return
		}
		detail(c, http.StatusInternalServerError, "failed to fetch build logs")
		return
	}
	c.JSON(http.StatusOK, logs)
}
