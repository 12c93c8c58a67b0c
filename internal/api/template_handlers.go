package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"yantra/internal/store"
	"yantra/pkg/models"

	"github.com/gin-gonic/gin"
)

type createTemplateRequest struct {
	ID                string   `json:"id" binding:"required"`
	Name              string   `json:"name" binding:"required"`
	Description       string   `json:"description"`
	Category          string   `json:"category"`
	BuildRecipe       string   `json:"build_recipe"`
	DefaultRunCommand []string `json:"default_run_command"`
	Tags              []string `json:"tags"`
	Icon              string   `json:"icon"`
	Author            string   `json:"author"`
	IsOfficial        bool     `json:"is_official"`
}

func (s *Server) handleCreateTemplate(c *gin.Context) {
	var req createTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusBadRequest, err.Error())
		return
	}

	t := &models.Template{
		ID:                req.ID,
		Name:              req.Name,
		Description:       req.Description,
		Category:          req.Category,
		BuildRecipe:       req.BuildRecipe,
		DefaultRunCommand: req.DefaultRunCommand,
		Tags:              req.Tags,
		Icon:              req.Icon,
		Author:            req.Author,
		IsOfficial:        req.IsOfficial,
		CreatedAt:         time.Now().UTC(),
	}

	if err := s.store.CreateTemplate(t); err != nil {
		detail(c, http.StatusBadRequest, "a template with this id already exists")
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (s *Server) handleListTemplates(c *gin.Context) {
	officialOnly, _ := strconv.ParseBool(c.DefaultQuery("official_only", "false"))
	list, err := s.store.ListTemplates(c.Query("category"), officialOnly)
	if err != nil {
		detail(c, http.StatusInternalServerError, "failed to list templates")
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) handleGetTemplate(c *gin.Context) {
	t, err := s.store.GetTemplate(c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			detail(c, http.StatusNotFound, "template not found")
			return
		}
		detail(c, http.StatusInternalServerError, "failed to fetch template")
		return
	}
	c.JSON(http.StatusOK, t)
}

func (s *Server) handleDeleteTemplate(c *gin.Context) {
	if _, err := s.store.GetTemplate(c.Param("id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			detail(c, http.StatusNotFound, "template not found")
			return
		}
		detail(c, http.StatusInternalServerError, "failed to fetch template")
		return
	}
	if err := s.store.DeleteTemplate(c.Param("id")); err != nil {
		detail(c, http.StatusInternalServerError, "failed to delete template")
		return
	}
	c.Status(http.StatusNoContent)
}
