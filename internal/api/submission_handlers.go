package api

import (
	"errors"
	"mime/multipart"
	"net/http"

	"yantra/internal/stage"
	"yantra/internal/submission"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleSubmit(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(s.uploadMax); err != nil {
		detail(c, http.StatusBadRequest, "request body exceeds the upload size limit")
		return
	}

	code := c.PostForm("code")
	language := c.PostForm("language")
	if code == "" || language == "" {
		detail(c, http.StatusBadRequest, "code and language are required")
		return
	}

	var files []stage.UploadedFile
	if form := c.Request.MultipartForm; form != nil {
		for _, fh := range form.File["files"] {
			f, err := fh.Open()
			if err != nil {
				detail(c, http.StatusBadRequest, "could not read uploaded file "+fh.Filename)
				return
			}
			defer f.Close()
			files = append(files, stage.UploadedFile{
				Name:     fh.Filename,
				MimeType: mimeTypeOf(fh),
				Reader:   f,
			})
		}
	}

	jobID, err := s.submissions.Submit(c.Request.Context(), code, language, files)
	if err != nil {
		detail(c, http.StatusBadRequest, submitErrorMessage(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"job_id": jobID, "message": "submission accepted"})
}

func (s *Server) handleGetResults(c *gin.Context) {
	jobID := c.Param("job_id")
	results, err := s.submissions.GetResults(jobID)
	if err != nil {
		detail(c, http.StatusInternalServerError, "failed to fetch results")
		return
	}
	c.JSON(http.StatusOK, results)
}

func mimeTypeOf(fh *multipart.FileHeader) string {
	if ct := fh.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func submitErrorMessage(err error) string {
	switch {
	case errors.Is(err, submission.ErrLanguageUnknown):
		return "unknown language"
	case errors.Is(err, submission.ErrLanguageDisabled):
		return "language is disabled"
	case errors.Is(err, submission.ErrLanguageNotReady):
		return "language runtime is not ready"
	default:
		return err.Error()
	}
}
