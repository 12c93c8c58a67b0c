// Package stage validates, sanitizes and stores uploaded user files under a
// per-job directory (§4.4).
package stage

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"yantra/internal/config"
	"yantra/pkg/models"
)

// ErrTooManyFiles is returned when more than the configured maximum number of
// files is submitted.
var ErrTooManyFiles = errors.New("stage: too many files")

// EmptyFileError names the offending file when it contains zero bytes.
type EmptyFileError struct{ Name string }

func (e *EmptyFileError) Error() string { return fmt.Sprintf("stage: file %q is empty", e.Name) }

// ErrSizeLimitExceeded is returned when the running total of uploaded bytes
// crosses the configured cap.
var ErrSizeLimitExceeded = errors.New("stage: size limit exceeded")

// ExtensionNotAllowedError names the offending file when its extension is
// not in the whitelist.
type ExtensionNotAllowedError struct{ Name string }

func (e *ExtensionNotAllowedError) Error() string {
	return fmt.Sprintf("stage: extension not allowed for file %q", e.Name)
}

// UploadedFile is one incoming file: a streaming source plus its declared
// name and MIME type (the MIME type is as reported by the client, and is
// never trusted for anything beyond bookkeeping).
type UploadedFile struct {
	Name     string
	MimeType string
	Reader   io.Reader
}

// Stager applies the upload policy in §4.4 and writes accepted files under
// a per-job directory.
type Stager struct {
	cfg config.UploadConfig
	dir string
}

// New constructs a Stager rooted at jobsDir; callers pass the configured
// jobs directory explicitly so tests can point it at a temp dir.
func New(cfg config.UploadConfig, jobsDir string) *Stager {
	return &Stager{cfg: cfg, dir: jobsDir}
}

// Stage validates and writes files under {jobsDir}/{jobID}/, returning the
// absolute directory path and per-file metadata. On any rejection or I/O
// failure the job directory is removed atomically and the error is
// propagated; no partial directory is left behind.
func (s *Stager) Stage(jobID string, files []UploadedFile) (string, []models.FileMetadata, error) {
	if len(files) == 0 {
		return "", nil, nil
	}
	if len(files) > s.cfg.MaxFiles {
		return "", nil, ErrTooManyFiles
	}

	jobDir := filepath.Join(s.dir, jobID)
	if err := os.MkdirAll(jobDir, 0o755); err != nil {
		return "", nil, fmt.Errorf("create job directory: %w", err)
	}

	metas, err := s.writeAll(jobDir, files)
	if err != nil {
		os.RemoveAll(jobDir)
		return "", nil, err
	}
	return jobDir, metas, nil
}

func (s *Stager) writeAll(jobDir string, files []UploadedFile) ([]models.FileMetadata, error) {
	var metas []models.FileMetadata
	var total int64

	for _, f := range files {
		data, err := io.ReadAll(f.Reader)
		if err != nil {
			return nil, fmt.Errorf("read uploaded file %q: %w", f.Name, err)
		}
		if len(data) == 0 {
			return nil, &EmptyFileError{Name: f.Name}
		}

		total += int64(len(data))
		if total > s.cfg.MaxTotalBytes {
			return nil, ErrSizeLimitExceeded
		}

		ext := strings.ToLower(filepath.Ext(f.Name))
		if _, ok := s.cfg.AllowedExtensions[ext]; !ok {
			return nil, &ExtensionNotAllowedError{Name: f.Name}
		}

		sanitized := sanitizeFilename(f.Name)
		target := filepath.Join(jobDir, sanitized)
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return nil, fmt.Errorf("write staged file %q: %w", sanitized, err)
		}

		metas = append(metas, models.FileMetadata{
			Filename: sanitized,
			Size:     int64(len(data)),
			MimeType: f.MimeType,
		})
	}
	return metas, nil
}

// sanitizeFilename keeps only [A-Za-z0-9._-] from name and replaces
// everything else — including path separators — with "_", which is what
// strips directory components: "../etc/passwd" becomes ".._etc_passwd"
// rather than being split on "/" first. If the result is empty or exactly
// ".", a random file_{8-hex} name is substituted.
func sanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	sanitized := b.String()

	if sanitized == "" || sanitized == "." {
		return "file_" + randomHex(4)
	}
	return sanitized
}

func randomHex(n int) string {
	buf := make([]byte, n)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}
