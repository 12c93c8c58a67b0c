// Package models holds the persisted entities shared across the API, worker
// and store layers.
package models

import (
	"time"
)

// BuildStatus enumerates the lifecycle of a runtime's container image.
type BuildStatus string

const (
	BuildPending  BuildStatus = "pending"
	BuildBuilding BuildStatus = "building"
	BuildReady    BuildStatus = "ready"
	BuildFailed   BuildStatus = "failed"
)

// SubmissionStatus enumerates the lifecycle of a submitted job.
type SubmissionStatus string

const (
	StatusPending   SubmissionStatus = "PENDING"
	StatusRunning   SubmissionStatus = "RUNNING"
	StatusCompleted SubmissionStatus = "COMPLETED"
	StatusTimeout   SubmissionStatus = "TIMEOUT"
	StatusError     SubmissionStatus = "ERROR"
)

// Runtime is a user-defined language environment: a build recipe, an
// invocation command and resource caps. id is the primary key and is never
// regenerated; image_ref is derived from it at creation time and is
// immutable thereafter.
type Runtime struct {
	ID             string      `json:"id" gorm:"primaryKey;size:64"`
	Name           string      `json:"name" gorm:"not null"`
	BuildRecipe    string      `json:"build_recipe" gorm:"type:text;not null"`
	RunCommand     StringSlice `json:"run_command" gorm:"type:text;serializer:json"`
	ImageRef       string      `json:"image_ref" gorm:"not null"`
	Version        string      `json:"version,omitempty"`
	MemoryLimit    string      `json:"memory_limit" gorm:"default:'512m'"`
	CPULimit       string      `json:"cpu_limit" gorm:"default:'1'"`
	TimeoutSeconds int         `json:"timeout_seconds" gorm:"default:10"`
	Enabled        bool        `json:"enabled"`
	BuildStatus    BuildStatus `json:"build_status" gorm:"default:'pending'"`
	BuildError     string      `json:"build_error,omitempty" gorm:"type:text"`
	BuildLogs      string      `json:"build_logs,omitempty" gorm:"type:text"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
	BuiltAt        *time.Time  `json:"built_at,omitempty"`
}

// Ready reports whether the runtime is currently eligible to accept
// submissions (§3.1 invariant: build_status=ready AND enabled=true).
func (r *Runtime) Ready() bool {
	return r.Enabled && r.BuildStatus == BuildReady
}

// ImageTag computes the canonical image reference for a runtime id.
// Invariant (§8.2): image_ref = "yantra-" + id + ":latest" at all times.
func ImageTag(id string) string {
	return "yantra-" + id + ":latest"
}

// FileMetadata describes one staged upload after sanitization.
type FileMetadata struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
}

// Submission is one scheduled execution of user-supplied code.
type Submission struct {
	JobID          string           `json:"job_id" gorm:"primaryKey;size:64"`
	Code           string           `json:"code" gorm:"type:text;not null"`
	Language       string           `json:"language" gorm:"not null;index"`
	Status         SubmissionStatus `json:"status" gorm:"default:'PENDING'"`
	OutputStdout   string           `json:"output_stdout,omitempty" gorm:"type:text"`
	OutputStderr   string           `json:"output_stderr,omitempty" gorm:"type:text"`
	UploadedFiles  FileMetaSlice    `json:"uploaded_files,omitempty" gorm:"type:text;serializer:json"`
	FilesDirectory string           `json:"files_directory,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	CompletedAt    *time.Time       `json:"completed_at,omitempty"`
}

// Terminal reports whether the submission has reached a terminal state.
func (s *Submission) Terminal() bool {
	switch s.Status {
	case StatusCompleted, StatusTimeout, StatusError:
		return true
	default:
		return false
	}
}

// Template is a curated, inert example of a runtime definition that an
// operator may clone into a real Runtime. Templates never drive a build
// themselves.
type Template struct {
	ID                 string      `json:"id" gorm:"primaryKey;size:64"`
	Name               string      `json:"name" gorm:"not null"`
	Description        string      `json:"description,omitempty"`
	Category           string      `json:"category" gorm:"index"`
	BuildRecipe        string      `json:"build_recipe" gorm:"type:text"`
	DefaultRunCommand  StringSlice `json:"default_run_command" gorm:"type:text;serializer:json"`
	Tags               StringSlice `json:"tags,omitempty" gorm:"type:text;serializer:json"`
	Icon               string      `json:"icon,omitempty"`
	Author             string      `json:"author,omitempty"`
	IsOfficial         bool        `json:"is_official" gorm:"default:false;index"`
	CreatedAt          time.Time   `json:"created_at"`
}

// StringSlice adapts a []string for serializer:json gorm columns while
// remaining a plain Go slice everywhere else.
type StringSlice []string

// FileMetaSlice adapts a []FileMetadata for serializer:json gorm columns.
type FileMetaSlice []FileMetadata
