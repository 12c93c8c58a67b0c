// Package submission implements the submission pipeline (§4.5): validating
// language readiness, persisting the submission, staging uploaded files,
// enqueuing the job, and reading back results.
package submission

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"yantra/internal/broker"
	"yantra/internal/stage"
	"yantra/internal/store"
	"yantra/pkg/models"

	"github.com/google/uuid"
)

// Validation errors, surfaced as 400s by the HTTP adapter.
var (
	ErrLanguageUnknown  = errors.New("submission: language unknown")
	ErrLanguageDisabled = errors.New("submission: language disabled")
	ErrLanguageNotReady = errors.New("submission: language not ready")
)

// JobPayload is the wire format pushed to the jobs queue (§6.3).
type JobPayload struct {
	JobID    string `json:"job_id"`
	Code     string `json:"code"`
	Language string `json:"language"`
}

// Results is the read model returned by GetResults.
type Results struct {
	Status        models.SubmissionStatus `json:"status"`
	Stdout        string                  `json:"stdout"`
	Stderr        string                  `json:"stderr"`
	CompletedAt   *time.Time              `json:"completed_at,omitempty"`
	UploadedFiles []models.FileMetadata   `json:"uploaded_files,omitempty"`
}

// StatusNotFound is the Results status reported for an unknown job id (§6.1:
// surfaced as {status: NOT_FOUND} rather than an HTTP 404).
const StatusNotFound models.SubmissionStatus = "NOT_FOUND"

// Service implements submit and get_results.
type Service struct {
	store  *store.Store
	broker *broker.Broker
	stager *stage.Stager
}

// New constructs a submission Service.
func New(st *store.Store, br *broker.Broker, stg *stage.Stager) *Service {
	return &Service{store: st, broker: br, stager: stg}
}

// Submit validates the target language, stages any uploaded files,
// persists the submission row, and enqueues the job. The row is committed
// before the queue push, so a worker that later pops the job is guaranteed
// to find it (§4.5 ordering guarantee).
func (s *Service) Submit(ctx context.Context, code, language string, files []stage.UploadedFile) (jobID string, err error) {
	rt, err := s.store.GetRuntime(language)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrLanguageUnknown
		}
		return "", fmt.Errorf("fetch runtime: %w", err)
	}
	if !rt.Enabled {
		return "", ErrLanguageDisabled
	}
	if rt.BuildStatus != models.BuildReady {
		return "", ErrLanguageNotReady
	}

	jobID = uuid.New().String()

	var jobDir string
	var metas []models.FileMetadata
	if len(files) > 0 {
		jobDir, metas, err = s.stager.Stage(jobID, files)
		if err != nil {
			return "", err
		}
	}

	sub := &models.Submission{
		JobID:          jobID,
		Code:           code,
		Language:       language,
		Status:         models.StatusPending,
		UploadedFiles:  metas,
		FilesDirectory: jobDir,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.store.WithTransaction(func(sess *store.Session) error {
		return sess.CreateSubmission(sub)
	}); err != nil {
		return "", fmt.Errorf("persist submission: %w", err)
	}

	payload, err := json.Marshal(JobPayload{JobID: jobID, Code: code, Language: language})
	if err != nil {
		return "", fmt.Errorf("encode job payload: %w", err)
	}
	if err := s.broker.Push(ctx, s.broker.JobsQueue(), payload); err != nil {
		// The row is already committed; a crash or broker failure here
		// leaves an orphan PENDING row, as documented in the design notes.
		return "", fmt.Errorf("enqueue job: %w", err)
	}

	return jobID, nil
}

// GetResults is a read-only lookup with no side effects.
func (s *Service) GetResults(jobID string) (*Results, error) {
	sub, err := s.store.GetSubmission(jobID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return &Results{Status: StatusNotFound}, nil
		}
		return nil, fmt.Errorf("fetch submission: %w", err)
	}
	return &Results{
		Status:        sub.Status,
		Stdout:        sub.OutputStdout,
		Stderr:        sub.OutputStderr,
		CompletedAt:   sub.CompletedAt,
		UploadedFiles: sub.UploadedFiles,
	}, nil
}
