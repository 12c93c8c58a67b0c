// Package runtimesvc implements the runtime definition pipeline (§4.6):
// create, update, rebuild, delete, and build-log retrieval, driving the
// asynchronous build state machine via the broker.
package runtimesvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"yantra/internal/broker"
	"yantra/internal/store"
	"yantra/pkg/models"
)

// Errors surfaced as 400s by the HTTP adapter.
var (
	ErrDuplicateID     = errors.New("runtimesvc: duplicate id")
	ErrNothingToUpdate = errors.New("runtimesvc: no fields to update")
)

// BuildPayload is the wire format pushed to the builds queue (§6.3).
type BuildPayload struct {
	Action     string `json:"action"` // "build" or "cleanup"
	CompilerID string `json:"compiler_id"`
	ImageTag   string `json:"image_tag,omitempty"`
}

// CreateRequest describes a new runtime definition.
type CreateRequest struct {
	ID             string
	Name           string
	BuildRecipe    string
	RunCommand     []string
	Version        string
	MemoryLimit    string
	CPULimit       string
	TimeoutSeconds int
}

// UpdateRequest carries only the fields the caller wants to change; unset
// pointer fields are left untouched.
type UpdateRequest struct {
	Name           *string
	BuildRecipe    *string
	RunCommand     *[]string
	Version        *string
	MemoryLimit    *string
	CPULimit       *string
	TimeoutSeconds *int
	Enabled        *bool
}

func (u *UpdateRequest) empty() bool {
	return u.Name == nil && u.BuildRecipe == nil && u.RunCommand == nil &&
		u.Version == nil && u.MemoryLimit == nil && u.CPULimit == nil &&
		u.TimeoutSeconds == nil && u.Enabled == nil
}

// BuildLogs is the read model for get_build_logs.
type BuildLogs struct {
	CompilerID   string             `json:"compiler_id"`
	CompilerName string             `json:"compiler_name"`
	BuildStatus  models.BuildStatus `json:"build_status"`
	BuildLogs    string             `json:"build_logs"`
	BuildError   string             `json:"build_error,omitempty"`
	BuiltAt      *time.Time         `json:"built_at,omitempty"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// Service implements runtime CRUD, rebuild and cleanup.
type Service struct {
	store  *store.Store
	broker *broker.Broker
}

// New constructs a runtimesvc Service.
func New(st *store.Store, br *broker.Broker) *Service {
	return &Service{store: st, broker: br}
}

// Create inserts a new runtime in the pending state and schedules its
// first build.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.Runtime, error) {
	if _, err := s.store.GetRuntime(req.ID); err == nil {
		return nil, ErrDuplicateID
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("check existing runtime: %w", err)
	}

	memoryLimit := req.MemoryLimit
	if memoryLimit == "" {
		memoryLimit = "512m"
	}
	cpuLimit := req.CPULimit
	if cpuLimit == "" {
		cpuLimit = "1"
	}
	timeout := req.TimeoutSeconds
	if timeout <= 0 {
		timeout = 10
	}

	now := time.Now().UTC()
	rt := &models.Runtime{
		ID:             req.ID,
		Name:           req.Name,
		BuildRecipe:    req.BuildRecipe,
		RunCommand:     req.RunCommand,
		ImageRef:       models.ImageTag(req.ID),
		Version:        req.Version,
		MemoryLimit:    memoryLimit,
		CPULimit:       cpuLimit,
		TimeoutSeconds: timeout,
		Enabled:        true,
		BuildStatus:    models.BuildPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.store.CreateRuntime(rt); err != nil {
		return nil, fmt.Errorf("persist runtime: %w", err)
	}
	if err := s.pushBuild(ctx, rt.ID); err != nil {
		return nil, err
	}
	return rt, nil
}

// Update applies a partial patch. If build_recipe or run_command changed,
// build_status resets to pending and a build is scheduled (§3.1 mutation
// invariant).
func (s *Service) Update(ctx context.Context, id string, patch UpdateRequest) (*models.Runtime, error) {
	if patch.empty() {
		return nil, ErrNothingToUpdate
	}

	rt, err := s.store.GetRuntime(id)
	if err != nil {
		return nil, err
	}

	rebuildNeeded := false
	if patch.Name != nil {
		rt.Name = *patch.Name
	}
	if patch.BuildRecipe != nil && *patch.BuildRecipe != rt.BuildRecipe {
		rt.BuildRecipe = *patch.BuildRecipe
		rebuildNeeded = true
	}
	if patch.RunCommand != nil && !slices.Equal(*patch.RunCommand, []string(rt.RunCommand)) {
		rt.RunCommand = *patch.RunCommand
		rebuildNeeded = true
	}
	if patch.Version != nil {
		rt.Version = *patch.Version
	}
	if patch.MemoryLimit != nil {
		rt.MemoryLimit = *patch.MemoryLimit
	}
	if patch.CPULimit != nil {
		rt.CPULimit = *patch.CPULimit
	}
	if patch.TimeoutSeconds != nil {
		rt.TimeoutSeconds = *patch.TimeoutSeconds
	}
	if patch.Enabled != nil {
		rt.Enabled = *patch.Enabled
	}

	rt.UpdatedAt = time.Now().UTC()
	if rebuildNeeded {
		rt.BuildStatus = models.BuildPending
		rt.BuildError = ""
		rt.BuiltAt = nil
	}

	if err := s.store.UpdateRuntime(rt); err != nil {
		return nil, fmt.Errorf("persist runtime update: %w", err)
	}
	if rebuildNeeded {
		if err := s.pushBuild(ctx, rt.ID); err != nil {
			return nil, err
		}
	}
	return rt, nil
}

// Delete removes the runtime row and schedules cleanup of its image. The
// row is gone even if cleanup later fails.
func (s *Service) Delete(ctx context.Context, id string) error {
	rt, err := s.store.GetRuntime(id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteRuntime(id); err != nil {
		return fmt.Errorf("delete runtime: %w", err)
	}

	payload, err := json.Marshal(BuildPayload{Action: "cleanup", CompilerID: id, ImageTag: rt.ImageRef})
	if err != nil {
		return fmt.Errorf("encode cleanup payload: %w", err)
	}
	return s.broker.Push(ctx, s.broker.BuildQueue(), payload)
}

// TriggerBuild resets build state and re-schedules a build, used to retry
// a failed build.
func (s *Service) TriggerBuild(ctx context.Context, id string) (*models.Runtime, error) {
	rt, err := s.store.GetRuntime(id)
	if err != nil {
		return nil, err
	}
	rt.BuildStatus = models.BuildPending
	rt.BuildError = ""
	rt.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateRuntime(rt); err != nil {
		return nil, fmt.Errorf("persist runtime: %w", err)
	}
	if err := s.pushBuild(ctx, rt.ID); err != nil {
		return nil, err
	}
	return rt, nil
}

// GetBuildLogs reads back build status/logs/error/timestamps.
func (s *Service) GetBuildLogs(id string) (*BuildLogs, error) {
	rt, err := s.store.GetRuntime(id)
	if err != nil {
		return nil, err
	}
	logs := rt.BuildLogs
	if logs == "" {
		logs = "No build logs available"
	}
	return &BuildLogs{
		CompilerID:   rt.ID,
		CompilerName: rt.Name,
		BuildStatus:  rt.BuildStatus,
		BuildLogs:    logs,
		BuildError:   rt.BuildError,
		BuiltAt:      rt.BuiltAt,
		UpdatedAt:    rt.UpdatedAt,
	}, nil
}

// List lists runtimes ordered by created_at descending, optionally
// filtered to enabled ones.
func (s *Service) List(enabledOnly bool) ([]models.Runtime, error) {
	return s.store.ListRuntimes(enabledOnly)
}

// Get fetches a single runtime by id.
func (s *Service) Get(id string) (*models.Runtime, error) {
	return s.store.GetRuntime(id)
}

func (s *Service) pushBuild(ctx context.Context, id string) error {
	payload, err := json.Marshal(BuildPayload{Action: "build", CompilerID: id})
	if err != nil {
		return fmt.Errorf("encode build payload: %w", err)
	}
	if err := s.broker.Push(ctx, s.broker.BuildQueue(), payload); err != nil {
		return fmt.Errorf("enqueue build: %w", err)
	}
	return nil
}
