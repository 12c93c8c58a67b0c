// Package sandbox is the abstraction over the container runtime: build an
// image from a recipe, run a single sandboxed invocation against it, and
// remove an image. The executor is pure — it owns no persistent state and
// never consults the store.
package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"yantra/internal/config"

	"github.com/docker/docker/api/types/image"
	dockerclient "github.com/docker/docker/client"
)

// ErrBuildTimeout is returned when an image build exceeds the 600s wall
// clock ceiling in §4.3.
var ErrBuildTimeout = errors.New("sandbox: build timed out")

// ErrExecTimeout is returned when a sandboxed run exceeds the runtime's
// configured timeout_seconds.
var ErrExecTimeout = errors.New("sandbox: execution timed out")

// buildWallClockCeiling is the hard maximum from §4.3. SandboxConfig.
// BuildTimeoutSeconds may tighten this (e.g. for faster test feedback) but
// never loosen it.
const buildWallClockCeiling = 600 * time.Second

func (e *Executor) buildTimeout() time.Duration {
	if e.cfg.BuildTimeoutSeconds <= 0 {
		return buildWallClockCeiling
	}
	configured := time.Duration(e.cfg.BuildTimeoutSeconds) * time.Second
	if configured > buildWallClockCeiling {
		return buildWallClockCeiling
	}
	return configured
}

// Limits carries the per-runtime resource caps a sandboxed run must honor.
type Limits struct {
	Memory         string
	CPU            string
	TimeoutSeconds int
}

// Result is the outcome of a sandboxed run.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Executor shells out to the docker CLI for build and run (so every
// isolation flag in §6.4 is asserted explicitly and is trivially
// testable by inspecting the constructed argv) and uses the Docker SDK
// for image removal, where the richer error classification
// (client.IsErrNotFound) makes "absence is not an error" simple to get
// right.
type Executor struct {
	cfg    config.SandboxConfig
	docker *dockerclient.Client
}

// NewExecutor constructs an Executor. The Docker SDK client is created
// lazily against the environment (DOCKER_HOST, etc.); no connection is
// made until an operation needs it.
func NewExecutor(cfg config.SandboxConfig) (*Executor, error) {
	cli, err := dockerclient.NewClientWithOpts(dockerclient.FromEnv, dockerclient.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("init docker sdk client: %w", err)
	}
	return &Executor{cfg: cfg, docker: cli}, nil
}

// BuildImage writes recipe to a fresh temporary directory as the build
// descriptor, invokes the build with that directory as context, and
// captures stdout+stderr combined. A non-nil error other than
// ErrBuildTimeout means the build process itself could not be started;
// a failed build (non-zero exit) is reported via exitStatus, not err.
func (e *Executor) BuildImage(ctx context.Context, recipe, imageRef string) (exitStatus int, combinedLog string, err error) {
	tmpDir, err := os.MkdirTemp("", "yantra-build-")
	if err != nil {
		return 0, "", fmt.Errorf("create build context: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	dockerfilePath := filepath.Join(tmpDir, "Dockerfile")
	if err := os.WriteFile(dockerfilePath, []byte(recipe), 0o644); err != nil {
		return 0, "", fmt.Errorf("write build recipe: %w", err)
	}

	buildCtx, cancel := context.WithTimeout(ctx, e.buildTimeout())
	defer cancel()

	cmd := exec.CommandContext(buildCtx, "docker", "build", "-t", imageRef, "-f", dockerfilePath, tmpDir)
	output, runErr := cmd.CombinedOutput()
	combinedLog = string(output)

	if buildCtx.Err() == context.DeadlineExceeded {
		return -1, combinedLog, ErrBuildTimeout
	}
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			return exitErr.ExitCode(), combinedLog, nil
		}
		return -1, combinedLog, fmt.Errorf("docker build: %w", runErr)
	}
	return 0, combinedLog, nil
}

// RunSandboxed launches a single container from imageRef with argv as its
// command, pipes stdin, and enforces the §6.4 isolation contract in full:
// gVisor-class runtime, no network, memory/cpu caps, read-only root,
// /sandbox working directory, an optional read-only /data bind mount,
// connected stdin, and --rm auto-removal.
func (e *Executor) RunSandboxed(ctx context.Context, imageRef string, argv []string, stdin []byte, limits Limits, jobDir string) (*Result, error) {
	timeout := time.Duration(limits.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := e.buildRunArgs(imageRef, argv, limits, jobDir)
	cmd := exec.CommandContext(runCtx, "docker", args...)
	cmd.Stdin = bytes.NewReader(stdin)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	if runCtx.Err() == context.DeadlineExceeded {
		return nil, ErrExecTimeout
	}
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			return &Result{ExitCode: exitErr.ExitCode(), Stdout: stdout.String(), Stderr: stderr.String()}, nil
		}
		return nil, fmt.Errorf("docker run: %w", runErr)
	}
	return &Result{ExitCode: 0, Stdout: stdout.String(), Stderr: stderr.String()}, nil
}

// buildRunArgs asserts every flag required by §6.4; omitting any of them
// is a correctness bug, so each is constructed unconditionally rather than
// behind a feature flag.
func (e *Executor) buildRunArgs(imageRef string, argv []string, limits Limits, jobDir string) []string {
	runtimeName := e.cfg.Runtime
	if runtimeName == "" {
		runtimeName = "runsc"
	}

	args := []string{
		"run",
		"--runtime=" + runtimeName,
		"--rm",
		"--network=none",
		"--memory=" + limits.Memory,
		"--cpus=" + limits.CPU,
		"--read-only",
		"-i",
		"-w", "/sandbox",
	}

	if jobDir != "" {
		mountPath := e.cfg.MountPath
		if mountPath == "" {
			mountPath = "/data"
		}
		args = append(args, "-v", jobDir+":"+mountPath+":ro")
	}

	args = append(args, imageRef)
	args = append(args, argv...)
	return args
}

// RemoveImage best-effort removes an image; absence of the image is not an
// error, matching §4.3.
func (e *Executor) RemoveImage(ctx context.Context, imageRef string) error {
	_, err := e.docker.ImageRemove(ctx, imageRef, image.RemoveOptions{Force: true, PruneChildren: true})
	if err != nil {
		if dockerclient.IsErrNotFound(err) || strings.Contains(err.Error(), "No such image") {
			return nil
		}
		return err
	}
	return nil
}

// Close releases the Docker SDK client.
func (e *Executor) Close() error {
	return e.docker.Close()
}
