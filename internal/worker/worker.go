// Package worker implements the round-robin loop that drains the jobs and
// builds queues and reconciles persisted state (§4.7). It is
// single-threaded per process; operators scale horizontally by running
// more worker processes.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"yantra/internal/broker"
	"yantra/internal/logging"
	"yantra/internal/metrics"
	"yantra/internal/runtimesvc"
	"yantra/internal/sandbox"
	"yantra/internal/store"
	"yantra/internal/submission"
	"yantra/pkg/models"

	"go.uber.org/zap"
)

const (
	pollInterval = 500 * time.Millisecond

	// runtimeBuildGrace bounds how long a runtime may sit in pending or
	// building before Reconcile assumes its build payload was lost to a
	// crash between the store commit and the queue push (§9) and
	// re-enqueues it.
	runtimeBuildGrace = 5 * time.Minute

	// submissionStallGraceDefault is the fallback grace period for a
	// RUNNING submission when its runtime's timeout can't be resolved;
	// ordinarily Reconcile uses 2x the runtime's own timeout_seconds.
	submissionStallGraceDefault = 10 * time.Minute
)

// Worker drains both queues and dispatches to the job-execution or
// build/cleanup handlers.
type Worker struct {
	store    *store.Store
	broker   *broker.Broker
	executor *sandbox.Executor
}

// New constructs a Worker.
func New(st *store.Store, br *broker.Broker, ex *sandbox.Executor) *Worker {
	return &Worker{store: st, broker: br, executor: ex}
}

// Run loops until ctx is cancelled. Each iteration pops at most one job
// payload and one build payload; if both pops found nothing, it sleeps
// pollInterval before trying again. This gives builds and jobs equal
// priority without starvation.
func (w *Worker) Run(ctx context.Context) {
	log := logging.L()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		gotJob := w.drainOne(ctx, w.broker.JobsQueue(), w.runSubmission, log)
		gotBuild := w.drainOne(ctx, w.broker.BuildQueue(), w.handleBuild, log)

		if !gotJob && !gotBuild {
			select {
			case <-ctx.Done():
				return
			case <-time.After(pollInterval):
			}
		}
	}
}

// Reconcile runs once at worker startup to recover from crashes that leave
// state between two non-transactional steps (§9): a runtime committed as
// pending/building with no corresponding build payload, or a submission
// left RUNNING because the worker that picked it up died mid-handler.
func (w *Worker) Reconcile(ctx context.Context) {
	log := logging.L()

	buildCutoff := time.Now().UTC().Add(-runtimeBuildGrace)
	stale, err := w.store.ListStaleRuntimeBuilds(buildCutoff)
	if err != nil {
		log.Error("reconcile: list stale runtime builds", zap.Error(err))
	}
	for _, rt := range stale {
		payload, err := json.Marshal(runtimesvc.BuildPayload{Action: "build", CompilerID: rt.ID})
		if err != nil {
			log.Error("reconcile: encode build payload", zap.String("id", rt.ID), zap.Error(err))
			continue
		}
		if err := w.broker.Push(ctx, w.broker.BuildQueue(), payload); err != nil {
			log.Error("reconcile: re-enqueue build", zap.String("id", rt.ID), zap.Error(err))
			continue
		}
		log.Warn("reconciled stale runtime build", zap.String("id", rt.ID), zap.String("build_status", string(rt.BuildStatus)))
	}

	// List every RUNNING submission; the per-submission grace below decides
	// which of them have stalled.
	staleSubs, err := w.store.ListStaleRunningSubmissions(time.Now().UTC())
	if err != nil {
		log.Error("reconcile: list stale submissions", zap.Error(err))
		return
	}
	for _, sub := range staleSubs {
		grace := submissionStallGraceDefault
		if rt, err := w.store.GetRuntime(sub.Language); err == nil && rt.TimeoutSeconds > 0 {
			grace = time.Duration(rt.TimeoutSeconds) * 2 * time.Second
		}
		if time.Since(sub.CreatedAt) < grace {
			continue
		}

		sub := sub
		now := time.Now().UTC()
		sub.Status = models.StatusError
		sub.OutputStderr = "submission abandoned: no worker response within twice its timeout"
		sub.CompletedAt = &now
		if err := w.store.UpdateSubmission(&sub); err != nil {
			log.Error("reconcile: finalize stalled submission", zap.String("job_id", sub.JobID), zap.Error(err))
			continue
		}
		metrics.RecordExecutionStall(sub.Language)
		log.Warn("force-finalized stalled submission", zap.String("job_id", sub.JobID))
	}
}

func (w *Worker) drainOne(ctx context.Context, queue string, handle func(context.Context, []byte), log *zap.Logger) bool {
	payload, err := w.broker.Pop(ctx, queue)
	if err != nil {
		if !errors.Is(err, broker.ErrEmpty) {
			log.Error("queue pop failed", zap.String("queue", queue), zap.Error(err))
		}
		return false
	}
	func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("queue handler panicked", zap.String("queue", queue), zap.Any("panic", r))
			}
		}()
		handle(ctx, payload)
	}()
	return true
}

// runSubmission executes one job-queue payload end to end. Handler errors
// never crash the loop: each step logs its own failure and returns, and a
// panic is recovered by drainOne. Once the row is marked RUNNING, every
// outcome ends in finishSubmission with a terminal status; a recovered
// panic leaves the row as it was.
func (w *Worker) runSubmission(ctx context.Context, raw []byte) {
	log := logging.L()

	var payload submission.JobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error("malformed job payload", zap.Error(err))
		return
	}

	sub, err := w.store.GetSubmission(payload.JobID)
	if err != nil {
		log.Error("job payload references unknown submission", zap.String("job_id", payload.JobID), zap.Error(err))
		return
	}

	sub.Status = models.StatusRunning
	if err := w.store.UpdateSubmission(sub); err != nil {
		log.Error("failed to mark submission running", zap.String("job_id", payload.JobID), zap.Error(err))
		return
	}

	rt, err := w.store.GetRuntime(payload.Language)
	if err != nil || !rt.Ready() {
		metrics.Get().RecordExecution(payload.Language, string(models.StatusError), 0)
		w.finishSubmission(sub, models.StatusError, "", fmt.Sprintf("Compiler for language '%s' is not available or not ready", payload.Language))
		return
	}

	limits := sandbox.Limits{Memory: rt.MemoryLimit, CPU: rt.CPULimit, TimeoutSeconds: rt.TimeoutSeconds}
	metrics.Get().ExecutionsInFlight.Inc()
	started := time.Now()
	result, execErr := w.executor.RunSandboxed(ctx, rt.ImageRef, rt.RunCommand, []byte(payload.Code), limits, sub.FilesDirectory)
	elapsed := time.Since(started)
	metrics.Get().ExecutionsInFlight.Dec()

	switch {
	case errors.Is(execErr, sandbox.ErrExecTimeout):
		metrics.Get().RecordExecution(payload.Language, string(models.StatusTimeout), elapsed)
		metrics.RecordExecutionStall(payload.Language)
		w.finishSubmission(sub, models.StatusTimeout, "", fmt.Sprintf("Execution timed out after %d seconds.", rt.TimeoutSeconds))
	case execErr != nil:
		metrics.Get().RecordExecution(payload.Language, string(models.StatusError), elapsed)
		w.finishSubmission(sub, models.StatusError, "", execErr.Error())
	default:
		metrics.Get().RecordExecution(payload.Language, string(models.StatusCompleted), elapsed)
		w.finishSubmission(sub, models.StatusCompleted, result.Stdout, result.Stderr)
	}
}

func (w *Worker) finishSubmission(sub *models.Submission, status models.SubmissionStatus, stdout, stderr string) {
	sub.Status = status
	sub.OutputStdout = stdout
	sub.OutputStderr = stderr
	now := time.Now().UTC()
	sub.CompletedAt = &now

	if err := w.store.UpdateSubmission(sub); err != nil {
		logging.L().Error("failed to persist submission outcome", zap.String("job_id", sub.JobID), zap.Error(err))
	}
}

// handleBuild executes one builds-queue payload: either a build or a
// cleanup, by action.
func (w *Worker) handleBuild(ctx context.Context, raw []byte) {
	log := logging.L()

	var payload runtimesvc.BuildPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error("malformed build payload", zap.Error(err))
		return
	}

	switch payload.Action {
	case "build":
		w.runBuild(ctx, payload.CompilerID)
	case "cleanup":
		if err := w.executor.RemoveImage(ctx, payload.ImageTag); err != nil {
			log.Warn("image cleanup failed", zap.String("image", payload.ImageTag), zap.Error(err))
		}
	default:
		log.Error("unknown build action", zap.String("action", payload.Action))
	}
}

func (w *Worker) runBuild(ctx context.Context, id string) {
	log := logging.L()

	rt, err := w.store.GetRuntime(id)
	if err != nil {
		log.Info("build payload references missing runtime, dropping", zap.String("id", id))
		return
	}

	rt.BuildStatus = models.BuildBuilding
	if err := w.store.UpdateRuntime(rt); err != nil {
		log.Error("failed to mark runtime building", zap.String("id", id), zap.Error(err))
		return
	}

	started := time.Now()
	exitStatus, combinedLog, buildErr := w.executor.BuildImage(ctx, rt.BuildRecipe, rt.ImageRef)
	elapsed := time.Since(started)
	rt.BuildLogs = combinedLog

	switch {
	case errors.Is(buildErr, sandbox.ErrBuildTimeout):
		rt.BuildStatus = models.BuildFailed
		rt.BuildError = buildErr.Error()
		metrics.RecordBuildFinalization(string(rt.BuildStatus), "timeout")
	case buildErr != nil:
		rt.BuildStatus = models.BuildFailed
		rt.BuildError = buildErr.Error()
		metrics.RecordBuildFinalization(string(rt.BuildStatus), "docker_error")
	case exitStatus == 0:
		now := time.Now().UTC()
		rt.BuildStatus = models.BuildReady
		rt.BuildError = ""
		rt.BuiltAt = &now
		metrics.RecordBuildFinalization(string(rt.BuildStatus), "success")
	default:
		rt.BuildStatus = models.BuildFailed
		rt.BuildError = combinedLog
		metrics.RecordBuildFinalization(string(rt.BuildStatus), "exit_nonzero")
	}
	metrics.Get().RecordBuild(string(rt.BuildStatus), elapsed)

	if err := w.store.UpdateRuntime(rt); err != nil {
		log.Error("failed to persist build outcome", zap.String("id", id), zap.Error(err))
	}
}
