package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/planlens/roomscan/internal/core/domain"
	"github.com/planlens/roomscan/internal/core/ports"
)

// OutcomeRecorder receives the terminal accounting for one processing
// attempt. Implementations must be safe for concurrent use; a nil recorder
// disables the hook.
type OutcomeRecorder interface {
	RecordOutcome(status domain.JobStatus, rooms int, attempt int)
}

// JobLifecycleManager owns the job state machine. Every Process call either
// leaves the record untouched (non-pending no-op, lost claim race) or ends in
// one persisted transition; a raw detection error never escapes without the
// matching state change having been written first.
type JobLifecycleManager struct {
	repo        ports.JobRepository
	blobs       ports.BlobStorage
	detector    ports.RoomDetector
	maxAttempts int
	recorder    OutcomeRecorder
}

func NewJobLifecycleManager(
	repo ports.JobRepository,
	blobs ports.BlobStorage,
	detector ports.RoomDetector,
	maxAttempts int,
) *JobLifecycleManager {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &JobLifecycleManager{
		repo:        repo,
		blobs:       blobs,
		detector:    detector,
		maxAttempts: maxAttempts,
	}
}

// WithOutcomeRecorder attaches a metrics hook for terminal transitions.
func (m *JobLifecycleManager) WithOutcomeRecorder(recorder OutcomeRecorder) *JobLifecycleManager {
	m.recorder = recorder
	return m
}

// Process drives one job from Pending to a terminal state.
//
// The claim in step two is the single correctness-critical synchronization
// point: a conditional update keyed on the expected prior status. Exactly one
// of any number of concurrent workers wins the Pending -> Processing
// transition; the rest observe a conflict and back off without side effects,
// which is what makes duplicated at-least-once trigger delivery safe.
func (m *JobLifecycleManager) Process(ctx context.Context, jobID string) error {
	job, err := m.repo.GetJob(ctx, jobID)
	if err != nil {
		if domain.IsKind(err, domain.ErrJobNotFound) {
			return err
		}
		return domain.WrapError(domain.ErrTransient, "load job", err)
	}

	if job.Status != domain.StatusPending {
		slog.Debug("job_process_noop", "job_id", jobID, "status", string(job.Status))
		return nil
	}

	claimed := *job
	claimed.Status = domain.StatusProcessing
	claimed.Attempt = job.Attempt + 1
	claimed.UpdatedAt = time.Now().UTC()
	if err := m.repo.CompareAndUpdateJob(ctx, jobID, domain.StatusPending, &claimed); err != nil {
		if domain.IsKind(err, domain.ErrStatusConflict) {
			// Another worker claimed the job first.
			slog.Debug("job_claim_lost", "job_id", jobID)
			return nil
		}
		return domain.WrapError(domain.ErrTransient, "claim job", err)
	}

	rooms, detectErr := m.runDetection(ctx, &claimed)
	if detectErr != nil {
		return m.concludeFailure(ctx, &claimed, detectErr)
	}
	return m.concludeSuccess(ctx, &claimed, rooms)
}

func (m *JobLifecycleManager) runDetection(ctx context.Context, job *domain.DetectionJob) ([]domain.Room, error) {
	data, err := m.blobs.Fetch(ctx, job.SourceRef)
	if err != nil {
		return nil, domain.WrapError(domain.ErrTransient, "fetch source image", err)
	}
	rooms, err := m.detector.Detect(data, job.Params.WithDefaults())
	if err != nil {
		return nil, fmt.Errorf("detect rooms: %w", err)
	}
	return rooms, nil
}

func (m *JobLifecycleManager) concludeSuccess(ctx context.Context, job *domain.DetectionJob, rooms []domain.Room) error {
	completed := *job
	completed.Status = domain.StatusCompleted
	completed.Rooms = rooms
	completed.Error = nil
	completed.UpdatedAt = time.Now().UTC()

	if err := m.repo.CompareAndUpdateJob(ctx, job.ID, domain.StatusProcessing, &completed); err != nil {
		return domain.WrapError(domain.ErrTransient, "persist completed job", err)
	}
	slog.Info("job_completed", "job_id", job.ID, "rooms", len(rooms), "attempt", job.Attempt)
	m.record(domain.StatusCompleted, len(rooms), job.Attempt)
	return nil
}

// concludeFailure persists either a retry (back to Pending, attempt kept) or
// the terminal Failed record. Processing -> Pending is the only legal
// backward transition; a terminal job is never reopened.
func (m *JobLifecycleManager) concludeFailure(ctx context.Context, job *domain.DetectionJob, detectErr error) error {
	if domain.IsRetryable(detectErr) && job.Attempt < m.maxAttempts {
		reverted := *job
		reverted.Status = domain.StatusPending
		reverted.UpdatedAt = time.Now().UTC()
		if err := m.repo.CompareAndUpdateJob(ctx, job.ID, domain.StatusProcessing, &reverted); err != nil {
			return domain.WrapError(domain.ErrTransient, "revert job to pending", err)
		}
		slog.Warn("job_retry_scheduled",
			"job_id", job.ID,
			"attempt", job.Attempt,
			"max_attempts", m.maxAttempts,
			"error", detectErr,
		)
		m.record(domain.StatusPending, 0, job.Attempt)
		return detectErr
	}

	failed := *job
	failed.Status = domain.StatusFailed
	failed.Rooms = nil
	failed.Error = &domain.JobError{
		Code:    domain.ErrorCode(detectErr),
		Message: detectErr.Error(),
	}
	failed.UpdatedAt = time.Now().UTC()
	if err := m.repo.CompareAndUpdateJob(ctx, job.ID, domain.StatusProcessing, &failed); err != nil {
		return domain.WrapError(domain.ErrTransient, "persist failed job", err)
	}
	slog.Error("job_failed",
		"job_id", job.ID,
		"code", failed.Error.Code,
		"attempt", job.Attempt,
		"error", detectErr,
	)
	m.record(domain.StatusFailed, 0, job.Attempt)
	return detectErr
}

func (m *JobLifecycleManager) record(status domain.JobStatus, rooms, attempt int) {
	if m.recorder != nil {
		m.recorder.RecordOutcome(status, rooms, attempt)
	}
}
