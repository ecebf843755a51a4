package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/planlens/roomscan/internal/core/domain"
	"github.com/planlens/roomscan/internal/core/ports"
)

// Dispatcher reacts to upload-completed signals. It validates the signal,
// then hands the job to the lifecycle manager. Duplicate and out-of-order
// signals are expected: the lifecycle's Pending check turns them into
// no-ops, so the dispatcher never tracks delivery state of its own. Retry is
// owned by the lifecycle manager, not the dispatcher.
type Dispatcher struct {
	repo      ports.JobRepository
	processor ports.JobProcessor
}

func NewDispatcher(repo ports.JobRepository, processor ports.JobProcessor) *Dispatcher {
	return &Dispatcher{repo: repo, processor: processor}
}

func (d *Dispatcher) OnUploadSignal(ctx context.Context, signal domain.UploadSignal) error {
	if signal.JobID == "" {
		return domain.WrapError(domain.ErrInvalidInput, "upload signal", errors.New("missing job id"))
	}

	job, err := d.repo.GetJob(ctx, signal.JobID)
	if err != nil {
		if domain.IsKind(err, domain.ErrJobNotFound) {
			// Stale or foreign signal; nothing to do.
			slog.Warn("upload_signal_unknown_job", "job_id", signal.JobID, "source_ref", signal.SourceRef)
			return nil
		}
		return domain.WrapError(domain.ErrTransient, "load job for signal", err)
	}

	if job.Status != domain.StatusPending {
		slog.Debug("upload_signal_ignored", "job_id", signal.JobID, "status", string(job.Status))
		return nil
	}

	return d.processor.Process(ctx, signal.JobID)
}
