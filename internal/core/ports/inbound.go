package ports

import (
	"context"
	"io"

	"github.com/planlens/roomscan/internal/core/domain"
)

// JobSubmitter is the inbound contract for accepting a new floor plan.
type JobSubmitter interface {
	Submit(ctx context.Context, filename string, body io.Reader, params domain.DetectionParameters) (*domain.DetectionJob, error)
}

// JobReader is the inbound read model for job status and results.
type JobReader interface {
	GetJob(ctx context.Context, id string) (*domain.DetectionJob, error)
}

// JobProcessor drives one job through its state machine. Process is safe to
// call any number of times for the same job: non-pending jobs are a no-op.
type JobProcessor interface {
	Process(ctx context.Context, jobID string) error
}

// UploadSignalHandler reacts to upload-completed trigger delivery.
type UploadSignalHandler interface {
	OnUploadSignal(ctx context.Context, signal domain.UploadSignal) error
}
