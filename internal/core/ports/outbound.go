package ports

import (
	"context"
	"io"

	"github.com/planlens/roomscan/internal/core/domain"
)

// JobRepository persists job state. CompareAndUpdateJob is the sole write
// path after creation: it must apply the update only while the stored status
// still equals expected, and return a domain.ErrStatusConflict kind when
// another writer got there first. That conditional write is what serializes
// concurrent workers racing on one job.
type JobRepository interface {
	CreateJob(ctx context.Context, job *domain.DetectionJob) error
	GetJob(ctx context.Context, id string) (*domain.DetectionJob, error)
	CompareAndUpdateJob(ctx context.Context, id string, expected domain.JobStatus, update *domain.DetectionJob) error
}

// BlobStorage stores source floor plan images.
type BlobStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Fetch(ctx context.Context, key string) ([]byte, error)
}

// SignalQueue delivers upload-completed signals. Delivery is at-least-once;
// consumers must tolerate duplicates and reordering.
type SignalQueue interface {
	PublishUploadSignal(ctx context.Context, signal domain.UploadSignal) error
	SubscribeUploadSignals(ctx context.Context, handler func(context.Context, domain.UploadSignal) error) error
}

// RoomDetector runs boundary detection on a raw image buffer. It is CPU
// bound and synchronous; implementations must be stateless and safe for
// concurrent use on independent images.
type RoomDetector interface {
	Detect(data []byte, params domain.DetectionParameters) ([]domain.Room, error)
}
