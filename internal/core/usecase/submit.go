package usecase

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/planlens/roomscan/internal/core/domain"
	"github.com/planlens/roomscan/internal/core/ports"
)

// SubmitJobUseCase accepts a new floor plan: store the image, create the
// Pending record, publish the upload signal. The signal may later be
// delivered more than once; nothing here depends on exactly-once.
type SubmitJobUseCase struct {
	repo    ports.JobRepository
	storage ports.BlobStorage
	queue   ports.SignalQueue
}

func NewSubmitJobUseCase(
	repo ports.JobRepository,
	storage ports.BlobStorage,
	queue ports.SignalQueue,
) *SubmitJobUseCase {
	return &SubmitJobUseCase{
		repo:    repo,
		storage: storage,
		queue:   queue,
	}
}

func (uc *SubmitJobUseCase) Submit(
	ctx context.Context,
	filename string,
	body io.Reader,
	params domain.DetectionParameters,
) (*domain.DetectionJob, error) {
	if params.MinArea < 0 || params.MaxArea < 0 || params.EpsilonFactor < 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "submit job", fmt.Errorf("negative detection parameters"))
	}
	if params.MaxArea > 0 && params.MinArea > params.MaxArea {
		return nil, domain.WrapError(domain.ErrInvalidInput, "submit job", fmt.Errorf("minArea %d exceeds maxArea %d", params.MinArea, params.MaxArea))
	}

	id := uuid.NewString()
	sourceRef := fmt.Sprintf("%s_%s", id, sanitizeFilename(filename))
	now := time.Now().UTC()

	if err := uc.storage.Save(ctx, sourceRef, body); err != nil {
		return nil, fmt.Errorf("save source image: %w", err)
	}

	job := &domain.DetectionJob{
		ID:        id,
		SourceRef: sourceRef,
		Params:    params,
		Status:    domain.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.repo.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("create job record: %w", err)
	}

	if err := uc.queue.PublishUploadSignal(ctx, domain.UploadSignal{JobID: id, SourceRef: sourceRef}); err != nil {
		return nil, fmt.Errorf("publish upload signal: %w", err)
	}

	return job, nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		return "blueprint.bin"
	}
	return base
}
