package usecase

import (
	"context"
	"testing"

	"github.com/planlens/roomscan/internal/core/domain"
)

type processorFake struct {
	calls []string
	err   error
}

func (f *processorFake) Process(_ context.Context, jobID string) error {
	f.calls = append(f.calls, jobID)
	return f.err
}

func TestDispatcherForwardsPendingJob(t *testing.T) {
	repo := newMemJobRepo()
	_ = repo.CreateJob(context.Background(), pendingJob("job-1"))
	processor := &processorFake{}
	d := NewDispatcher(repo, processor)

	err := d.OnUploadSignal(context.Background(), domain.UploadSignal{JobID: "job-1", SourceRef: "job-1_plan.png"})
	if err != nil {
		t.Fatalf("OnUploadSignal() error = %v", err)
	}
	if len(processor.calls) != 1 || processor.calls[0] != "job-1" {
		t.Fatalf("processor calls = %v, want [job-1]", processor.calls)
	}
}

func TestDispatcherRejectsEmptyJobID(t *testing.T) {
	d := NewDispatcher(newMemJobRepo(), &processorFake{})
	err := d.OnUploadSignal(context.Background(), domain.UploadSignal{})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid-input error, got %v", err)
	}
}

func TestDispatcherDropsUnknownJob(t *testing.T) {
	processor := &processorFake{}
	d := NewDispatcher(newMemJobRepo(), processor)

	// A signal for a job the store never saw must not bounce back to the
	// queue; requeueing would retry it forever.
	if err := d.OnUploadSignal(context.Background(), domain.UploadSignal{JobID: "ghost"}); err != nil {
		t.Fatalf("OnUploadSignal() error = %v", err)
	}
	if len(processor.calls) != 0 {
		t.Fatalf("unknown job must not be processed, got %v", processor.calls)
	}
}

func TestDispatcherIgnoresDuplicateSignals(t *testing.T) {
	for _, status := range []domain.JobStatus{domain.StatusProcessing, domain.StatusCompleted, domain.StatusFailed} {
		repo := newMemJobRepo()
		job := pendingJob("job-1")
		job.Status = status
		_ = repo.CreateJob(context.Background(), job)
		processor := &processorFake{}
		d := NewDispatcher(repo, processor)

		if err := d.OnUploadSignal(context.Background(), domain.UploadSignal{JobID: "job-1"}); err != nil {
			t.Fatalf("OnUploadSignal() for %s job error = %v", status, err)
		}
		if len(processor.calls) != 0 {
			t.Fatalf("%s job must not be re-dispatched", status)
		}
	}
}
