package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/planlens/roomscan/internal/config"
	"github.com/planlens/roomscan/internal/core/domain"
)

type submitFake struct {
	lastParams domain.DetectionParameters
	err        error
}

func (f *submitFake) Submit(_ context.Context, filename string, body io.Reader, params domain.DetectionParameters) (*domain.DetectionJob, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.lastParams = params
	if _, err := io.Copy(io.Discard, body); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &domain.DetectionJob{
		ID:        "job-1",
		SourceRef: "job-1_" + filename,
		Params:    params,
		Status:    domain.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

type readerFake struct {
	job *domain.DetectionJob
	err error
}

func (f *readerFake) GetJob(context.Context, string) (*domain.DetectionJob, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.job, nil
}

func testConfig() config.Config {
	return config.Config{
		DetectionMinArea:       1000,
		DetectionMaxArea:       1000000,
		DetectionEpsilonFactor: 0.01,
		ThresholdWindow:        11,
		ThresholdBias:          2,
	}
}

func multipartBody(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "plan.png")
	if err != nil {
		t.Fatalf("CreateFormFile() error = %v", err)
	}
	if _, err := part.Write([]byte("png-bytes")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("WriteField(%s) error = %v", key, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return &body, writer.FormDataContentType()
}

func TestHealthzEndpoint(t *testing.T) {
	handler := NewRouter(testConfig(), &submitFake{}, &readerFake{}).Handler()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
}

func TestSubmitJobAccepted(t *testing.T) {
	submitter := &submitFake{}
	handler := NewRouter(testConfig(), submitter, &readerFake{}).Handler()

	body, contentType := multipartBody(t, map[string]string{"min_area": "500", "epsilon_factor": "0.02"})
	req := httptest.NewRequest(http.MethodPost, "/v1/jobs", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", res.Code, res.Body.String())
	}

	var resp map[string]any
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["jobId"] != "job-1" || resp["status"] != "pending" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if submitter.lastParams.MinArea != 500 {
		t.Fatalf("min_area override not applied: %+v", submitter.lastParams)
	}
	if submitter.lastParams.EpsilonFactor != 0.02 {
		t.Fatalf("epsilon_factor override not applied: %+v", submitter.lastParams)
	}
	if submitter.lastParams.MaxArea != 1000000 {
		t.Fatalf("expected configured max area fallback, got %+v", submitter.lastParams)
	}
}

func TestSubmitJobMissingFile(t *testing.T) {
	handler := NewRouter(testConfig(), &submitFake{}, &readerFake{}).Handler()

	req := httptest.NewRequest(http.MethodPost, "/v1/jobs", bytes.NewBufferString("plain"))
	req.Header.Set("Content-Type", "text/plain")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestSubmitJobMalformedParameter(t *testing.T) {
	handler := NewRouter(testConfig(), &submitFake{}, &readerFake{}).Handler()

	body, contentType := multipartBody(t, map[string]string{"min_area": "lots"})
	req := httptest.NewRequest(http.MethodPost, "/v1/jobs", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestSubmitJobInvalidParamsStatus(t *testing.T) {
	submitErr := domain.WrapError(domain.ErrInvalidInput, "submit job", io.ErrUnexpectedEOF)
	handler := NewRouter(testConfig(), &submitFake{err: submitErr}, &readerFake{}).Handler()

	body, contentType := multipartBody(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/v1/jobs", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestGetJobCompletedIncludesRooms(t *testing.T) {
	polygon := []domain.Point{{X: 100, Y: 100}, {X: 400, Y: 100}, {X: 400, Y: 350}, {X: 100, Y: 350}}
	now := time.Now().UTC()
	reader := &readerFake{job: &domain.DetectionJob{
		ID:     "job-1",
		Status: domain.StatusCompleted,
		Rooms: []domain.Room{{
			ID:        "room_001",
			Polygon:   polygon,
			Lines:     domain.LinesFromPolygon(polygon),
			Area:      75000,
			Perimeter: 1100,
		}},
		Attempt:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}}
	handler := NewRouter(testConfig(), &submitFake{}, reader).Handler()

	req := httptest.NewRequest(http.MethodGet, "/v1/jobs/job-1", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}

	var resp struct {
		JobID     string           `json:"jobId"`
		Status    string           `json:"status"`
		Rooms     []map[string]any `json:"rooms"`
		RoomCount int              `json:"roomCount"`
		Error     *domain.JobError `json:"error"`
	}
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.JobID != "job-1" {
		t.Fatalf("jobId = %q, want job-1", resp.JobID)
	}
	if resp.Status != "completed" || resp.RoomCount != 1 || len(resp.Rooms) != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Error != nil {
		t.Fatalf("completed job must not carry an error, got %+v", resp.Error)
	}
	if resp.Rooms[0]["id"] != "room_001" {
		t.Fatalf("unexpected room payload: %+v", resp.Rooms[0])
	}
}

func TestJobStatusPayloadFieldNames(t *testing.T) {
	polygon := []domain.Point{{X: 100, Y: 100}, {X: 400, Y: 100}, {X: 400, Y: 350}, {X: 100, Y: 350}}
	now := time.Now().UTC()
	reader := &readerFake{job: &domain.DetectionJob{
		ID:     "j-1",
		Status: domain.StatusCompleted,
		Rooms: []domain.Room{{
			ID:        "room_001",
			Polygon:   polygon,
			Lines:     domain.LinesFromPolygon(polygon),
			Area:      75000,
			Perimeter: 1100,
		}},
		Attempt:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}}
	handler := NewRouter(testConfig(), &submitFake{}, reader).Handler()

	req := httptest.NewRequest(http.MethodGet, "/v1/jobs/j-1", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	var resp map[string]any
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	for _, key := range []string{"jobId", "status", "rooms", "roomCount"} {
		if _, ok := resp[key]; !ok {
			t.Fatalf("missing %q key in %+v", key, resp)
		}
	}
	for _, key := range []string{"job_id", "room_count"} {
		if _, ok := resp[key]; ok {
			t.Fatalf("unexpected %q key in %+v", key, resp)
		}
	}
	if resp["jobId"] != "j-1" {
		t.Fatalf("jobId = %v, want j-1", resp["jobId"])
	}
}

func TestGetJobCompletedWithZeroRooms(t *testing.T) {
	now := time.Now().UTC()
	reader := &readerFake{job: &domain.DetectionJob{
		ID:        "job-1",
		Status:    domain.StatusCompleted,
		Attempt:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}}
	handler := NewRouter(testConfig(), &submitFake{}, reader).Handler()

	req := httptest.NewRequest(http.MethodGet, "/v1/jobs/job-1", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	var resp map[string]any
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	rooms, ok := resp["rooms"].([]any)
	if !ok {
		t.Fatalf("rooms must be an explicit empty list, got %T", resp["rooms"])
	}
	if len(rooms) != 0 {
		t.Fatalf("expected zero rooms, got %v", rooms)
	}
}

func TestGetJobFailedIncludesError(t *testing.T) {
	now := time.Now().UTC()
	reader := &readerFake{job: &domain.DetectionJob{
		ID:        "job-1",
		Status:    domain.StatusFailed,
		Error:     &domain.JobError{Code: "InvalidImage", Message: "decode image: bad png"},
		Attempt:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}}
	handler := NewRouter(testConfig(), &submitFake{}, reader).Handler()

	req := httptest.NewRequest(http.MethodGet, "/v1/jobs/job-1", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	var resp struct {
		Status string           `json:"status"`
		Rooms  *[]any           `json:"rooms"`
		Error  *domain.JobError `json:"error"`
	}
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "failed" {
		t.Fatalf("status = %s, want failed", resp.Status)
	}
	if resp.Rooms != nil {
		t.Fatalf("failed job must not carry rooms")
	}
	if resp.Error == nil || resp.Error.Code != "InvalidImage" {
		t.Fatalf("error = %+v, want code InvalidImage", resp.Error)
	}
}

func TestGetJobNotFound(t *testing.T) {
	reader := &readerFake{err: domain.WrapError(domain.ErrJobNotFound, "get job", io.EOF)}
	handler := NewRouter(testConfig(), &submitFake{}, reader).Handler()

	req := httptest.NewRequest(http.MethodGet, "/v1/jobs/missing", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}
