package httpadapter

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/planlens/roomscan/internal/config"
	"github.com/planlens/roomscan/internal/core/domain"
	"github.com/planlens/roomscan/internal/core/ports"
)

const submitQueueWait = 100 * time.Millisecond

type Router struct {
	cfg       config.Config
	submitter ports.JobSubmitter
	reader    ports.JobReader
}

func NewRouter(cfg config.Config, submitter ports.JobSubmitter, reader ports.JobReader) *Router {
	return &Router{
		cfg:       cfg,
		submitter: submitter,
		reader:    reader,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/jobs", rt.submitJob)
	mux.HandleFunc("/v1/jobs/", rt.getJob)

	var handler http.Handler = mux
	if rt.cfg.APIMaxInFlight > 0 {
		handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, submitQueueWait)
	}
	if rt.cfg.APIRateLimitRPS > 0 {
		handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) submitJob(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	params, err := rt.parseParams(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	job, err := rt.submitter.Submit(r.Context(), fileHeader.Filename, file, params)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"jobId":     job.ID,
		"status":    string(job.Status),
		"createdAt": job.CreatedAt,
	})
}

// parseParams builds detection parameters from the optional form fields,
// starting from the service-wide defaults.
func (rt *Router) parseParams(r *http.Request) (domain.DetectionParameters, error) {
	params := domain.DetectionParameters{
		MinArea:         rt.cfg.DetectionMinArea,
		MaxArea:         rt.cfg.DetectionMaxArea,
		EpsilonFactor:   rt.cfg.DetectionEpsilonFactor,
		ThresholdWindow: rt.cfg.ThresholdWindow,
		ThresholdBias:   rt.cfg.ThresholdBias,
	}

	if v := strings.TrimSpace(r.FormValue("min_area")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return params, domain.WrapError(domain.ErrInvalidInput, "parse min_area", err)
		}
		params.MinArea = n
	}
	if v := strings.TrimSpace(r.FormValue("max_area")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return params, domain.WrapError(domain.ErrInvalidInput, "parse max_area", err)
		}
		params.MaxArea = n
	}
	if v := strings.TrimSpace(r.FormValue("epsilon_factor")); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return params, domain.WrapError(domain.ErrInvalidInput, "parse epsilon_factor", err)
		}
		params.EpsilonFactor = f
	}

	return params, nil
}

type jobResponse struct {
	JobID     string           `json:"jobId"`
	Status    string           `json:"status"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
	Rooms     *[]domain.Room   `json:"rooms,omitempty"`
	RoomCount *int             `json:"roomCount,omitempty"`
	Error     *domain.JobError `json:"error,omitempty"`
}

func (rt *Router) getJob(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/jobs/")
	if id == "" || strings.Contains(id, "/") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "job id is required"})
		return
	}

	job, err := rt.reader.GetJob(r.Context(), id)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	resp := jobResponse{
		JobID:     job.ID,
		Status:    string(job.Status),
		CreatedAt: job.CreatedAt,
		UpdatedAt: job.UpdatedAt,
	}
	switch job.Status {
	case domain.StatusCompleted:
		// A completed job with no rooms still reports an explicit empty list.
		rooms := job.Rooms
		if rooms == nil {
			rooms = make([]domain.Room, 0)
		}
		count := len(rooms)
		resp.Rooms = &rooms
		resp.RoomCount = &count
	case domain.StatusFailed:
		resp.Error = job.Error
	}

	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
