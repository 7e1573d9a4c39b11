package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	ctrlmetrics "sigs.k8s.io/controller-runtime/pkg/metrics"

	"github.com/imamik/k8zdb/internal/platform/ssh"
	"github.com/imamik/k8zdb/internal/store"
	"github.com/imamik/k8zdb/internal/tasks"
	"github.com/imamik/k8zdb/internal/workload"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// API serves workload operations and task progress as JSON.
type API struct {
	app    *App
	logger logr.Logger
}

// NewAPI creates the HTTP surface for app.
func NewAPI(app *App, logger logr.Logger) *API {
	return &API{app: app, logger: logger}
}

// ScaleRequest carries exactly one of Replicas or CapacityGi.
type ScaleRequest struct {
	Replicas   *int32 `json:"replicas,omitempty"`
	CapacityGi *int   `json:"capacityGi,omitempty"`
}

// TaskResponse is returned by asynchronous operations.
type TaskResponse struct {
	TaskID   tasks.ID          `json:"taskId"`
	Identity workload.Identity `json:"identity"`
}

// Handler returns the routed handler.
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", a.handleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(ctrlmetrics.Registry, promhttp.HandlerOpts{}))

	mux.HandleFunc("POST /v1/workloads", a.handleProvision)
	mux.HandleFunc("GET /v1/workloads", a.handleListWorkloads)
	mux.HandleFunc("GET /v1/workloads/{id}", a.handleGetWorkload)
	mux.HandleFunc("POST /v1/workloads/{id}/scale", a.handleScale)
	mux.HandleFunc("GET /v1/workloads/{id}/usage", a.handleUsage)
	mux.HandleFunc("DELETE /v1/workloads/{id}", a.handleDestroy)

	mux.HandleFunc("GET /v1/tasks", a.handleListTasks)
	mux.HandleFunc("GET /v1/tasks/{id}", a.handleGetTask)
	return a.withLogging(mux)
}

func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) handleProvision(w http.ResponseWriter, r *http.Request) {
	var spec workload.Spec
	if err := decodeBody(w, r, &spec); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	handle, err := a.app.Orchestrator.Start(r.Context(), spec)
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, TaskResponse{TaskID: handle.TaskID, Identity: handle.Identity})
}

func (a *API) handleListWorkloads(w http.ResponseWriter, r *http.Request) {
	records, err := a.app.Deps.Store.List(r.Context())
	if err != nil {
		a.fail(w, err)
		return
	}
	if records == nil {
		records = []*workload.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (a *API) handleGetWorkload(w http.ResponseWriter, r *http.Request) {
	rec, err := a.app.Deps.Store.Get(r.Context(), workload.Identity(r.PathValue("id")))
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (a *API) handleScale(w http.ResponseWriter, r *http.Request) {
	var req ScaleRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if (req.Replicas == nil) == (req.CapacityGi == nil) {
		writeError(w, http.StatusBadRequest, "exactly one of replicas or capacityGi is required")
		return
	}

	id := workload.Identity(r.PathValue("id"))
	var (
		rec *workload.Record
		err error
	)
	if req.Replicas != nil {
		rec, err = a.app.Scaler.Scale(r.Context(), id, *req.Replicas)
	} else {
		rec, err = a.app.Scaler.Resize(r.Context(), id, *req.CapacityGi)
	}
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (a *API) handleUsage(w http.ResponseWriter, r *http.Request) {
	_, report, err := collectUsage(r.Context(), a.app, workload.Identity(r.PathValue("id")))
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (a *API) handleDestroy(w http.ResponseWriter, r *http.Request) {
	id := workload.Identity(r.PathValue("id"))
	taskID, err := a.app.Destroyer.Start(r.Context(), id)
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, TaskResponse{TaskID: taskID, Identity: id})
}

func (a *API) handleListTasks(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.app.Deps.Tracker.List())
}

func (a *API) handleGetTask(w http.ResponseWriter, r *http.Request) {
	snap, ok := a.app.Deps.Tracker.Snapshot(tasks.ID(r.PathValue("id")))
	if !ok {
		writeError(w, http.StatusNotFound, tasks.ErrNotFound.Error())
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// fail maps err onto a status code. Unexpected errors are logged.
func (a *API) fail(w http.ResponseWriter, err error) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		a.logger.Error(err, "request failed")
	}
	writeError(w, status, err.Error())
}

func errorStatus(err error) int {
	switch {
	case workload.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, workload.ErrNotFound), errors.Is(err, tasks.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrExists):
		return http.StatusConflict
	case ssh.IsConnectionError(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (a *API) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		a.logger.V(1).Info("request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "duration", time.Since(start))
	})
}
