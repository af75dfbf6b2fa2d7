package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/rflorenc/storefront-ica-generator/internal/models"
	"github.com/rflorenc/storefront-ica-generator/internal/storefront"
)

// JobTypeDescriptor is the type of jobs started by GenerateDescriptor.
const JobTypeDescriptor = "generate-descriptor"

// GenerateDescriptor starts an async descriptor generation for the resource
// selected by the request body and returns the job ID.
func (s *Server) GenerateDescriptor(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p := s.Portals.Get(id)
	if p == nil {
		writeError(w, http.StatusNotFound, "portal not found")
		return
	}

	var q models.ResourceQuery
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	var job *models.Job
	progress := func(line string) { job.AppendLog(line) }
	gen, err := storefront.New(p.Credentials(), q, s.portalOptions(p, storefront.WithProgress(progress))...)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	job = s.Jobs.Create(JobTypeDescriptor, id, q.String())

	go func() {
		job.AppendLog("Generating ICA file from " + p.URL + " (" + q.String() + ")")
		descriptor, err := gen.GenerateDescriptor(context.Background())
		if err != nil {
			s.logger().Error("descriptor job failed", zap.String("job", job.ID), zap.Error(err))
			job.AppendLog("ERROR: " + err.Error())
			job.Fail(err.Error())
			return
		}
		job.Complete(descriptor)
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": job.ID})
}

// GetJobDescriptor serves the descriptor of a completed job.
func (s *Server) GetJobDescriptor(w http.ResponseWriter, r *http.Request) {
	job := s.Jobs.Get(chi.URLParam(r, "id"))
	if job == nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	descriptor, ok := job.Descriptor()
	switch {
	case ok:
	case job.State() == models.JobRunning:
		writeError(w, http.StatusConflict, "job is still running")
		return
	default:
		writeError(w, http.StatusNotFound, "job has no descriptor")
		return
	}
	w.Header().Set("Content-Type", "application/x-ica")
	w.Header().Set("Content-Disposition", `attachment; filename="`+job.ID+`.ica"`)
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, descriptor)
}
