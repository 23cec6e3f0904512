package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"degiro-returns/internal/jobstore"
	"degiro-returns/internal/metrics"
	"degiro-returns/internal/pipeline"
)

var validate = validator.New()

// dateRangeQuery binds and validates the optional windowing query
// parameters shared by both upload endpoints.
type dateRangeQuery struct {
	StartDate string `validate:"omitempty,datetime=02/01/2006"`
	EndDate   string `validate:"omitempty,datetime=02/01/2006"`
}

func parseWindow(r *http.Request) (pipeline.Window, error) {
	q := dateRangeQuery{
		StartDate: r.URL.Query().Get("start_date"),
		EndDate:   r.URL.Query().Get("end_date"),
	}
	if err := validate.Struct(q); err != nil {
		return pipeline.Window{}, fmt.Errorf("invalid date range: %w", err)
	}

	var w pipeline.Window
	if q.StartDate != "" {
		t, err := time.Parse("02/01/2006", q.StartDate)
		if err != nil {
			return pipeline.Window{}, fmt.Errorf("invalid start_date: %w", err)
		}
		w.Start = t
	}
	if q.EndDate != "" {
		t, err := time.Parse("02/01/2006", q.EndDate)
		if err != nil {
			return pipeline.Window{}, fmt.Errorf("invalid end_date: %w", err)
		}
		w.End = t
	}
	return w, nil
}

// saveUpload streams the multipart "file" field to a fresh temp file,
// isolated per upload so concurrent requests never collide (SPEC_FULL.md
// §12), and sniffs its content type purely for diagnostics — DEGIRO's CSV
// export commonly sniffs as text/plain, so this never blocks the request.
func (s *Server) saveUpload(r *http.Request) (path string, cleanup func(), err error) {
	file, _, err := r.FormFile("file")
	if err != nil {
		return "", nil, fmt.Errorf("missing file: %w", err)
	}
	defer file.Close()

	tmp, err := os.CreateTemp("", "degiro-returns-upload-*.csv")
	if err != nil {
		return "", nil, fmt.Errorf("create temp file: %w", err)
	}
	cleanup = func() { os.Remove(tmp.Name()) }

	header, err := mimetype.DetectReader(io.LimitReader(file, 3072))
	if err != nil {
		cleanup()
		return "", nil, fmt.Errorf("sniff upload: %w", err)
	}
	s.Log.Debug("upload content sniffed", zap.String("mime", header.String()))

	if seeker, ok := file.(io.Seeker); ok {
		if _, err := seeker.Seek(0, io.SeekStart); err != nil {
			cleanup()
			return "", nil, fmt.Errorf("rewind upload: %w", err)
		}
	}
	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		cleanup()
		return "", nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", nil, err
	}
	return tmp.Name(), cleanup, nil
}

func (s *Server) handleComputeSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.UploadMaxBytes)
	if err := r.ParseMultipartForm(s.UploadMaxBytes); err != nil {
		writeError(w, http.StatusBadRequest, pipeline.ErrKindParse, err)
		return
	}

	window, err := parseWindow(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, pipeline.ErrKindParse, err)
		return
	}

	path, cleanup, err := s.saveUpload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, pipeline.ErrKindParse, err)
		return
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(r.Context(), NewServerTimeout)
	defer cancel()

	summary, err := pipeline.ComputeReturns(ctx, s.Log, path, window)
	if err != nil {
		writeError(w, statusFor(pipeline.Classify(err)), pipeline.Classify(err), err)
		return
	}

	writeSummary(w, r, summary)
}

func (s *Server) handleComputeAsync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.UploadMaxBytes)
	if err := r.ParseMultipartForm(s.UploadMaxBytes); err != nil {
		writeError(w, http.StatusBadRequest, pipeline.ErrKindParse, err)
		return
	}

	window, err := parseWindow(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, pipeline.ErrKindParse, err)
		return
	}

	path, cleanup, err := s.saveUpload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, pipeline.ErrKindParse, err)
		return
	}

	jobID := uuid.NewString()
	if err := s.Jobs.Save(r.Context(), jobstore.Job{ID: jobID, Status: jobstore.StatusQueued}); err != nil {
		cleanup()
		writeError(w, http.StatusInternalServerError, pipeline.ErrKindInternal, err)
		return
	}

	go s.runAsync(jobID, path, cleanup, window)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]string{"job_id": jobID})
}

func (s *Server) runAsync(jobID, path string, cleanup func(), window pipeline.Window) {
	defer cleanup()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	_ = s.Jobs.Save(ctx, jobstore.Job{ID: jobID, Status: jobstore.StatusRunning})

	summary, err := pipeline.ComputeReturns(ctx, s.Log, path, window)
	if err != nil {
		kind := pipeline.Classify(err)
		metrics.JobsTotal.WithLabelValues("failed").Inc()
		_ = s.Jobs.Save(ctx, jobstore.Job{ID: jobID, Status: jobstore.StatusFailed, ErrorKind: string(kind), ErrorMsg: err.Error()})
		if s.Notifier != nil {
			_ = s.Notifier.JobFailed(jobID, err.Error())
		}
		return
	}

	metrics.JobsTotal.WithLabelValues("done").Inc()
	_ = s.Jobs.Save(ctx, jobstore.Job{ID: jobID, Status: jobstore.StatusDone, Summary: &summary})
	if s.Notifier != nil {
		_ = s.Notifier.JobComplete(jobID, summary.GlobalReturn)
	}
}

func (s *Server) handlePollJob(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/public/jobs/")
	if id == "" {
		http.Error(w, "missing job id", http.StatusBadRequest)
		return
	}
	job, ok, err := s.Jobs.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, pipeline.ErrKindInternal, err)
		return
	}
	if !ok {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(job)
}

func writeError(w http.ResponseWriter, status int, kind pipeline.ErrKind, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error_kind": string(kind), "error": err.Error()})
}

func statusFor(kind pipeline.ErrKind) int {
	switch kind {
	case pipeline.ErrKindFileNotFound:
		return http.StatusNotFound
	case pipeline.ErrKindParse, pipeline.ErrKindFXMissing, pipeline.ErrKindISINChange, pipeline.ErrKindAmbiguous:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

