package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/scribeflow/scribeflow/internal/jobs"
	"github.com/scribeflow/scribeflow/pkg/file"
	"github.com/scribeflow/scribeflow/pkg/log"
)

// jobView is the externally visible shape of a job. Transcript and summary
// appear only on completed jobs, the error message only on failed ones; a
// failed job never exposes partial results.
type jobView struct {
	ID           string         `json:"id"`
	Status       jobs.Status    `json:"status"`
	MediaKind    jobs.MediaKind `json:"media_kind"`
	Transcript   string         `json:"transcript,omitempty"`
	Summary      string         `json:"summary,omitempty"`
	Language     string         `json:"language,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

func viewOf(job *jobs.Job) jobView {
	view := jobView{
		ID:        job.ID,
		Status:    job.Status,
		MediaKind: job.MediaKind,
		CreatedAt: job.CreatedAt,
		UpdatedAt: job.UpdatedAt,
	}
	switch job.Status {
	case jobs.StatusCompleted:
		view.Transcript = job.Transcript
		view.Summary = job.Summary
		view.Language = job.Language
	case jobs.StatusFailed:
		view.ErrorMessage = job.ErrorMessage
	}
	return view
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListJobs(w, r)
	case http.MethodPost:
		s.handleSubmitJob(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleListJobs(w http.ResponseWriter, _ *http.Request) {
	list := s.queue.List()
	views := make([]jobView, 0, len(list))
	for _, job := range list {
		views = append(views, viewOf(job))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleSubmitJob(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("parse upload: %v", err))
		return
	}

	upload, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer upload.Close()

	if !file.IsMediaFile(header.Filename) {
		writeError(w, http.StatusUnsupportedMediaType, "unsupported media type")
		return
	}

	path, size, err := s.saveUpload(upload, header.Filename)
	if err != nil {
		log.Error("Failed to store upload %s: %v", header.Filename, err)
		writeError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}

	job, err := s.queue.Enqueue(jobs.EnqueueRequest{
		SourcePath: path,
		MimeKind:   mimeKind(header),
		SizeBytes:  size,
	})
	if err != nil {
		_ = os.Remove(path)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	log.Info("Accepted upload %s as job %s (%d bytes)", header.Filename, job.ID, size)
	writeJSON(w, http.StatusAccepted, viewOf(job))
}

func (s *Server) handleJobByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/jobs/"), "/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing job id")
		return
	}

	job, ok := s.queue.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, viewOf(job))
}

// saveUpload stores the uploaded file under a UUID-prefixed name so no two
// jobs ever share chunk file names derived from the source path.
func (s *Server) saveUpload(upload multipart.File, name string) (string, int64, error) {
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return "", 0, fmt.Errorf("create upload dir: %w", err)
	}

	path := filepath.Join(s.uploadDir, uuid.NewString()+"_"+filepath.Base(name))
	out, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("create upload file: %w", err)
	}
	defer out.Close()

	size, err := io.Copy(out, upload)
	if err != nil {
		_ = os.Remove(path)
		return "", 0, fmt.Errorf("write upload file: %w", err)
	}
	return path, size, nil
}

func mimeKind(header *multipart.FileHeader) string {
	if kind := header.Header.Get("Content-Type"); kind != "" {
		return kind
	}
	return "application/octet-stream"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
