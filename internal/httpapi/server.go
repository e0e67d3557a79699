package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/scribeflow/scribeflow/internal/jobs"
)

// Server exposes the intake and status API around the job queue. Thin I/O
// glue: all processing semantics live in the queue and pipeline.
type Server struct {
	queue     *jobs.Queue
	uploadDir string
	maxUpload int64

	mux    *http.ServeMux
	server *http.Server
}

type Option func(*Server)

// WithMaxUploadBytes caps accepted upload sizes.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		s.maxUpload = n
	}
}

func NewServer(queue *jobs.Queue, uploadDir string, opts ...Option) *Server {
	s := &Server{
		queue:     queue,
		uploadDir: uploadDir,
		maxUpload: 2 << 30, // 2 GB
		mux:       http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/jobs", s.handleJobs)
	s.mux.HandleFunc("/api/jobs/", s.handleJobByID)
}
