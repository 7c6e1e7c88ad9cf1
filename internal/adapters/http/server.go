package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"securbot/internal/ports"
	"securbot/internal/workers/monitorrunner"
	"securbot/internal/workers/scanrunner"
)

const (
	DefaultMaxConcurrentJobs = 4
	DefaultAcquireTimeout    = 5 * time.Second
	maxBodyBytes             = 1 << 20
)

type Options struct {
	MaxConcurrentJobs int64
	// AcquireTimeout bounds how long a delivery waits for a job slot before 503.
	AcquireTimeout time.Duration
}

// Server receives push deliveries from the job queue and runs one job per delivery.
type Server struct {
	opts     Options
	scans    scanrunner.ScanProcessor
	monitors monitorrunner.MonitorProcessor
	slots    *semaphore.Weighted
	log      *logrus.Entry
}

func New(opts Options, scans scanrunner.ScanProcessor, monitors monitorrunner.MonitorProcessor, log *logrus.Entry) *Server {
	if opts.MaxConcurrentJobs < 1 {
		opts.MaxConcurrentJobs = DefaultMaxConcurrentJobs
	}
	if opts.AcquireTimeout <= 0 {
		opts.AcquireTimeout = DefaultAcquireTimeout
	}
	return &Server{
		opts:     opts,
		scans:    scans,
		monitors: monitors,
		slots:    semaphore.NewWeighted(opts.MaxConcurrentJobs),
		log:      log,
	}
}

// Routes returns a chi.Router mounting the push and health handlers.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.getHealthz)
	// A nil processor leaves its route unmounted, e.g. scans in pull mode.
	if s.scans != nil {
		r.Post("/push/scans", s.postScan)
	}
	if s.monitors != nil {
		r.Post("/push/monitors", s.postMonitor)
	}
	return r
}

// pushEnvelope is the queue push body. Data holds the base64 job payload,
// which encoding/json decodes into []byte.
type pushEnvelope struct {
	Message struct {
		Data      []byte `json:"data"`
		MessageID string `json:"messageId"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

func (s *Server) getHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) postScan(w http.ResponseWriter, r *http.Request) {
	var job ports.ScanJob
	msgID, err := decodePush(r, &job)
	if err == nil {
		err = job.Validate()
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	log := s.log.WithFields(logrus.Fields{"message_id": msgID, "scan_id": job.ScanID})
	s.dispatch(w, r, log, func(ctx context.Context) error { return s.scans.Process(ctx, job) })
}

func (s *Server) postMonitor(w http.ResponseWriter, r *http.Request) {
	var job ports.MonitorJob
	msgID, err := decodePush(r, &job)
	if err == nil {
		err = job.Validate()
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	log := s.log.WithFields(logrus.Fields{"message_id": msgID, "monitor_id": job.MonitorID})
	s.dispatch(w, r, log, func(ctx context.Context) error { return s.monitors.Process(ctx, job) })
}

// dispatch runs job in a concurrency slot. The job context outlives the
// request so a dropped connection does not abort a half-finished job.
func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, log *logrus.Entry, job func(context.Context) error) {
	acquireCtx, cancel := context.WithTimeout(r.Context(), s.opts.AcquireTimeout)
	err := s.slots.Acquire(acquireCtx, 1)
	cancel()
	if err != nil {
		log.Warn("All job slots busy, asking for redelivery")
		s.fail(w, r, &runtimeError{code: http.StatusServiceUnavailable, msg: "busy"})
		return
	}
	defer s.slots.Release(1)

	if err := job(context.WithoutCancel(r.Context())); err != nil {
		log.WithError(err).Error("job processing failed")
		s.fail(w, r, &runtimeError{code: http.StatusInternalServerError, msg: "processing failed"})
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "OK")
}

func decodePush(r *http.Request, payload any) (string, error) {
	var env pushEnvelope
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&env); err != nil {
		return "", &runtimeError{code: http.StatusBadRequest, msg: fmt.Sprintf("invalid push envelope: %v", err)}
	}
	if len(env.Message.Data) == 0 {
		return env.Message.MessageID, &runtimeError{code: http.StatusBadRequest, msg: "missing message data"}
	}
	if err := json.Unmarshal(env.Message.Data, payload); err != nil {
		return env.Message.MessageID, &runtimeError{code: http.StatusBadRequest, msg: fmt.Sprintf("invalid job payload: %v", err)}
	}
	return env.Message.MessageID, nil
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := http.StatusBadRequest
	var rt *runtimeError
	if errors.As(err, &rt) {
		code = rt.code
	}
	if code < http.StatusInternalServerError {
		s.log.WithField("request_id", middleware.GetReqID(r.Context())).WithError(err).Warn("rejected push delivery")
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type runtimeError struct {
	code int
	msg  string
}

func (e *runtimeError) Error() string { return e.msg }
