package worker

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/turtacn/molstandardizer/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molstandardizer/pkg/errors"
	"github.com/turtacn/molstandardizer/pkg/types/common"
)

// Check probes one dependency.
type Check func(ctx context.Context) error

// HealthReporter mirrors check results into metrics.
type HealthReporter interface {
	SetHealth(component string, up bool)
}

// HealthOptions configures the health server.
type HealthOptions struct {
	Addr         string
	MetricsPath  string
	Metrics      http.Handler
	Reporter     HealthReporter
	CheckTimeout time.Duration
}

// HealthReport is the /readyz body.
type HealthReport struct {
	Status     common.HealthStatus      `json:"status"`
	Components []common.ComponentHealth `json:"components"`
}

// HealthServer serves /healthz, /readyz and, when configured, metrics.
type HealthServer struct {
	opts   HealthOptions
	logger logging.Logger

	mu     sync.RWMutex
	checks map[string]Check

	srv *http.Server
	ln  net.Listener
}

// NewHealthServer creates a server; call Start to listen.
func NewHealthServer(opts HealthOptions, log logging.Logger) *HealthServer {
	if opts.CheckTimeout <= 0 {
		opts.CheckTimeout = 2 * time.Second
	}
	if opts.MetricsPath == "" {
		opts.MetricsPath = "/metrics"
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &HealthServer{opts: opts, logger: log, checks: make(map[string]Check)}
}

// Register adds a readiness check under name.
func (s *HealthServer) Register(name string, check Check) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks[name] = check
}

// Check runs every registered check.  The worker is ready only when all of
// them pass.
func (s *HealthServer) Check(ctx context.Context) HealthReport {
	s.mu.RLock()
	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	s.mu.RUnlock()
	sort.Strings(names)

	report := HealthReport{Status: common.HealthUp, Components: make([]common.ComponentHealth, 0, len(names))}
	for _, name := range names {
		s.mu.RLock()
		check := s.checks[name]
		s.mu.RUnlock()

		cctx, cancel := context.WithTimeout(ctx, s.opts.CheckTimeout)
		start := time.Now()
		err := check(cctx)
		cancel()

		ch := common.ComponentHealth{Name: name, Status: common.HealthUp, Latency: time.Since(start)}
		if err != nil {
			ch.Status = common.HealthDown
			ch.Message = err.Error()
			report.Status = common.HealthDown
		}
		if s.opts.Reporter != nil {
			s.opts.Reporter.SetHealth(name, err == nil)
		}
		report.Components = append(report.Components, ch)
	}
	return report
}

// Handler returns the server's routes.
func (s *HealthServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		report := s.Check(r.Context())
		code := http.StatusOK
		if report.Status != common.HealthUp {
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(report)
	})
	if s.opts.Metrics != nil {
		mux.Handle(s.opts.MetricsPath, s.opts.Metrics)
	}
	return mux
}

// Start binds the listener and serves in the background.
func (s *HealthServer) Start() error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeServiceUnavailable, "health server listen "+s.opts.Addr)
	}
	s.ln = ln
	s.srv = &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		s.logger.Info("health server listening", logging.String("addr", ln.Addr().String()))
		if err := s.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("health server error", logging.Err(err))
		}
	}()
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *HealthServer) Addr() string {
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Shutdown stops the server gracefully.
func (s *HealthServer) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
