package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/molstandardizer/pkg/types/common"
)

type healthRecorder struct {
	mu    sync.Mutex
	state map[string]bool
}

func (r *healthRecorder) SetHealth(component string, up bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == nil {
		r.state = make(map[string]bool)
	}
	r.state[component] = up
}

func TestHealthServer_Liveness(t *testing.T) {
	s := NewHealthServer(HealthOptions{}, nil)
	s.Register("redis", func(context.Context) error { return errors.New("down") })

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestHealthServer_ReadyWhenAllChecksPass(t *testing.T) {
	rec := &healthRecorder{}
	s := NewHealthServer(HealthOptions{Reporter: rec}, nil)
	s.Register("redis", func(context.Context) error { return nil })
	s.Register("postgres", func(context.Context) error { return nil })

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var report HealthReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, common.HealthUp, report.Status)
	require.Len(t, report.Components, 2)
	assert.Equal(t, "postgres", report.Components[0].Name)
	assert.Equal(t, "redis", report.Components[1].Name)
	assert.Equal(t, map[string]bool{"redis": true, "postgres": true}, rec.state)
}

func TestHealthServer_NotReadyWhenACheckFails(t *testing.T) {
	rec := &healthRecorder{}
	s := NewHealthServer(HealthOptions{Reporter: rec}, nil)
	s.Register("kafka", func(context.Context) error { return errors.New("no brokers") })
	s.Register("redis", func(context.Context) error { return nil })

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var report HealthReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, common.HealthDown, report.Status)
	assert.Equal(t, common.HealthDown, report.Components[0].Status)
	assert.Equal(t, "no brokers", report.Components[0].Message)
	assert.False(t, rec.state["kafka"])
	assert.True(t, rec.state["redis"])
}

func TestHealthServer_CheckTimeout(t *testing.T) {
	s := NewHealthServer(HealthOptions{CheckTimeout: 10 * time.Millisecond}, nil)
	s.Register("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	report := s.Check(context.Background())
	assert.Equal(t, common.HealthDown, report.Status)
	assert.Equal(t, context.DeadlineExceeded.Error(), report.Components[0].Message)
}

func TestHealthServer_MetricsRoute(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("molstd_outcomes_total 1\n"))
	})
	s := NewHealthServer(HealthOptions{MetricsPath: "/prom", Metrics: metrics}, nil)

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/prom", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "molstd_outcomes_total")
}

func TestHealthServer_StartAndShutdown(t *testing.T) {
	s := NewHealthServer(HealthOptions{Addr: "127.0.0.1:0"}, nil)
	assert.Equal(t, "", s.Addr())
	require.NoError(t, s.Start())

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Get("http://" + s.Addr() + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "ok", string(body))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
}

func TestHealthServer_ShutdownBeforeStart(t *testing.T) {
	assert.NoError(t, NewHealthServer(HealthOptions{}, nil).Shutdown(context.Background()))
}
