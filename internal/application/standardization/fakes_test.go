package standardization

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/turtacn/molstandardizer/internal/domain/molecule"
	domainStd "github.com/turtacn/molstandardizer/internal/domain/standardization"
	dto "github.com/turtacn/molstandardizer/pkg/types/molecule"
)

// MockResultCache is a mock implementation of ResultCache.
type MockResultCache struct {
	mock.Mock
}

func (m *MockResultCache) Get(ctx context.Context, digest string) (*dto.StandardizeResult, bool, error) {
	args := m.Called(ctx, digest)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*dto.StandardizeResult), args.Bool(1), args.Error(2)
}

func (m *MockResultCache) Set(ctx context.Context, digest string, result *dto.StandardizeResult) error {
	args := m.Called(ctx, digest, result)
	return args.Error(0)
}

// MockResultRepository is a mock implementation of ResultRepository.
type MockResultRepository struct {
	mock.Mock
}

func (m *MockResultRepository) Save(ctx context.Context, result *dto.StandardizeResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

// recordingMetrics counts observations.
type recordingMetrics struct {
	mu        sync.Mutex
	outcomes  map[string]int
	fragments []int
	hits      int
	misses    int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{outcomes: make(map[string]int)}
}

func (r *recordingMetrics) RecordOutcome(status, reason string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes[status+"/"+reason]++
}

func (r *recordingMetrics) RecordFragments(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fragments = append(r.fragments, n)
}

func (r *recordingMetrics) RecordCache(hit bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if hit {
		r.hits++
	} else {
		r.misses++
	}
}

// StandardizerFunc adapts a function to Standardizer.
type StandardizerFunc func(g *molecule.Graph, meta *molecule.Metadata) domainStd.Outcome

func (f StandardizerFunc) Standardize(g *molecule.Graph, meta *molecule.Metadata) domainStd.Outcome {
	return f(g, meta)
}

// gatedStandardizer blocks every call until release is closed and tracks
// the highest number of concurrent calls.
type gatedStandardizer struct {
	next     Standardizer
	release  chan struct{}
	inFlight int32
	peak     int32
	calls    int32
}

func newGatedStandardizer(next Standardizer) *gatedStandardizer {
	return &gatedStandardizer{next: next, release: make(chan struct{})}
}

func (g *gatedStandardizer) Standardize(graph *molecule.Graph, meta *molecule.Metadata) domainStd.Outcome {
	atomic.AddInt32(&g.calls, 1)
	n := atomic.AddInt32(&g.inFlight, 1)
	for {
		p := atomic.LoadInt32(&g.peak)
		if n <= p || atomic.CompareAndSwapInt32(&g.peak, p, n) {
			break
		}
	}
	<-g.release
	atomic.AddInt32(&g.inFlight, -1)
	return g.next.Standardize(graph, meta)
}
