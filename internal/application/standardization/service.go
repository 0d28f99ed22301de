// Package standardization provides the application service that turns raw
// structure records into standardized results.  It sits between the
// transports (CLI, Kafka worker) and the domain pipeline, and owns the
// cross-cutting concerns: caching, persistence, metrics and timeouts.
package standardization

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/molstandardizer/internal/domain/molecule"
	domainStd "github.com/turtacn/molstandardizer/internal/domain/standardization"
	"github.com/turtacn/molstandardizer/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molstandardizer/internal/intelligence/chem"
	"github.com/turtacn/molstandardizer/pkg/errors"
	"github.com/turtacn/molstandardizer/pkg/types/common"
	dto "github.com/turtacn/molstandardizer/pkg/types/molecule"
)

// Service defines the standardization application operations.
type Service interface {
	StandardizeRecord(ctx context.Context, req *dto.StandardizeRequest) (*dto.StandardizeResult, error)
	StandardizeBatch(ctx context.Context, reqs []*dto.StandardizeRequest) (*dto.BatchSummary, error)
	Inspect(ctx context.Context, format string, raw []byte) (*Inspection, error)
}

// Config tunes the service.
type Config struct {
	// Concurrency bounds StandardizeBatch fan-out.
	Concurrency int
	// RecordTimeout bounds one record; zero means no limit.
	RecordTimeout time.Duration
	// IncludeMolfile adds a V2000 mol block to successful results.
	IncludeMolfile bool
}

// Dependencies are the collaborators of the service.  Standardizer and
// Keys are required; the rest are optional.
type Dependencies struct {
	Standardizer Standardizer
	Keys         molecule.KeyGenerator
	Neutralizer  molecule.Neutralizer
	Cache        ResultCache
	Repository   ResultRepository
	Metrics      Metrics
	Logger       logging.Logger
}

// DefaultDependencies wires the chem collaborators into a domain pipeline.
func DefaultDependencies(logger logging.Logger) Dependencies {
	n := chem.NewNeutralizer()
	k := chem.NewKeyGenerator()
	return Dependencies{
		Standardizer: domainStd.NewStandardizer(n, k, logger),
		Keys:         k,
		Neutralizer:  n,
		Logger:       logger,
	}
}

type serviceImpl struct {
	cfg     Config
	std     Standardizer
	keys    molecule.KeyGenerator
	neut    molecule.Neutralizer
	cache   ResultCache
	repo    ResultRepository
	metrics Metrics
	logger  logging.Logger
}

// NewService creates a new standardization application service.
func NewService(cfg Config, deps Dependencies) (Service, error) {
	if deps.Standardizer == nil {
		return nil, errors.InvalidParam("standardizer is required")
	}
	if deps.Keys == nil {
		return nil, errors.InvalidParam("key generator is required")
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if deps.Neutralizer == nil {
		deps.Neutralizer = chem.NewNeutralizer()
	}
	if deps.Metrics == nil {
		deps.Metrics = nopMetrics{}
	}
	if deps.Logger == nil {
		deps.Logger = logging.NewNopLogger()
	}
	return &serviceImpl{
		cfg:     cfg,
		std:     deps.Standardizer,
		keys:    deps.Keys,
		neut:    deps.Neutralizer,
		cache:   deps.Cache,
		repo:    deps.Repository,
		metrics: deps.Metrics,
		logger:  deps.Logger,
	}, nil
}

// StandardizeRecord standardizes one record.  A structure that cannot be
// parsed and a rejected molecule are both ordinary results.  The returned
// error is reserved for timeouts and infrastructure failures; the result is
// still populated in that case.
func (s *serviceImpl) StandardizeRecord(ctx context.Context, req *dto.StandardizeRequest) (*dto.StandardizeResult, error) {
	if err := req.Validate(); err != nil {
		return nil, errors.Validation(err.Error())
	}
	start := time.Now()
	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}

	digest := Digest(req)
	if cached := s.lookup(ctx, digest); cached != nil {
		cached.ID = id
		cached.Cached = true
		cached.DurationMs = time.Since(start).Milliseconds()
		cached.ProcessedAt = common.NewTimestamp()
		s.metrics.RecordOutcome(string(cached.Status), cached.Reason, time.Since(start))
		return cached, nil
	}

	res, err := s.process(ctx, id, req)
	res.DurationMs = time.Since(start).Milliseconds()
	res.ProcessedAt = common.NewTimestamp()
	s.metrics.RecordOutcome(string(res.Status), res.Reason, time.Since(start))
	if err != nil {
		s.logger.Warn("record failed", logging.String("id", id), logging.Err(err))
		return res, err
	}

	if s.cache != nil {
		if cerr := s.cache.Set(ctx, digest, res); cerr != nil {
			s.logger.Warn("result cache write failed", logging.String("id", id), logging.Err(cerr))
		}
	}
	if s.repo != nil {
		if rerr := s.repo.Save(ctx, res); rerr != nil {
			return res, errors.Wrap(rerr, errors.ErrCodeDatabaseError, "persisting standardization result")
		}
	}
	return res, nil
}

func (s *serviceImpl) lookup(ctx context.Context, digest string) *dto.StandardizeResult {
	if s.cache == nil {
		return nil
	}
	res, ok, err := s.cache.Get(ctx, digest)
	if err != nil {
		s.logger.Warn("result cache read failed", logging.Err(err))
		return nil
	}
	s.metrics.RecordCache(ok)
	if !ok {
		return nil
	}
	return res
}

func (s *serviceImpl) process(ctx context.Context, id string, req *dto.StandardizeRequest) (*dto.StandardizeResult, error) {
	g, meta, err := chem.ParseStructure(req.Format, []byte(req.Structure))
	if err != nil {
		s.logger.Debug("record could not be parsed", logging.String("id", id), logging.Err(err))
		return &dto.StandardizeResult{ID: id, Status: dto.StatusParseFailed, Error: common.NewErrorDetail(err)}, nil
	}
	for _, p := range req.Properties {
		meta.Set(p.Name, p.Value)
	}

	out, err := s.run(ctx, g, meta)
	if err != nil {
		return &dto.StandardizeResult{ID: id, Status: dto.StatusError, Error: common.NewErrorDetail(err)}, err
	}
	s.metrics.RecordFragments(out.Trace.Fragments)

	res := &dto.StandardizeResult{ID: id, Trace: traceDTO(out.Trace)}
	if !out.IsSuccess() {
		res.Status = dto.StatusRejected
		res.Reason = out.Reason().String()
		res.Message = out.Reason().Message()
		res.Properties = propertiesDTO(meta)
		s.logger.Debug("molecule rejected", logging.String("id", id), logging.String("reason", res.Reason))
		return res, nil
	}

	frag := out.Fragment()
	key, err := s.keys.CanonicalKey(frag)
	if err != nil {
		return &dto.StandardizeResult{ID: id, Status: dto.StatusError, Error: common.NewErrorDetail(err)}, err
	}
	res.Status = dto.StatusStandardized
	res.SMILES = chem.WriteSMILES(frag)
	res.CanonicalKey = key
	res.Formula = chem.Formula(frag)
	res.HeavyAtoms = molecule.HeavyAtomCount(frag)
	res.Properties = propertiesDTO(frag.Props)
	if s.cfg.IncludeMolfile {
		title, _ := frag.Props.Get(chem.TitleProperty)
		res.Molfile = chem.WriteMolBlock(frag, title)
	}
	return res, nil
}

// run executes the pipeline under ctx.  A panic inside the pipeline is
// contained to this record.
func (s *serviceImpl) run(ctx context.Context, g *molecule.Graph, meta *molecule.Metadata) (domainStd.Outcome, error) {
	if err := ctx.Err(); err != nil {
		return domainStd.Outcome{}, errors.Wrap(err, errors.ErrCodeTimeout, "record cancelled before start")
	}
	if s.cfg.RecordTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RecordTimeout)
		defer cancel()
	}

	type result struct {
		out domainStd.Outcome
		err error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: errors.Newf(errors.ErrCodeInternal, "standardization panicked: %v", r)}
			}
		}()
		done <- result{out: s.std.Standardize(g, meta)}
	}()

	select {
	case r := <-done:
		return r.out, r.err
	case <-ctx.Done():
		return domainStd.Outcome{}, errors.Wrap(ctx.Err(), errors.ErrCodeTimeout, "standardization timed out")
	}
}

// Digest identifies a request's content for caching: the normalized
// format, the structure text and the request properties in order.
func Digest(req *dto.StandardizeRequest) string {
	format, err := chem.NormalizeFormat(req.Format)
	if err != nil {
		format = req.Format
	}
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|", format, req.Structure)
	for _, p := range req.Properties {
		fmt.Fprintf(h, "%d:%s=%d:%s;", len(p.Name), p.Name, len(p.Value), p.Value)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func propertiesDTO(m *molecule.Metadata) []dto.Property {
	props := m.Properties()
	if len(props) == 0 {
		return nil
	}
	out := make([]dto.Property, len(props))
	for i, p := range props {
		out[i] = dto.Property{Name: p.Name, Value: p.Value}
	}
	return out
}

func traceDTO(t domainStd.Trace) dto.Trace {
	return dto.Trace{
		StrippedAtoms:    t.StrippedAtoms,
		Fragments:        t.Fragments,
		UniqueFragments:  t.UniqueFragments,
		InorganicRemoved: t.InorganicRemoved,
		MetalRemoved:     t.MetalRemoved,
	}
}
