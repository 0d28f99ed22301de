package standardization

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/turtacn/molstandardizer/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molstandardizer/pkg/errors"
	"github.com/turtacn/molstandardizer/pkg/types/common"
	dto "github.com/turtacn/molstandardizer/pkg/types/molecule"
)

// StandardizeBatch standardizes reqs with at most Config.Concurrency records
// in flight.  Results are returned in input order and every request gets a
// result: a record that fails for any reason is reported with StatusError
// and does not affect its neighbours.  The error is non-nil only when ctx
// ends before the batch completes; the summary is still returned.
func (s *serviceImpl) StandardizeBatch(ctx context.Context, reqs []*dto.StandardizeRequest) (*dto.BatchSummary, error) {
	start := time.Now()
	summary := dto.NewBatchSummary(uuid.NewString())
	results := make([]*dto.StandardizeResult, len(reqs))

	g := new(errgroup.Group)
	g.SetLimit(s.cfg.Concurrency)
	for i, req := range reqs {
		i, req := i, req
		if ctx.Err() != nil {
			results[i] = failedResult(req, errors.Wrap(ctx.Err(), errors.ErrCodeTimeout, "batch cancelled"))
			continue
		}
		g.Go(func() error {
			res, err := s.StandardizeRecord(ctx, req)
			if err != nil && res == nil {
				res = failedResult(req, err)
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range results {
		summary.Add(r)
	}
	summary.Results = results
	summary.DurationMs = time.Since(start).Milliseconds()

	s.logger.Info("batch finished",
		logging.String("batch_id", summary.BatchID),
		logging.Int("total", summary.Total),
		logging.Int("standardized", summary.Standardized),
		logging.Int("rejected", summary.Rejected),
		logging.Int("parse_failed", summary.ParseFailed),
		logging.Int("errors", summary.Errors),
		logging.Int64("duration_ms", summary.DurationMs),
	)

	if err := ctx.Err(); err != nil {
		return summary, errors.Wrap(err, errors.ErrCodeTimeout, "batch interrupted")
	}
	return summary, nil
}

func failedResult(req *dto.StandardizeRequest, err error) *dto.StandardizeResult {
	id := ""
	if req != nil {
		id = req.ID
	}
	return &dto.StandardizeResult{
		ID:          id,
		Status:      dto.StatusError,
		Error:       common.NewErrorDetail(err),
		ProcessedAt: common.NewTimestamp(),
	}
}
