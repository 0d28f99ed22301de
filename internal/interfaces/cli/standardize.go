package cli

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/turtacn/molstandardizer/internal/application/standardization"
	"github.com/turtacn/molstandardizer/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molstandardizer/pkg/errors"
	dto "github.com/turtacn/molstandardizer/pkg/types/molecule"
)

const defaultBatchSize = 500

type standardizeOptions struct {
	input       string
	output      string
	rejects     string
	inputFormat string
	format      string
	workers     int
	timeout     time.Duration
	batchSize   int
	keepGoing   bool
}

// NewStandardizeCmd creates the standardize command.
func NewStandardizeCmd() *cobra.Command {
	opts := &standardizeOptions{}
	cmd := &cobra.Command{
		Use:   "standardize",
		Short: "Standardize an SD file or SMILES list",
		Long: "Reads structures from a file, stdin (-) or s3://bucket/key, keeps the\n" +
			"largest organic fragment of each, neutralizes it and writes the results.\n" +
			"Rejected and unreadable records go to --rejects when set.",
		Example: "  molstd standardize --input in.sdf --output out.sdf --rejects rejects.sdf\n" +
			"  molstd standardize --input s3://batches/in.smi --output - --format smiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			b := newBackends(cliCtx.Config, cliCtx.Logger)
			defer func() {
				if cerr := b.Close(); cerr != nil {
					cliCtx.Logger.Warn("closing backends", logging.Err(cerr))
				}
			}()

			summary, err := runStandardize(cmd.Context(), cmd, cliCtx, b, opts)
			if summary != nil {
				if perr := PrintResult(cmd, summary); perr != nil && err == nil {
					err = perr
				}
			}
			return err
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.input, "input", "i", "", "input location: file, - for stdin, or s3://bucket/key (required)")
	f.StringVarP(&opts.output, "output", "o", "-", "output location: file, - for stdout, or s3://bucket/key")
	f.StringVar(&opts.rejects, "rejects", "", "write records that were not standardized here, with the reason")
	f.StringVar(&opts.inputFormat, "input-format", "", "input format sdf|smiles (default: from the extension, then the config)")
	f.StringVarP(&opts.format, "format", "f", "", "output format sdf|smiles (default: from the config)")
	f.IntVarP(&opts.workers, "workers", "w", 0, "records standardized in parallel (default: from the config)")
	f.DurationVar(&opts.timeout, "timeout", 0, "per-record timeout (default: from the config)")
	f.IntVar(&opts.batchSize, "batch-size", defaultBatchSize, "records read per batch")
	f.BoolVar(&opts.keepGoing, "keep-going", false, "continue after records that fail with an error")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

// runStandardize streams opts.input through the service in batches and
// returns the totals.  The summary is returned alongside any error.
func runStandardize(ctx context.Context, cmd *cobra.Command, cliCtx *CLIContext, b *backends, opts *standardizeOptions) (*RunSummary, error) {
	cfg := cliCtx.Config.Standardizer
	inFormat := opts.inputFormat
	if inFormat == "" {
		inFormat = formatForLocation(opts.input, cfg.InputFormat)
	}
	outFormat := opts.format
	if outFormat == "" {
		outFormat = formatForLocation(opts.output, cfg.OutputFormat)
	}
	for _, f := range []string{inFormat, outFormat} {
		if f != "sdf" && f != "smiles" {
			return nil, errors.InvalidParam(fmt.Sprintf("unsupported format %q; expected sdf|smiles", f))
		}
	}
	if opts.batchSize <= 0 {
		opts.batchSize = defaultBatchSize
	}
	keepGoing := opts.keepGoing || cfg.KeepGoing

	svcCfg := standardization.Config{
		Concurrency:    cfg.Concurrency,
		RecordTimeout:  cfg.RecordTimeout,
		IncludeMolfile: outFormat == "sdf",
	}
	if opts.workers > 0 {
		svcCfg.Concurrency = opts.workers
	}
	if opts.timeout > 0 {
		svcCfg.RecordTimeout = opts.timeout
	}
	deps, err := b.serviceDependencies()
	if err != nil {
		return nil, err
	}
	svc, err := standardization.NewService(svcCfg, deps)
	if err != nil {
		return nil, err
	}

	in, err := b.openInput(ctx, opts.input, cmd.InOrStdin())
	if err != nil {
		return nil, err
	}
	defer in.Close()

	out, err := b.createOutput(ctx, opts.output, cmd.OutOrStdout())
	if err != nil {
		return nil, err
	}
	results := newResultWriter(outFormat, out)

	var rejectOut io.WriteCloser
	var rejects *rejectWriter
	if opts.rejects != "" {
		rejectOut, err = b.createOutput(ctx, opts.rejects, cmd.OutOrStdout())
		if err != nil {
			_ = out.Close()
			return nil, err
		}
		rejects = newRejectWriter(inFormat, rejectOut)
	}

	summary := newRunSummary(opts.input, opts.output)
	start := time.Now()
	runErr := processRecords(ctx, svc, newRecordSource(inFormat, in), opts.batchSize, keepGoing, summary, results, rejects)
	summary.DurationMs = time.Since(start).Milliseconds()

	if err := results.Flush(); err != nil && runErr == nil {
		runErr = errors.Wrap(err, errors.ErrCodeStorageError, "flushing output")
	}
	if err := out.Close(); err != nil && runErr == nil {
		runErr = err
	}
	if rejects != nil {
		if err := rejects.Flush(); err != nil && runErr == nil {
			runErr = errors.Wrap(err, errors.ErrCodeStorageError, "flushing rejects")
		}
		if err := rejectOut.Close(); err != nil && runErr == nil {
			runErr = err
		}
	}

	cliCtx.Logger.Info("standardization run finished",
		logging.String("run_id", summary.RunID),
		logging.Int("total", summary.Total),
		logging.Int("standardized", summary.Standardized),
		logging.Int("rejected", summary.Rejected),
		logging.Int64("duration_ms", summary.DurationMs),
	)
	return summary, runErr
}

func processRecords(ctx context.Context, svc standardization.Service, src recordSource, batchSize int,
	keepGoing bool, summary *RunSummary, results *resultWriter, rejects *rejectWriter) error {
	batch := make([]*inputRecord, 0, batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		reqs := make([]*dto.StandardizeRequest, len(batch))
		for i, rec := range batch {
			reqs[i] = rec.req
		}
		bs, berr := svc.StandardizeBatch(ctx, reqs)
		if bs == nil {
			return berr
		}
		for i, res := range bs.Results {
			summary.add(res)
			if res.Status == dto.StatusStandardized {
				if err := results.Write(res); err != nil {
					return err
				}
				continue
			}
			if rejects != nil {
				if err := rejects.Write(batch[i], res); err != nil {
					return err
				}
			}
		}
		batch = batch[:0]
		if berr != nil {
			return berr
		}
		if !keepGoing && bs.Errors > 0 {
			return errors.New(errors.ErrCodeStdRecordsFailed,
				fmt.Sprintf("%d record(s) failed; rerun with --keep-going to continue past failures", bs.Errors))
		}
		return nil
	}

	for {
		rec, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			if ferr := flush(); ferr != nil {
				return ferr
			}
			return err
		}
		batch = append(batch, rec)
		if len(batch) == batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}

// RunSummary totals one standardize run.
type RunSummary struct {
	RunID        string         `json:"run_id"`
	Input        string         `json:"input"`
	Output       string         `json:"output"`
	Total        int            `json:"total"`
	Standardized int            `json:"standardized"`
	Rejected     int            `json:"rejected"`
	ParseFailed  int            `json:"parse_failed"`
	Errors       int            `json:"errors"`
	CacheHits    int            `json:"cache_hits"`
	ByReason     map[string]int `json:"by_reason,omitempty"`
	DurationMs   int64          `json:"duration_ms"`
}

func newRunSummary(input, output string) *RunSummary {
	return &RunSummary{RunID: uuid.NewString(), Input: input, Output: output, ByReason: map[string]int{}}
}

func (s *RunSummary) add(r *dto.StandardizeResult) {
	s.Total++
	if r.Cached {
		s.CacheHits++
	}
	switch r.Status {
	case dto.StatusStandardized:
		s.Standardized++
	case dto.StatusRejected:
		s.Rejected++
		s.ByReason[r.Reason]++
	case dto.StatusParseFailed:
		s.ParseFailed++
	default:
		s.Errors++
	}
}

// RenderText implements textRenderer.
func (s *RunSummary) RenderText() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "records:      %d\n", s.Total)
	fmt.Fprintf(&sb, "standardized: %d\n", s.Standardized)
	fmt.Fprintf(&sb, "rejected:     %d\n", s.Rejected)
	reasons := make([]string, 0, len(s.ByReason))
	for r := range s.ByReason {
		reasons = append(reasons, r)
	}
	sort.Strings(reasons)
	for _, r := range reasons {
		fmt.Fprintf(&sb, "  %-24s %d\n", r, s.ByReason[r])
	}
	fmt.Fprintf(&sb, "parse failed: %d\n", s.ParseFailed)
	fmt.Fprintf(&sb, "errors:       %d\n", s.Errors)
	if s.CacheHits > 0 {
		fmt.Fprintf(&sb, "cache hits:   %d\n", s.CacheHits)
	}
	fmt.Fprintf(&sb, "elapsed:      %s\n", time.Duration(s.DurationMs)*time.Millisecond)
	return sb.String()
}
