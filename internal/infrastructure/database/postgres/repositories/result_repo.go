// Package repositories holds the PostgreSQL-backed stores.
package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/turtacn/molstandardizer/internal/infrastructure/database/postgres"
	"github.com/turtacn/molstandardizer/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molstandardizer/pkg/errors"
	"github.com/turtacn/molstandardizer/pkg/types/common"
	dto "github.com/turtacn/molstandardizer/pkg/types/molecule"
)

const resultColumns = `id, status, reason, message, error, smiles, canonical_key, formula,
	heavy_atoms, properties, trace, duration_ms, processed_at`

const upsertResultSQL = `
	INSERT INTO standardization_results (` + resultColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	ON CONFLICT (id) DO UPDATE SET
		status        = EXCLUDED.status,
		reason        = EXCLUDED.reason,
		message       = EXCLUDED.message,
		error         = EXCLUDED.error,
		smiles        = EXCLUDED.smiles,
		canonical_key = EXCLUDED.canonical_key,
		formula       = EXCLUDED.formula,
		heavy_atoms   = EXCLUDED.heavy_atoms,
		properties    = EXCLUDED.properties,
		trace         = EXCLUDED.trace,
		duration_ms   = EXCLUDED.duration_ms,
		processed_at  = EXCLUDED.processed_at,
		updated_at    = now()`

// StatusCount is one row of the outcome report.
type StatusCount struct {
	Status dto.Status `json:"status"`
	Reason string     `json:"reason,omitempty"`
	Count  int64      `json:"count"`
}

// ResultRepository stores standardization results in PostgreSQL.
type ResultRepository struct {
	executor queryExecutor
	logger   logging.Logger
}

// NewResultRepository returns a repository over conn's pool.
func NewResultRepository(conn *postgres.Connection, log logging.Logger) *ResultRepository {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &ResultRepository{executor: conn.DB(), logger: log}
}

// Save upserts result by id.  The molfile block is not stored; SMILES and
// the canonical key identify the structure.
func (r *ResultRepository) Save(ctx context.Context, result *dto.StandardizeResult) error {
	if result == nil || result.ID == "" {
		return errors.InvalidParam("result id is required")
	}

	props := result.Properties
	if props == nil {
		props = []dto.Property{}
	}
	propsJSON, err := json.Marshal(props)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode properties")
	}
	traceJSON, err := json.Marshal(result.Trace)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode trace")
	}
	var errJSON interface{}
	if result.Error != nil {
		b, err := json.Marshal(result.Error)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode error detail")
		}
		errJSON = b
	}

	processedAt := time.Time(result.ProcessedAt)
	if processedAt.IsZero() {
		processedAt = time.Now().UTC()
	}

	_, err = r.executor.ExecContext(ctx, upsertResultSQL,
		result.ID,
		string(result.Status),
		result.Reason,
		result.Message,
		errJSON,
		result.SMILES,
		result.CanonicalKey,
		result.Formula,
		result.HeavyAtoms,
		propsJSON,
		traceJSON,
		result.DurationMs,
		processedAt,
	)
	if err != nil {
		r.logger.Error("failed to save result", logging.String("id", result.ID), logging.Err(err))
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to save result")
	}
	return nil
}

// FindByID returns the stored result for id.
func (r *ResultRepository) FindByID(ctx context.Context, id string) (*dto.StandardizeResult, error) {
	query := `SELECT ` + resultColumns + ` FROM standardization_results WHERE id = $1`
	res, err := scanResult(r.executor.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFound("result not found").WithDetail(id)
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to load result")
	}
	return res, nil
}

// FindByCanonicalKey returns up to limit results sharing key, newest first.
func (r *ResultRepository) FindByCanonicalKey(ctx context.Context, key string, limit int) ([]*dto.StandardizeResult, error) {
	if key == "" {
		return nil, errors.InvalidParam("canonical key is required")
	}
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	query := `SELECT ` + resultColumns + ` FROM standardization_results
		WHERE canonical_key = $1 ORDER BY processed_at DESC LIMIT $2`
	rows, err := r.executor.QueryContext(ctx, query, key, limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query results")
	}
	defer rows.Close()

	var out []*dto.StandardizeResult
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan result")
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate results")
	}
	return out, nil
}

// CountByStatus reports stored results grouped by status and reason.
func (r *ResultRepository) CountByStatus(ctx context.Context) ([]StatusCount, error) {
	rows, err := r.executor.QueryContext(ctx, `
		SELECT status, reason, COUNT(*) FROM standardization_results
		GROUP BY status, reason ORDER BY status, reason`)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to count results")
	}
	defer rows.Close()

	var out []StatusCount
	for rows.Next() {
		var c StatusCount
		var status string
		if err := rows.Scan(&status, &c.Reason, &c.Count); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan count")
		}
		c.Status = dto.Status(status)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate counts")
	}
	return out, nil
}

func scanResult(row scanner) (*dto.StandardizeResult, error) {
	var (
		res                 dto.StandardizeResult
		status              string
		errJSON             []byte
		propsJSON, traceRaw []byte
		processedAt         time.Time
	)
	if err := row.Scan(
		&res.ID, &status, &res.Reason, &res.Message, &errJSON,
		&res.SMILES, &res.CanonicalKey, &res.Formula, &res.HeavyAtoms,
		&propsJSON, &traceRaw, &res.DurationMs, &processedAt,
	); err != nil {
		return nil, err
	}
	res.Status = dto.Status(status)
	res.ProcessedAt = common.Timestamp(processedAt.UTC())

	if len(errJSON) > 0 {
		res.Error = &common.ErrorDetail{}
		if err := json.Unmarshal(errJSON, res.Error); err != nil {
			return nil, err
		}
	}
	if len(propsJSON) > 0 {
		if err := json.Unmarshal(propsJSON, &res.Properties); err != nil {
			return nil, err
		}
		if len(res.Properties) == 0 {
			res.Properties = nil
		}
	}
	if len(traceRaw) > 0 {
		if err := json.Unmarshal(traceRaw, &res.Trace); err != nil {
			return nil, err
		}
	}
	return &res, nil
}
