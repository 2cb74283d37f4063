package storage

import (
	"context"
	"fmt"

	"litnotes/internal/ai"
	"litnotes/internal/models"

	"go.uber.org/zap"
)

// GenerationLogRepo keeps one row per finished generation call.
type GenerationLogRepo struct {
	db     *DB
	logger *zap.Logger
}

func NewGenerationLogRepo(db *DB, logger *zap.Logger) *GenerationLogRepo {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GenerationLogRepo{db: db, logger: logger}
}

func (r *GenerationLogRepo) Insert(ctx context.Context, rec ai.CallRecord) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO generation_calls (call_id, operation, provider, model, status, error_type, attempts, duration_ms)
VALUES ($1, $2, $3, $4, $5, NULLIF($6,''), $7, $8)`,
		rec.CallID, rec.Operation, rec.Provider, rec.Model, rec.Status, rec.ErrorType, rec.Attempts, rec.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("insert generation call: %w", err)
	}
	return nil
}

// RecordCall satisfies ai.CallRecorder. A failed insert is logged and
// otherwise ignored so that the log never fails a generation.
func (r *GenerationLogRepo) RecordCall(ctx context.Context, rec ai.CallRecord) {
	if err := r.Insert(ctx, rec); err != nil {
		r.logger.Warn("generation call not logged", zap.String("call_id", rec.CallID), zap.Error(err))
	}
}

func (r *GenerationLogRepo) Recent(ctx context.Context, limit int) ([]models.GenerationCall, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Pool.Query(ctx, `
SELECT call_id::text, operation, provider, model, status, COALESCE(error_type,''), attempts, duration_ms, created_at
FROM generation_calls
ORDER BY created_at DESC
LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list generation calls: %w", err)
	}
	defer rows.Close()
	out := make([]models.GenerationCall, 0, limit)
	for rows.Next() {
		var c models.GenerationCall
		if err := rows.Scan(&c.CallID, &c.Operation, &c.Provider, &c.Model, &c.Status, &c.ErrorType, &c.Attempts, &c.DurationMS, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan generation call: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
