// Package postgres is the remote result store backed by PostgreSQL.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ppiankov/lieblocker/internal/logger"
	"github.com/ppiankov/lieblocker/internal/model"
	"github.com/ppiankov/lieblocker/internal/store"
)

//go:embed schema.sql
var schemaSQL string

// Store holds the pgx connection pool
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

var _ store.Remote = (*Store)(nil)

// Connect creates a pool, verifies it and applies the schema.
func Connect(ctx context.Context, dsn string, log *slog.Logger) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("postgres DSN is required")
	}

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres DSN: %w", err)
	}
	config.MaxConns = 4
	config.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	s := &Store{pool: pool, logger: logger.OrDefault(log).With("component", "postgres")}
	s.logger.Info("remote store connected", "host", config.ConnConfig.Host)
	return s, nil
}

// Ping checks the pool
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the pool
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// StoreVideoAnalysis upserts the per-video row.
func (s *Store) StoreVideoAnalysis(ctx context.Context, rec store.VideoAnalysisRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO video_analysis (video_id, video_title, channel_name, total_lies, analysis_duration_minutes, analyzed_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (video_id) DO UPDATE SET
			video_title = EXCLUDED.video_title,
			channel_name = EXCLUDED.channel_name,
			total_lies = EXCLUDED.total_lies,
			analysis_duration_minutes = EXCLUDED.analysis_duration_minutes,
			analyzed_at = EXCLUDED.analyzed_at`,
		string(rec.VideoID), rec.VideoTitle, rec.ChannelName, rec.TotalLies, rec.AnalysisDurationMinutes)
	if err != nil {
		return fmt.Errorf("upsert video_analysis %s: %w", rec.VideoID, err)
	}
	return nil
}

// StoreLies replaces the lies of every video present in lies.
func (s *Store) StoreLies(ctx context.Context, lies []store.LieRecord) error {
	if len(lies) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	cleared := make(map[model.VideoID]bool)
	batch := &pgx.Batch{}
	for _, lie := range lies {
		if !cleared[lie.VideoID] {
			batch.Queue(`DELETE FROM lies WHERE video_id = $1`, string(lie.VideoID))
			cleared[lie.VideoID] = true
		}
		batch.Queue(`
			INSERT INTO lies (id, video_id, timestamp_seconds, duration_seconds, claim_text, explanation, confidence, severity, category)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			pgtype.UUID{Bytes: lie.ID, Valid: true}, string(lie.VideoID),
			lie.TimestampSeconds, lie.DurationSeconds, lie.ClaimText, lie.Explanation,
			lie.Confidence, string(lie.Severity), lie.Category)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert lies: %w", err)
	}
	return tx.Commit(ctx)
}

// GetVideoStats loads the analysis row and its lies ordered by position.
func (s *Store) GetVideoStats(ctx context.Context, id model.VideoID) (*store.VideoStats, error) {
	stats := store.VideoStats{VideoID: id}
	err := s.pool.QueryRow(ctx, `
		SELECT video_title, channel_name, total_lies, analysis_duration_minutes, analyzed_at
		FROM video_analysis WHERE video_id = $1`, string(id)).
		Scan(&stats.VideoTitle, &stats.ChannelName, &stats.TotalLies, &stats.AnalysisDurationMinutes, &stats.AnalyzedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query video_analysis %s: %w", id, err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, timestamp_seconds, duration_seconds, claim_text, explanation, confidence, severity, category
		FROM lies WHERE video_id = $1 ORDER BY timestamp_seconds`, string(id))
	if err != nil {
		return nil, fmt.Errorf("query lies %s: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			uid      pgtype.UUID
			severity string
			lie      = store.LieRecord{VideoID: id}
		)
		if err := rows.Scan(&uid, &lie.TimestampSeconds, &lie.DurationSeconds, &lie.ClaimText,
			&lie.Explanation, &lie.Confidence, &severity, &lie.Category); err != nil {
			return nil, fmt.Errorf("scan lie: %w", err)
		}
		lie.ID = uid.Bytes
		lie.Severity = model.Severity(severity)
		stats.Lies = append(stats.Lies, lie)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lies: %w", err)
	}
	return &stats, nil
}
