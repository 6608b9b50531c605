// Package sqlite is the single-file remote result store.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/lieblocker/internal/logger"
	"github.com/ppiankov/lieblocker/internal/model"
	"github.com/ppiankov/lieblocker/internal/store"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Store is a SQLite-backed store.Remote
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

var _ store.Remote = (*Store)(nil)

// Open creates or opens the database at path and applies the schema.
func Open(path string, log *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("exec schema: %w", err)
	}

	return &Store{
		db:     db,
		logger: logger.OrDefault(log).With("component", "sqlite"),
		now:    time.Now,
	}, nil
}

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) Close() error { return s.db.Close() }

// StoreVideoAnalysis upserts the per-video row.
func (s *Store) StoreVideoAnalysis(ctx context.Context, rec store.VideoAnalysisRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO video_analysis (video_id, video_title, channel_name, total_lies, analysis_duration_minutes, analyzed_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (video_id) DO UPDATE SET
			video_title = excluded.video_title,
			channel_name = excluded.channel_name,
			total_lies = excluded.total_lies,
			analysis_duration_minutes = excluded.analysis_duration_minutes,
			analyzed_at = excluded.analyzed_at`,
		string(rec.VideoID), rec.VideoTitle, rec.ChannelName, rec.TotalLies, rec.AnalysisDurationMinutes,
		formatTime(s.now()))
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

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	created := formatTime(s.now())
	cleared := make(map[model.VideoID]bool)
	for _, lie := range lies {
		if !cleared[lie.VideoID] {
			if _, err := tx.ExecContext(ctx, `DELETE FROM lies WHERE video_id = ?`, string(lie.VideoID)); err != nil {
				return fmt.Errorf("clear lies %s: %w", lie.VideoID, err)
			}
			cleared[lie.VideoID] = true
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO lies (id, video_id, timestamp_seconds, duration_seconds, claim_text, explanation, confidence, severity, category, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			lie.ID.String(), string(lie.VideoID), lie.TimestampSeconds, lie.DurationSeconds,
			lie.ClaimText, lie.Explanation, lie.Confidence, string(lie.Severity), lie.Category, created)
		if err != nil {
			return fmt.Errorf("insert lie: %w", err)
		}
	}
	return tx.Commit()
}

// GetVideoStats loads the analysis row and its lies ordered by position.
func (s *Store) GetVideoStats(ctx context.Context, id model.VideoID) (*store.VideoStats, error) {
	var analyzedAt string
	stats := store.VideoStats{VideoID: id}
	err := s.db.QueryRowContext(ctx, `
		SELECT video_title, channel_name, total_lies, analysis_duration_minutes, analyzed_at
		FROM video_analysis WHERE video_id = ?`, string(id)).
		Scan(&stats.VideoTitle, &stats.ChannelName, &stats.TotalLies, &stats.AnalysisDurationMinutes, &analyzedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query video_analysis %s: %w", id, err)
	}
	if stats.AnalyzedAt, err = parseTime(analyzedAt); err != nil {
		return nil, fmt.Errorf("parse analyzed_at: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, timestamp_seconds, duration_seconds, claim_text, explanation, confidence, severity, category
		FROM lies WHERE video_id = ? ORDER BY timestamp_seconds`, string(id))
	if err != nil {
		return nil, fmt.Errorf("query lies %s: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var rawID, severity string
		lie := store.LieRecord{VideoID: id}
		if err := rows.Scan(&rawID, &lie.TimestampSeconds, &lie.DurationSeconds, &lie.ClaimText,
			&lie.Explanation, &lie.Confidence, &severity, &lie.Category); err != nil {
			return nil, fmt.Errorf("scan lie: %w", err)
		}
		if lie.ID, err = uuid.Parse(rawID); err != nil {
			s.logger.Warn("lie with malformed id", "video_id", id, "id", rawID)
		}
		lie.Severity = model.Severity(severity)
		stats.Lies = append(stats.Lies, lie)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lies: %w", err)
	}
	return &stats, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
