package metrics

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
)

// Metric sources.
const (
	SourceMealDB = "themealdb"
	SourceGemini = "gemini"
	SourceWeb    = "web"
)

// FetchMetric records one call to an external recipe source.
type FetchMetric struct {
	Operation        string    `db:"operation"`
	Source           string    `db:"source"`
	Results          int       `db:"results"`
	Failed           bool      `db:"failed"`
	PromptTokens     int       `db:"prompt_tokens"`
	CompletionTokens int       `db:"completion_tokens"`
	LatencyMS        int64     `db:"latency_ms"`
	Timestamp        time.Time `db:"timestamp"`
}

// Recorder accepts fetch metrics.
type Recorder interface {
	Record(ctx context.Context, m FetchMetric) error
}

// Nop discards every metric.
type Nop struct{}

// Record implements Recorder.
func (Nop) Record(context.Context, FetchMetric) error { return nil }

// Observe builds a metric for an operation that started at start and records
// it. Recording failures are logged, never returned.
func Observe(ctx context.Context, r Recorder, source, operation string, start time.Time, results int, failed bool) {
	if r == nil {
		return
	}
	m := FetchMetric{
		Operation: operation,
		Source:    source,
		Results:   results,
		Failed:    failed,
		LatencyMS: time.Since(start).Milliseconds(),
		Timestamp: time.Now().UTC(),
	}
	if err := r.Record(ctx, m); err != nil {
		log.Printf("Warning: failed to record metric %s/%s: %v", source, operation, err)
	}
}

// Store persists fetch metrics in the fetch_metrics table.
type Store struct {
	db *sqlx.DB
}

// NewStore initializes the Store with an existing database connection.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Record saves a metric to the database.
func (s *Store) Record(ctx context.Context, m FetchMetric) error {
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}

	query := `INSERT INTO fetch_metrics
		(operation, source, results, failed, prompt_tokens, completion_tokens, latency_ms, timestamp)
		VALUES (:operation, :source, :results, :failed, :prompt_tokens, :completion_tokens, :latency_ms, :timestamp)`
	if _, err := s.db.NamedExecContext(ctx, query, m); err != nil {
		return fmt.Errorf("failed to insert fetch metric: %w", err)
	}
	return nil
}

// DailyUsage aggregates the metrics of a single day.
type DailyUsage struct {
	Date             string `db:"day" json:"date"`
	Calls            int    `db:"calls" json:"calls"`
	Failures         int    `db:"failures" json:"failures"`
	Results          int    `db:"results" json:"results"`
	PromptTokens     int    `db:"prompt_tokens" json:"promptTokens"`
	CompletionTokens int    `db:"completion_tokens" json:"completionTokens"`
	AvgLatencyMS     int64  `db:"avg_latency_ms" json:"avgLatencyMs"`
}

// GetDailyUsage retrieves usage for the last N days, most recent first.
func (s *Store) GetDailyUsage(ctx context.Context, days int) ([]DailyUsage, error) {
	since := time.Now().UTC().AddDate(0, 0, -days)

	query := fmt.Sprintf(`
		SELECT %[1]s AS day,
			COUNT(*) AS calls,
			COALESCE(SUM(CASE WHEN failed THEN 1 ELSE 0 END), 0) AS failures,
			COALESCE(SUM(results), 0) AS results,
			COALESCE(SUM(prompt_tokens), 0) AS prompt_tokens,
			COALESCE(SUM(completion_tokens), 0) AS completion_tokens,
			CAST(COALESCE(AVG(latency_ms), 0) AS BIGINT) AS avg_latency_ms
		FROM fetch_metrics
		WHERE timestamp >= ?
		GROUP BY %[1]s
		ORDER BY day DESC`, s.dayExpr())

	var results []DailyUsage
	if err := s.db.SelectContext(ctx, &results, s.db.Rebind(query), since); err != nil {
		return nil, fmt.Errorf("failed to query daily usage: %w", err)
	}
	return results, nil
}

// Cleanup removes records older than the specified number of days and
// returns how many were deleted.
func (s *Store) Cleanup(ctx context.Context, olderThanDays int) (int64, error) {
	threshold := time.Now().UTC().AddDate(0, 0, -olderThanDays)
	res, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM fetch_metrics WHERE timestamp < ?"), threshold)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup fetch metrics: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) dayExpr() string {
	if s.db.DriverName() == "postgres" {
		return "to_char(timestamp AT TIME ZONE 'UTC', 'YYYY-MM-DD')"
	}
	return "substr(timestamp, 1, 10)"
}
