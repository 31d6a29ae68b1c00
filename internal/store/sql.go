package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var ErrNotFound = errors.New("not found")

// ErrStatusChanged is returned by UpdateTestStatus when the stored status no
// longer matches the one the caller read.
var ErrStatusChanged = errors.New("status changed concurrently")

// SQLStore persists tests, assignments and events in SQLite (default) or
// Postgres (postgres:// DSN).
type SQLStore struct {
	db      *sql.DB
	dialect dialect
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS tests (
    id TEXT PRIMARY KEY,
    project_id TEXT NOT NULL,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'draft',
    start_at BIGINT,
    end_at BIGINT,
    primary_metric TEXT NOT NULL,
    created_at BIGINT NOT NULL,
    updated_at BIGINT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_tests_project ON tests(project_id, created_at)`,

	`CREATE TABLE IF NOT EXISTS test_variants (
    test_id TEXT NOT NULL REFERENCES tests(id) ON DELETE CASCADE,
    id TEXT NOT NULL,
    position INTEGER NOT NULL,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    weight DOUBLE PRECISION NOT NULL,
    config TEXT,
    PRIMARY KEY (test_id, id)
)`,

	`CREATE TABLE IF NOT EXISTS test_metrics (
    test_id TEXT NOT NULL REFERENCES tests(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    name TEXT NOT NULL,
    PRIMARY KEY (test_id, position)
)`,

	`CREATE TABLE IF NOT EXISTS assignments (
    test_id TEXT NOT NULL REFERENCES tests(id) ON DELETE CASCADE,
    visitor_id TEXT NOT NULL,
    variant_id TEXT NOT NULL,
    assigned_at BIGINT NOT NULL,
    PRIMARY KEY (test_id, visitor_id)
)`,
	`CREATE INDEX IF NOT EXISTS idx_assignments_variant ON assignments(test_id, variant_id)`,

	`CREATE TABLE IF NOT EXISTS events (
    id TEXT PRIMARY KEY,
    test_id TEXT NOT NULL REFERENCES tests(id) ON DELETE CASCADE,
    visitor_id TEXT NOT NULL,
    variant_id TEXT NOT NULL,
    event_type TEXT NOT NULL,
    event_value DOUBLE PRECISION,
    created_at BIGINT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_events_test_type ON events(test_id, event_type, variant_id)`,

	`CREATE TABLE IF NOT EXISTS test_results (
    test_id TEXT PRIMARY KEY REFERENCES tests(id) ON DELETE CASCADE,
    total_visitors BIGINT NOT NULL,
    total_conversions BIGINT NOT NULL,
    conversion_rate DOUBLE PRECISION NOT NULL,
    significance DOUBLE PRECISION NOT NULL,
    confidence_level DOUBLE PRECISION NOT NULL,
    winner_variant_id TEXT,
    insights TEXT NOT NULL,
    recommendations TEXT NOT NULL,
    generated_at BIGINT NOT NULL
)`,

	`CREATE TABLE IF NOT EXISTS test_variant_results (
    test_id TEXT NOT NULL REFERENCES tests(id) ON DELETE CASCADE,
    variant_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    name TEXT NOT NULL,
    visitors BIGINT NOT NULL,
    conversions BIGINT NOT NULL,
    conversion_rate DOUBLE PRECISION NOT NULL,
    ci_lower DOUBLE PRECISION NOT NULL,
    ci_upper DOUBLE PRECISION NOT NULL,
    improvement DOUBLE PRECISION NOT NULL,
    significance DOUBLE PRECISION NOT NULL,
    PRIMARY KEY (test_id, variant_id)
)`,
}

func Open(dsn string) (*SQLStore, error) {
	d := dialectFor(dsn)

	db, err := sql.Open(d.driver, d.dataSource(dsn))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if d.name == "sqlite" {
		// One connection serializes writers; the assignment primary key still
		// decides races between them.
		db.SetMaxOpenConns(1)

		// Enable WAL mode
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	// Apply schema
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	return &SQLStore{db: db, dialect: d}, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Dialect reports the backing database ("sqlite" or "postgres").
func (s *SQLStore) Dialect() string {
	return s.dialect.name
}

func (s *SQLStore) q(query string) string {
	return s.dialect.rebind(query)
}

func (s *SQLStore) CreateTest(ctx context.Context, test *Test) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, s.q(
		`INSERT INTO tests (id, project_id, name, description, status, start_at, end_at, primary_metric, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		test.ID, test.ProjectID, test.Name, test.Description, string(test.Status),
		nullableMillis(test.StartAt), nullableMillis(test.EndAt), test.PrimaryMetric,
		test.CreatedAt.UnixMilli(), test.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert test: %w", err)
	}

	for i, v := range test.Variants {
		config, err := marshalConfig(v.Config)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, s.q(
			`INSERT INTO test_variants (test_id, id, position, name, description, weight, config)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`),
			test.ID, v.ID, i, v.Name, v.Description, v.Weight, config,
		)
		if err != nil {
			return fmt.Errorf("failed to insert variant %s: %w", v.ID, err)
		}
	}

	for i, m := range test.SecondaryMetrics {
		_, err = tx.ExecContext(ctx, s.q(
			`INSERT INTO test_metrics (test_id, position, name) VALUES (?, ?, ?)`),
			test.ID, i, m,
		)
		if err != nil {
			return fmt.Errorf("failed to insert metric %s: %w", m, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit test: %w", err)
	}
	return nil
}

const testColumns = `id, project_id, name, description, status, start_at, end_at, primary_metric, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTest(row rowScanner) (*Test, error) {
	var test Test
	var status string
	var startAt, endAt sql.NullInt64
	var createdAt, updatedAt int64

	err := row.Scan(&test.ID, &test.ProjectID, &test.Name, &test.Description, &status,
		&startAt, &endAt, &test.PrimaryMetric, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	test.Status = TestStatus(status)
	test.StartAt = timeFromMillis(startAt)
	test.EndAt = timeFromMillis(endAt)
	test.CreatedAt = time.UnixMilli(createdAt).UTC()
	test.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return &test, nil
}

func (s *SQLStore) GetTest(ctx context.Context, id string) (*Test, error) {
	test, err := scanTest(s.db.QueryRowContext(ctx, s.q(
		`SELECT `+testColumns+` FROM tests WHERE id = ?`), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get test: %w", err)
	}

	if err := s.loadDetails(ctx, test); err != nil {
		return nil, err
	}
	return test, nil
}

func (s *SQLStore) ListTests(ctx context.Context, projectID string) ([]*Test, error) {
	rows, err := s.db.QueryContext(ctx, s.q(
		`SELECT `+testColumns+` FROM tests WHERE project_id = ? ORDER BY created_at DESC, id DESC`),
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list tests: %w", err)
	}

	var tests []*Test
	for rows.Next() {
		test, err := scanTest(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan test: %w", err)
		}
		tests = append(tests, test)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to list tests: %w", err)
	}
	// Details are loaded after the cursor is released: SQLite runs on a
	// single connection.
	rows.Close()

	for _, test := range tests {
		if err := s.loadDetails(ctx, test); err != nil {
			return nil, err
		}
	}
	return tests, nil
}

func (s *SQLStore) loadDetails(ctx context.Context, test *Test) error {
	variants, err := s.loadVariants(ctx, test.ID)
	if err != nil {
		return err
	}
	test.Variants = variants

	metrics, err := s.loadMetrics(ctx, test.ID)
	if err != nil {
		return err
	}
	test.SecondaryMetrics = metrics

	results, err := s.loadResults(ctx, test.ID)
	if err != nil {
		return err
	}
	test.Results = results
	return nil
}

func (s *SQLStore) loadVariants(ctx context.Context, testID string) ([]Variant, error) {
	rows, err := s.db.QueryContext(ctx, s.q(
		`SELECT id, name, description, weight, config FROM test_variants
		 WHERE test_id = ? ORDER BY position`), testID)
	if err != nil {
		return nil, fmt.Errorf("failed to get variants: %w", err)
	}
	defer rows.Close()

	var variants []Variant
	for rows.Next() {
		var v Variant
		var config sql.NullString
		if err := rows.Scan(&v.ID, &v.Name, &v.Description, &v.Weight, &config); err != nil {
			return nil, fmt.Errorf("failed to scan variant: %w", err)
		}
		if config.Valid && config.String != "" {
			if err := json.Unmarshal([]byte(config.String), &v.Config); err != nil {
				return nil, fmt.Errorf("failed to unmarshal variant config: %w", err)
			}
		}
		variants = append(variants, v)
	}
	return variants, rows.Err()
}

func (s *SQLStore) loadMetrics(ctx context.Context, testID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.q(
		`SELECT name FROM test_metrics WHERE test_id = ? ORDER BY position`), testID)
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics: %w", err)
	}
	defer rows.Close()

	var metrics []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan metric: %w", err)
		}
		metrics = append(metrics, name)
	}
	return metrics, rows.Err()
}

func (s *SQLStore) loadResults(ctx context.Context, testID string) (*Results, error) {
	var r Results
	var winner sql.NullString
	var insights, recommendations string
	var generatedAt int64

	err := s.db.QueryRowContext(ctx, s.q(
		`SELECT total_visitors, total_conversions, conversion_rate, significance, confidence_level,
		        winner_variant_id, insights, recommendations, generated_at
		 FROM test_results WHERE test_id = ?`), testID,
	).Scan(&r.TotalVisitors, &r.TotalConversions, &r.ConversionRate, &r.Significance, &r.ConfidenceLevel,
		&winner, &insights, &recommendations, &generatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get results: %w", err)
	}

	r.WinnerVariantID = winner.String
	r.GeneratedAt = time.UnixMilli(generatedAt).UTC()
	if err := json.Unmarshal([]byte(insights), &r.Insights); err != nil {
		return nil, fmt.Errorf("failed to unmarshal insights: %w", err)
	}
	if err := json.Unmarshal([]byte(recommendations), &r.Recommendations); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recommendations: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, s.q(
		`SELECT variant_id, name, visitors, conversions, conversion_rate, ci_lower, ci_upper, improvement, significance
		 FROM test_variant_results WHERE test_id = ? ORDER BY position`), testID)
	if err != nil {
		return nil, fmt.Errorf("failed to get variant results: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var v VariantResult
		err := rows.Scan(&v.VariantID, &v.Name, &v.Visitors, &v.Conversions, &v.ConversionRate,
			&v.CILower, &v.CIUpper, &v.Improvement, &v.Significance)
		if err != nil {
			return nil, fmt.Errorf("failed to scan variant result: %w", err)
		}
		r.Variants = append(r.Variants, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get variant results: %w", err)
	}

	return &r, nil
}

func (s *SQLStore) UpdateTestStatus(ctx context.Context, test *Test, from TestStatus) error {
	result, err := s.db.ExecContext(ctx, s.q(
		`UPDATE tests SET status = ?, start_at = ?, end_at = ?, updated_at = ? WHERE id = ? AND status = ?`),
		string(test.Status), nullableMillis(test.StartAt), nullableMillis(test.EndAt),
		test.UpdatedAt.UnixMilli(), test.ID, string(from),
	)
	if err != nil {
		return fmt.Errorf("failed to update test status: %w", err)
	}
	err = requireRow(result)
	if !errors.Is(err, ErrNotFound) {
		return err
	}

	var exists int
	err = s.db.QueryRowContext(ctx, s.q(`SELECT 1 FROM tests WHERE id = ?`), test.ID).Scan(&exists)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return ErrNotFound
	case err != nil:
		return fmt.Errorf("failed to check test status: %w", err)
	}
	return ErrStatusChanged
}

func (s *SQLStore) UpdateVariantWeights(ctx context.Context, test *Test) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, s.q(`UPDATE tests SET updated_at = ? WHERE id = ?`),
		test.UpdatedAt.UnixMilli(), test.ID)
	if err != nil {
		return fmt.Errorf("failed to update test: %w", err)
	}
	if err := requireRow(result); err != nil {
		return err
	}

	for _, v := range test.Variants {
		result, err := tx.ExecContext(ctx, s.q(
			`UPDATE test_variants SET weight = ? WHERE test_id = ? AND id = ?`),
			v.Weight, test.ID, v.ID)
		if err != nil {
			return fmt.Errorf("failed to update variant weight: %w", err)
		}
		if err := requireRow(result); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit weights: %w", err)
	}
	return nil
}

func (s *SQLStore) DeleteTest(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// First delete everything owned by the test
	for _, table := range []string{"test_variant_results", "test_results", "events", "assignments", "test_metrics", "test_variants"} {
		if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM `+table+` WHERE test_id = ?`), id); err != nil {
			return fmt.Errorf("failed to delete %s: %w", table, err)
		}
	}

	result, err := tx.ExecContext(ctx, s.q(`DELETE FROM tests WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete test: %w", err)
	}
	if err := requireRow(result); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}
	return nil
}

func (s *SQLStore) GetAssignment(ctx context.Context, testID, visitorID string) (*Assignment, error) {
	a := Assignment{TestID: testID, VisitorID: visitorID}
	var assignedAt int64

	err := s.db.QueryRowContext(ctx, s.q(
		`SELECT variant_id, assigned_at FROM assignments WHERE test_id = ? AND visitor_id = ?`),
		testID, visitorID,
	).Scan(&a.VariantID, &assignedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}

	a.AssignedAt = time.UnixMilli(assignedAt).UTC()
	return &a, nil
}

func (s *SQLStore) InsertAssignment(ctx context.Context, a *Assignment) (*Assignment, bool, error) {
	// The primary key on (test_id, visitor_id) makes the first writer win;
	// later writers fall through to reading that row.
	result, err := s.db.ExecContext(ctx, s.q(
		`INSERT INTO assignments (test_id, visitor_id, variant_id, assigned_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (test_id, visitor_id) DO NOTHING`),
		a.TestID, a.VisitorID, a.VariantID, a.AssignedAt.UnixMilli(),
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to insert assignment: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 1 {
		return a, true, nil
	}

	existing, err := s.GetAssignment(ctx, a.TestID, a.VisitorID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (s *SQLStore) RecordEvent(ctx context.Context, e *Event) error {
	var value sql.NullFloat64
	if e.Value != nil {
		value = sql.NullFloat64{Float64: *e.Value, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, s.q(
		`INSERT INTO events (id, test_id, visitor_id, variant_id, event_type, event_value, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`),
		e.ID, e.TestID, e.VisitorID, e.VariantID, e.EventType, value, e.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}
	return nil
}

// GetVariantCounts reads distinct assigned visitors and distinct visitors
// with an event of eventType per variant, both from the same snapshot.
func (s *SQLStore) GetVariantCounts(ctx context.Context, testID, eventType string) ([]VariantCounts, error) {
	tx, err := s.db.BeginTx(ctx, s.dialect.snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var counts []VariantCounts
	index := make(map[string]int)
	entry := func(variantID string) *VariantCounts {
		i, ok := index[variantID]
		if !ok {
			i = len(counts)
			index[variantID] = i
			counts = append(counts, VariantCounts{VariantID: variantID})
		}
		return &counts[i]
	}

	rows, err := tx.QueryContext(ctx, s.q(
		`SELECT variant_id, COUNT(DISTINCT visitor_id) FROM assignments
		 WHERE test_id = ? GROUP BY variant_id ORDER BY variant_id`), testID)
	if err != nil {
		return nil, fmt.Errorf("failed to count assignments: %w", err)
	}
	for rows.Next() {
		var variantID string
		var n int
		if err := rows.Scan(&variantID, &n); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan assignment count: %w", err)
		}
		entry(variantID).Visitors = n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to count assignments: %w", err)
	}

	rows, err = tx.QueryContext(ctx, s.q(
		`SELECT variant_id, COUNT(DISTINCT visitor_id) FROM events
		 WHERE test_id = ? AND event_type = ? GROUP BY variant_id ORDER BY variant_id`), testID, eventType)
	if err != nil {
		return nil, fmt.Errorf("failed to count conversions: %w", err)
	}
	for rows.Next() {
		var variantID string
		var n int
		if err := rows.Scan(&variantID, &n); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan conversion count: %w", err)
		}
		entry(variantID).Conversions = n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to count conversions: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return counts, nil
}

// SaveResults replaces the results snapshot of a test.
func (s *SQLStore) SaveResults(ctx context.Context, testID string, results *Results) error {
	insights, err := json.Marshal(nonNil(results.Insights))
	if err != nil {
		return fmt.Errorf("failed to marshal insights: %w", err)
	}
	recommendations, err := json.Marshal(nonNil(results.Recommendations))
	if err != nil {
		return fmt.Errorf("failed to marshal recommendations: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, s.q(
		`INSERT INTO test_results (test_id, total_visitors, total_conversions, conversion_rate, significance,
		                           confidence_level, winner_variant_id, insights, recommendations, generated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (test_id) DO UPDATE SET
		     total_visitors = excluded.total_visitors,
		     total_conversions = excluded.total_conversions,
		     conversion_rate = excluded.conversion_rate,
		     significance = excluded.significance,
		     confidence_level = excluded.confidence_level,
		     winner_variant_id = excluded.winner_variant_id,
		     insights = excluded.insights,
		     recommendations = excluded.recommendations,
		     generated_at = excluded.generated_at`),
		testID, results.TotalVisitors, results.TotalConversions, results.ConversionRate, results.Significance,
		results.ConfidenceLevel, nullableString(results.WinnerVariantID), string(insights), string(recommendations),
		results.GeneratedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to save results: %w", err)
	}

	if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM test_variant_results WHERE test_id = ?`), testID); err != nil {
		return fmt.Errorf("failed to clear variant results: %w", err)
	}

	for i, v := range results.Variants {
		_, err := tx.ExecContext(ctx, s.q(
			`INSERT INTO test_variant_results (test_id, variant_id, position, name, visitors, conversions,
			                                   conversion_rate, ci_lower, ci_upper, improvement, significance)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
			testID, v.VariantID, i, v.Name, v.Visitors, v.Conversions,
			v.ConversionRate, v.CILower, v.CIUpper, v.Improvement, v.Significance,
		)
		if err != nil {
			return fmt.Errorf("failed to save variant result %s: %w", v.VariantID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit results: %w", err)
	}
	return nil
}

// DB returns the underlying database connection for health checks
func (s *SQLStore) DB() *sql.DB {
	return s.db
}

func requireRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func marshalConfig(config map[string]any) (sql.NullString, error) {
	if len(config) == 0 {
		return sql.NullString{}, nil
	}
	raw, err := json.Marshal(config)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to marshal variant config: %w", err)
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}

func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullableMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func timeFromMillis(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := time.UnixMilli(n.Int64).UTC()
	return &t
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
