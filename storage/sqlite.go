package storage

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"ads_migrator/models"
)

// SQLiteStore keeps operational history of migration runs. It never holds the
// cursor: a restarted run always rescans from id 0 and relies on upsert
// idempotency.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS migration_runs (
		id TEXT PRIMARY KEY,
		backend TEXT,
		started_at DATETIME,
		finished_at DATETIME,
		status TEXT,
		total_rows INTEGER DEFAULT 0,
		processed INTEGER DEFAULT 0,
		upserted INTEGER DEFAULT 0,
		skipped INTEGER DEFAULT 0,
		errors_count INTEGER DEFAULT 0,
		error_message TEXT
	);

	CREATE TABLE IF NOT EXISTS migration_logs (
		id INTEGER PRIMARY KEY,
		run_id TEXT,
		timestamp DATETIME,
		level TEXT,
		message TEXT,
		FOREIGN KEY (run_id) REFERENCES migration_runs(id)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_status ON migration_runs(status, started_at);
	CREATE INDEX IF NOT EXISTS idx_logs_run ON migration_logs(run_id, timestamp);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) CreateRun(run *models.MigrationRun) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	_, err := s.db.Exec(`
		INSERT INTO migration_runs (id, backend, started_at, status)
		VALUES (?, ?, ?, ?)`,
		run.ID.String(), run.Backend, run.StartedAt, run.Status)
	return err
}

func (s *SQLiteStore) FinishRun(run *models.MigrationRun) error {
	_, err := s.db.Exec(`
		UPDATE migration_runs SET
			finished_at = ?, status = ?, total_rows = ?, processed = ?,
			upserted = ?, skipped = ?, errors_count = ?, error_message = ?
		WHERE id = ?`,
		run.FinishedAt, run.Status, run.TotalRows, run.Processed,
		run.Upserted, run.Skipped, run.ErrorsCount, run.ErrorMessage,
		run.ID.String())
	return err
}

func (s *SQLiteStore) GetRun(id uuid.UUID) (*models.MigrationRun, error) {
	row := s.db.QueryRow(`
		SELECT id, backend, started_at, finished_at, status, total_rows,
			processed, upserted, skipped, errors_count, COALESCE(error_message, '')
		FROM migration_runs WHERE id = ?`, id.String())

	var run models.MigrationRun
	var rawID string
	var finishedAt sql.NullTime
	err := row.Scan(&rawID, &run.Backend, &run.StartedAt, &finishedAt, &run.Status,
		&run.TotalRows, &run.Processed, &run.Upserted, &run.Skipped,
		&run.ErrorsCount, &run.ErrorMessage)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	run.ID, err = uuid.Parse(rawID)
	if err != nil {
		return nil, err
	}
	if finishedAt.Valid {
		run.FinishedAt = &finishedAt.Time
	}
	return &run, nil
}

func (s *SQLiteStore) AppendLog(runID uuid.UUID, level, message string) error {
	_, err := s.db.Exec(`
		INSERT INTO migration_logs (run_id, timestamp, level, message)
		VALUES (?, ?, ?, ?)`,
		runID.String(), time.Now(), level, message)
	return err
}

func (s *SQLiteStore) GetLogsForRun(runID uuid.UUID) ([]models.MigrationLog, error) {
	rows, err := s.db.Query(`
		SELECT id, run_id, timestamp, level, message
		FROM migration_logs WHERE run_id = ? ORDER BY timestamp`, runID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []models.MigrationLog
	for rows.Next() {
		var l models.MigrationLog
		var rawID string
		if err := rows.Scan(&l.ID, &rawID, &l.Timestamp, &l.Level, &l.Message); err != nil {
			return nil, err
		}
		if l.RunID, err = uuid.Parse(rawID); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
