package checkpoint

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"mimesis/internal/model"
)

// SQLiteStore keeps replicate records in a single-file database so sweeps
// survive process restarts. Parameter maps are stored as a JSON column;
// everything queried on has its own column.
type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sqlx.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return fmt.Errorf("%w: sqlite path is required", ErrCheckpoint)
	}
	if s.db != nil {
		return nil
	}

	db, err := sqlx.Open("sqlite", s.path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", ErrCheckpoint, s.path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("%w: ping %s: %v", ErrCheckpoint, s.path, err)
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return fmt.Errorf("%w: migrate %s: %v", ErrCheckpoint, s.path, err)
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func migrate(ctx context.Context, db *sqlx.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS replicate_records (
		sweep_id TEXT NOT NULL,
		combo_index INTEGER NOT NULL,
		replicate INTEGER NOT NULL,
		params TEXT NOT NULL,
		outcome TEXT NOT NULL,
		steps INTEGER NOT NULL,
		success INTEGER NOT NULL,
		failure TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (sweep_id, combo_index, replicate)
	);
	CREATE INDEX IF NOT EXISTS idx_replicate_records_sweep
		ON replicate_records (sweep_id);
	`
	_, err := db.ExecContext(ctx, schema)
	return err
}

func (s *SQLiteStore) getDB() (*sqlx.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, fmt.Errorf("%w: store not initialized", ErrCheckpoint)
	}
	return s.db, nil
}

func (s *SQLiteStore) SaveRecord(ctx context.Context, record model.ExperimentRecord) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	params, err := json.Marshal(record.Params)
	if err != nil {
		return fmt.Errorf("%w: encode params: %v", ErrCheckpoint, err)
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO replicate_records (sweep_id, combo_index, replicate, params, outcome, steps, success, failure)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(sweep_id, combo_index, replicate) DO UPDATE SET
			params = excluded.params,
			outcome = excluded.outcome,
			steps = excluded.steps,
			success = excluded.success,
			failure = excluded.failure
	`, record.SweepID, record.ComboIndex, record.Replicate, string(params),
		string(record.Outcome), record.Steps, record.Success, record.Failure)
	return err
}

type replicateRow struct {
	SweepID    string `db:"sweep_id"`
	ComboIndex int    `db:"combo_index"`
	Replicate  int    `db:"replicate"`
	Params     string `db:"params"`
	Outcome    string `db:"outcome"`
	Steps      int    `db:"steps"`
	Success    bool   `db:"success"`
	Failure    string `db:"failure"`
}

func (r replicateRow) toRecord() (model.ExperimentRecord, error) {
	params := make(map[string]any)
	if err := json.Unmarshal([]byte(r.Params), &params); err != nil {
		return model.ExperimentRecord{}, fmt.Errorf("%w: decode params for %s/%d/%d: %v",
			ErrCheckpoint, r.SweepID, r.ComboIndex, r.Replicate, err)
	}
	return model.ExperimentRecord{
		SweepID:    r.SweepID,
		ComboIndex: r.ComboIndex,
		Replicate:  r.Replicate,
		Params:     params,
		Outcome:    model.Outcome(r.Outcome),
		Steps:      r.Steps,
		Success:    r.Success,
		Failure:    r.Failure,
	}, nil
}

func (s *SQLiteStore) GetRecord(ctx context.Context, key Key) (model.ExperimentRecord, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return model.ExperimentRecord{}, false, err
	}
	var row replicateRow
	err = db.GetContext(ctx, &row, `
		SELECT sweep_id, combo_index, replicate, params, outcome, steps, success, failure
		FROM replicate_records
		WHERE sweep_id = ? AND combo_index = ? AND replicate = ?
	`, key.SweepID, key.ComboIndex, key.Replicate)
	if err == sql.ErrNoRows {
		return model.ExperimentRecord{}, false, nil
	}
	if err != nil {
		return model.ExperimentRecord{}, false, err
	}
	record, err := row.toRecord()
	if err != nil {
		return model.ExperimentRecord{}, false, err
	}
	return record, true, nil
}

func (s *SQLiteStore) Records(ctx context.Context, sweepID string) ([]model.ExperimentRecord, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}
	var rows []replicateRow
	err = db.SelectContext(ctx, &rows, `
		SELECT sweep_id, combo_index, replicate, params, outcome, steps, success, failure
		FROM replicate_records
		WHERE sweep_id = ?
		ORDER BY combo_index, replicate
	`, sweepID)
	if err != nil {
		return nil, err
	}
	out := make([]model.ExperimentRecord, 0, len(rows))
	for _, row := range rows {
		record, err := row.toRecord()
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, nil
}

func (s *SQLiteStore) CompletedKeys(ctx context.Context, sweepID string) (map[Key]struct{}, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}
	var rows []struct {
		ComboIndex int `db:"combo_index"`
		Replicate  int `db:"replicate"`
	}
	err = db.SelectContext(ctx, &rows, `
		SELECT combo_index, replicate FROM replicate_records WHERE sweep_id = ?
	`, sweepID)
	if err != nil {
		return nil, err
	}
	out := make(map[Key]struct{}, len(rows))
	for _, row := range rows {
		out[Key{SweepID: sweepID, ComboIndex: row.ComboIndex, Replicate: row.Replicate}] = struct{}{}
	}
	return out, nil
}

func (s *SQLiteStore) SweepIDs(ctx context.Context) ([]string, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}
	var ids []string
	err = db.SelectContext(ctx, &ids, `
		SELECT DISTINCT sweep_id FROM replicate_records ORDER BY sweep_id
	`)
	if err != nil {
		return nil, err
	}
	return ids, nil
}
