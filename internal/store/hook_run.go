package store

import (
	"database/sql"
	"encoding/json"
	"time"
)

// HookRun records the result of one post-capture plugin for a scan.
type HookRun struct {
	ID         int64           `json:"id"`
	ScanID     string          `json:"scan_id"`
	PluginName string          `json:"plugin"`
	Success    bool            `json:"success"`
	Message    string          `json:"message,omitempty"`
	Output     json.RawMessage `json:"output,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// HookRunRepository stores plugin results.
type HookRunRepository struct {
	db *sql.DB
}

// HookRuns returns the hook run repository for this store.
func (s *Store) HookRuns() *HookRunRepository {
	return &HookRunRepository{db: s.db}
}

// Record inserts the runs for one scan in a single transaction.
func (r *HookRunRepository) Record(scanID string, runs []HookRun) error {
	if len(runs) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO hook_runs (scan_id, plugin_name, success, message, output, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for _, run := range runs {
		output := run.Output
		if output == nil {
			output = json.RawMessage("{}")
		}
		success := 0
		if run.Success {
			success = 1
		}
		if _, err := stmt.Exec(scanID, run.PluginName, success, run.Message, string(output), now); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListByScan returns the runs recorded for a scan in insertion order.
func (r *HookRunRepository) ListByScan(scanID string) ([]HookRun, error) {
	rows, err := r.db.Query(
		`SELECT id, scan_id, plugin_name, success, message, output, created_at
		 FROM hook_runs WHERE scan_id = ? ORDER BY id`,
		scanID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []HookRun
	for rows.Next() {
		var run HookRun
		var success int
		var output string
		if err := rows.Scan(&run.ID, &run.ScanID, &run.PluginName, &success, &run.Message, &output, &run.CreatedAt); err != nil {
			return nil, err
		}
		run.Success = success != 0
		run.Output = json.RawMessage(output)
		runs = append(runs, run)
	}

	return runs, rows.Err()
}
