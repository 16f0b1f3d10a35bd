package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Scans table - one row per captured document, corners in frame coordinates
		`CREATE TABLE IF NOT EXISTS scans (
			id TEXT PRIMARY KEY,
			trigger TEXT NOT NULL CHECK(trigger IN ('auto', 'manual')),
			lt_x REAL NOT NULL,
			lt_y REAL NOT NULL,
			rt_x REAL NOT NULL,
			rt_y REAL NOT NULL,
			lb_x REAL NOT NULL,
			lb_y REAL NOT NULL,
			rb_x REAL NOT NULL,
			rb_y REAL NOT NULL,
			image_path TEXT NOT NULL,
			thumb_path TEXT NOT NULL DEFAULT '',
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Hook runs table - results of post-capture plugins per scan
		`CREATE TABLE IF NOT EXISTS hook_runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			scan_id TEXT NOT NULL REFERENCES scans(id) ON DELETE CASCADE,
			plugin_name TEXT NOT NULL,
			success INTEGER NOT NULL,
			message TEXT NOT NULL DEFAULT '',
			output TEXT NOT NULL DEFAULT '{}',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Settings table - stores application settings as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_scans_created_at ON scans(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_hook_runs_scan_id ON hook_runs(scan_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
