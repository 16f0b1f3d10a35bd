package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/docscan/internal/quad"
)

// Trigger records what fired the shutter.
type Trigger string

const (
	// TriggerAuto is a capture requested by the funnel with auto-shutter on.
	TriggerAuto Trigger = "auto"
	// TriggerManual is a capture requested by the operator.
	TriggerManual Trigger = "manual"
)

// Scan is a captured document frame and the outline selected on it.
type Scan struct {
	ID        string
	Trigger   Trigger
	Corners   quad.Quad
	ImagePath string
	ThumbPath string
	Width     int
	Height    int
	CreatedAt time.Time
}

// ScanRepository provides CRUD operations for scans.
type ScanRepository struct {
	db *sql.DB
}

// Scans returns the scan repository for this store.
func (s *Store) Scans() *ScanRepository {
	return &ScanRepository{db: s.db}
}

const scanColumns = `id, trigger, lt_x, lt_y, rt_x, rt_y, lb_x, lb_y, rb_x, rb_y,
	image_path, thumb_path, width, height, created_at`

// NewScanID returns a fresh scan identifier.
func NewScanID() string {
	return uuid.NewString()
}

// Create inserts a new scan. An empty ID is filled with a new UUID.
func (r *ScanRepository) Create(sc *Scan) error {
	if sc.ID == "" {
		sc.ID = NewScanID()
	}
	if sc.Trigger == "" {
		sc.Trigger = TriggerManual
	}
	sc.CreatedAt = time.Now()

	lt, rt := sc.Corners.LeftTop(), sc.Corners.RightTop()
	lb, rb := sc.Corners.LeftBottom(), sc.Corners.RightBottom()

	_, err := r.db.Exec(
		`INSERT INTO scans (`+scanColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sc.ID, string(sc.Trigger),
		lt.X, lt.Y, rt.X, rt.Y, lb.X, lb.Y, rb.X, rb.Y,
		sc.ImagePath, sc.ThumbPath, sc.Width, sc.Height, sc.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert scan: %w", err)
	}

	return nil
}

// GetByID retrieves a scan by its ID.
func (r *ScanRepository) GetByID(id string) (*Scan, error) {
	sc, err := scanRow(r.db.QueryRow(`SELECT `+scanColumns+` FROM scans WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return sc, nil
}

// List retrieves scans newest first. A limit of 0 or less returns all scans.
func (r *ScanRepository) List(limit int) ([]*Scan, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.Query(
		`SELECT `+scanColumns+` FROM scans ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scans []*Scan
	for rows.Next() {
		sc, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		scans = append(scans, sc)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return scans, nil
}

// Latest returns the most recent scan.
func (r *ScanRepository) Latest() (*Scan, error) {
	scans, err := r.List(1)
	if err != nil {
		return nil, err
	}
	if len(scans) == 0 {
		return nil, ErrNotFound
	}
	return scans[0], nil
}

// Count returns the number of stored scans.
func (r *ScanRepository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM scans`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Delete removes a scan and its hook runs by ID.
func (r *ScanRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM scans WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRow(row rowScanner) (*Scan, error) {
	sc := &Scan{}
	var trigger string
	var pts [quad.NumCorners]quad.Point

	err := row.Scan(
		&sc.ID, &trigger,
		&pts[quad.LeftTop].X, &pts[quad.LeftTop].Y,
		&pts[quad.RightTop].X, &pts[quad.RightTop].Y,
		&pts[quad.LeftBottom].X, &pts[quad.LeftBottom].Y,
		&pts[quad.RightBottom].X, &pts[quad.RightBottom].Y,
		&sc.ImagePath, &sc.ThumbPath, &sc.Width, &sc.Height, &sc.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	q, err := quad.New(pts[:])
	if err != nil {
		return nil, fmt.Errorf("scan %s corners: %w", sc.ID, err)
	}
	sc.Trigger = Trigger(trigger)
	sc.Corners = q
	return sc, nil
}
