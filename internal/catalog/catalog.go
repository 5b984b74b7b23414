// Package catalog provides SQLite-backed persistence for registered
// courses. It is the durable record of which folders the server knows
// about; it deliberately lives in a separate database from lesson
// progress so course handles and progress data have independent
// lifetimes.
package catalog

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/lecternapp/lectern-server/internal/errors"
)

//go:embed schema.sql
var schemaSQL string

// Course is one registered course folder.
type Course struct {
	ID         string     `json:"id"`
	Slug       string     `json:"slug"`
	Name       string     `json:"name"`
	Path       string     `json:"path"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
	LastScanAt *time.Time `json:"lastScanAt,omitempty"`
}

// Catalog provides SQLite-backed course registration.
type Catalog struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open creates a catalog at the given path. It configures WAL mode,
// sets pragmas, and runs schema migrations.
func Open(path string, logger *slog.Logger) (*Catalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Set connection pool to 1 writer (SQLite limitation).
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	// Configure pragmas.
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

	// Run schema migration.
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("exec schema: %w", err)
	}

	if logger != nil {
		logger.Info("Course catalog opened", "path", path)
	}

	return &Catalog{db: db, logger: logger}, nil
}

// Close closes the underlying database connection.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// courseColumns is the ordered list of columns selected in course
// queries. Must match the scan order in scanCourse.
const courseColumns = `id, slug, name, path, created_at, updated_at, last_scan_at`

// scanCourse scans a sql.Row (or sql.Rows via its Scan method) into a Course.
func scanCourse(scanner interface{ Scan(dest ...any) error }) (*Course, error) {
	var crs Course

	var (
		createdAt  string
		updatedAt  string
		lastScanAt sql.NullString
	)

	err := scanner.Scan(
		&crs.ID,
		&crs.Slug,
		&crs.Name,
		&crs.Path,
		&createdAt,
		&updatedAt,
		&lastScanAt,
	)
	if err != nil {
		return nil, err
	}

	// Parse timestamps.
	crs.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	crs.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}
	crs.LastScanAt, err = parseNullableTime(lastScanAt)
	if err != nil {
		return nil, err
	}

	return &crs, nil
}

// CreateCourse inserts a new course into the catalog.
// Returns an ALREADY_EXISTS error on a duplicate ID or slug.
func (c *Catalog) CreateCourse(ctx context.Context, crs *Course) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO courses (
			id, slug, name, path, created_at, updated_at, last_scan_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		crs.ID,
		crs.Slug,
		crs.Name,
		crs.Path,
		formatTime(crs.CreatedAt),
		formatTime(crs.UpdatedAt),
		nullTime(crs.LastScanAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return errors.AlreadyExistsf("course %q is already registered", crs.Slug)
		}
		return err
	}
	return nil
}

// GetCourse retrieves a course by ID.
// Returns a NOT_FOUND error if the course does not exist.
func (c *Catalog) GetCourse(ctx context.Context, id string) (*Course, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT `+courseColumns+` FROM courses WHERE id = ?`, id)

	crs, err := scanCourse(row)
	if err == sql.ErrNoRows {
		return nil, errors.NotFoundf("course %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return crs, nil
}

// GetCourseBySlug retrieves a course by its slug.
// Returns a NOT_FOUND error if no course has the slug.
func (c *Catalog) GetCourseBySlug(ctx context.Context, slug string) (*Course, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT `+courseColumns+` FROM courses WHERE slug = ?`, slug)

	crs, err := scanCourse(row)
	if err == sql.ErrNoRows {
		return nil, errors.NotFoundf("course %q not found", slug)
	}
	if err != nil {
		return nil, err
	}
	return crs, nil
}

// ListCourses returns all registered courses ordered by creation time.
func (c *Catalog) ListCourses(ctx context.Context) ([]*Course, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT `+courseColumns+` FROM courses ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	courses := []*Course{}
	for rows.Next() {
		crs, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, crs)
	}
	return courses, rows.Err()
}

// UpdateCoursePath points a registered course at a new folder. Used
// when a stored path no longer resolves and the user reattaches the
// course. Returns a NOT_FOUND error if the course does not exist.
func (c *Catalog) UpdateCoursePath(ctx context.Context, id, path string) error {
	res, err := c.db.ExecContext(ctx, `
		UPDATE courses SET path = ?, updated_at = ? WHERE id = ?`,
		path, formatTime(time.Now()), id)
	if err != nil {
		return err
	}
	return requireRowAffected(res, id)
}

// TouchLastScan records the time a course was last scanned
// successfully.
func (c *Catalog) TouchLastScan(ctx context.Context, id string, at time.Time) error {
	res, err := c.db.ExecContext(ctx, `
		UPDATE courses SET last_scan_at = ?, updated_at = ? WHERE id = ?`,
		formatTime(at), formatTime(time.Now()), id)
	if err != nil {
		return err
	}
	return requireRowAffected(res, id)
}

// DeleteCourse removes a course from the catalog.
// Returns a NOT_FOUND error if the course does not exist.
func (c *Catalog) DeleteCourse(ctx context.Context, id string) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM courses WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRowAffected(res, id)
}

// requireRowAffected converts a zero-row result into a NOT_FOUND error.
func requireRowAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.NotFoundf("course %s not found", id)
	}
	return nil
}

// formatTime formats a time.Time to RFC3339Nano for storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime parses a RFC3339Nano string back to time.Time.
func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// parseNullableTime parses an optional time string.
func parseNullableTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// nullTime returns a sql.NullString from an optional time.
func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}
