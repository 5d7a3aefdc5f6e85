package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/mr1hm/go-seismic-sources/internal/models"
)

const defaultListLimit = 100

type SQLiteDB struct {
	db *sql.DB
}

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	if path == ":memory:" {
		// every connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	s := &SQLiteDB{
		db: db,
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("error while migrating to database: %w", err)
	}

	return s, nil
}

func (s *SQLiteDB) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			strategy TEXT NOT NULL,
			records INTEGER NOT NULL,
			compiled INTEGER NOT NULL,
			dropped INTEGER NOT NULL,
			failed INTEGER NOT NULL,
			created_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS sources (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			idx INTEGER NOT NULL,
			label TEXT NOT NULL,
			kind TEXT NOT NULL,
			max_magnitude REAL NOT NULL,
			dip REAL,
			rake REAL,
			upper_depth REAL,
			lower_depth REAL,
			FOREIGN KEY (run_id) REFERENCES runs(id)
		);

		CREATE TABLE IF NOT EXISTS source_vertices (
			source_id INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			latitude REAL NOT NULL,
			longitude REAL NOT NULL,
			depth REAL NOT NULL,
			PRIMARY KEY (source_id, seq),
			FOREIGN KEY (source_id) REFERENCES sources(id)
		);

		CREATE TABLE IF NOT EXISTS source_mfds (
			source_id INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			strike REAL NOT NULL,
			dip REAL NOT NULL,
			rake REAL NOT NULL,
			anchor REAL NOT NULL,
			width REAL NOT NULL,
			rates TEXT NOT NULL,
			PRIMARY KEY (source_id, seq),
			FOREIGN KEY (source_id) REFERENCES sources(id)
		);

		CREATE INDEX IF NOT EXISTS idx_sources_run_id ON sources(run_id);
		CREATE INDEX IF NOT EXISTS idx_sources_kind ON sources(kind);
		CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// SaveRun stores a run and every source of its catalog in one transaction.
func (s *SQLiteDB) SaveRun(ctx context.Context, run *models.Run, cat *models.Catalog) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, name, strategy, records, compiled, dropped, failed, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Name, run.Strategy, run.Records, run.Compiled, run.Dropped, run.Failed, run.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, src := range cat.Sources() {
		st, dists := models.Flatten(run.ID, src)
		if err := insertSource(ctx, tx, st, dists); err != nil {
			return fmt.Errorf("insert source %s: %w", st.Label, err)
		}
	}

	return tx.Commit()
}

func insertSource(ctx context.Context, tx *sql.Tx, st models.StoredSource, dists []models.StoredMFD) error {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO sources (run_id, idx, label, kind, max_magnitude, dip, rake, upper_depth, lower_depth)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		st.RunID, st.Index, st.Label, st.Kind.String(), st.MaxMagnitude, st.Dip, st.Rake, st.UpperDepth, st.LowerDepth)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}

	for i, v := range st.Vertices {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO source_vertices (source_id, seq, latitude, longitude, depth)
			VALUES (?, ?, ?, ?, ?)`,
			id, i, v.Latitude, v.Longitude, v.Depth)
		if err != nil {
			return err
		}
	}

	for i, d := range dists {
		rates, err := json.Marshal(d.Rates)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO source_mfds (source_id, seq, strike, dip, rake, anchor, width, rates)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id, i, d.Mechanism.Strike, d.Mechanism.Dip, d.Mechanism.Rake, d.Anchor, d.Width, string(rates))
		if err != nil {
			return err
		}
	}
	return nil
}

const runColumns = `id, name, strategy, records, compiled, dropped, failed, created_at`

func scanRun(row interface{ Scan(...any) error }) (models.Run, error) {
	var r models.Run
	err := row.Scan(&r.ID, &r.Name, &r.Strategy, &r.Records, &r.Compiled, &r.Dropped, &r.Failed, &r.CreatedAt)
	return r, err
}

func (s *SQLiteDB) GetRun(ctx context.Context, id string) (*models.Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListRuns returns the most recent runs first.
func (s *SQLiteDB) ListRuns(ctx context.Context, limit int) ([]models.Run, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]models.Run, 0)
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// ListSources returns sources in run and catalog order, each with its
// vertices.
func (s *SQLiteDB) ListSources(ctx context.Context, opts Filter) ([]models.StoredSource, error) {
	var (
		where []string
		args  []any
	)
	if opts.RunID != "" {
		where = append(where, "run_id = ?")
		args = append(args, opts.RunID)
	}
	if opts.Kind != nil {
		where = append(where, "kind = ?")
		args = append(args, opts.Kind.String())
	}
	if opts.MinMaxMagnitude != nil {
		where = append(where, "max_magnitude >= ?")
		args = append(args, *opts.MinMaxMagnitude)
	}

	query := `SELECT id, run_id, idx, label, kind, max_magnitude, dip, rake, upper_depth, lower_depth FROM sources`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	query += " ORDER BY id LIMIT ? OFFSET ?"
	args = append(args, limit, opts.Offset)

	sources, err := s.querySources(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	// vertices are read after the source rows are closed so a single
	// connection is never asked for two open result sets
	for i := range sources {
		verts, err := s.vertices(ctx, sources[i].ID)
		if err != nil {
			return nil, err
		}
		sources[i].Vertices = verts
	}
	return sources, nil
}

func (s *SQLiteDB) querySources(ctx context.Context, query string, args ...any) ([]models.StoredSource, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sources := make([]models.StoredSource, 0)
	for rows.Next() {
		var (
			st   models.StoredSource
			kind string
		)
		if err := rows.Scan(
			&st.ID,
			&st.RunID,
			&st.Index,
			&st.Label,
			&kind,
			&st.MaxMagnitude,
			&st.Dip,
			&st.Rake,
			&st.UpperDepth,
			&st.LowerDepth,
		); err != nil {
			return nil, err
		}
		st.Kind = models.ParseSourceKind(kind)
		sources = append(sources, st)
	}
	return sources, rows.Err()
}

func (s *SQLiteDB) vertices(ctx context.Context, sourceID int64) ([]models.Location, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT latitude, longitude, depth FROM source_vertices
		WHERE source_id = ? ORDER BY seq`, sourceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locs []models.Location
	for rows.Next() {
		var l models.Location
		if err := rows.Scan(&l.Latitude, &l.Longitude, &l.Depth); err != nil {
			return nil, err
		}
		locs = append(locs, l)
	}
	return locs, rows.Err()
}

// GetMFDs returns the distributions of one source in mechanism order.
func (s *SQLiteDB) GetMFDs(ctx context.Context, sourceID int64) ([]models.StoredMFD, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM sources WHERE id = ?)`, sourceID).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT strike, dip, rake, anchor, width, rates FROM source_mfds
		WHERE source_id = ? ORDER BY seq`, sourceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	dists := make([]models.StoredMFD, 0)
	for rows.Next() {
		var (
			d     models.StoredMFD
			rates string
		)
		if err := rows.Scan(&d.Mechanism.Strike, &d.Mechanism.Dip, &d.Mechanism.Rake, &d.Anchor, &d.Width, &rates); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(rates), &d.Rates); err != nil {
			return nil, fmt.Errorf("decode rates of source %d: %w", sourceID, err)
		}
		dists = append(dists, d)
	}
	return dists, rows.Err()
}
