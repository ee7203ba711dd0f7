package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/korsna/pkg/korsna/internalerr"
	"github.com/cognicore/korsna/pkg/korsna/store"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	// Enable foreign keys
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS posts (
	url TEXT PRIMARY KEY,
	title TEXT,
	body TEXT,
	crawled_at TEXT
);

CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	stage TEXT NOT NULL,
	params TEXT,
	status TEXT NOT NULL,
	docs INTEGER DEFAULT 0,
	started_at TEXT NOT NULL,
	finished_at TEXT,
	modularity REAL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS terms (
	run_id TEXT NOT NULL,
	term TEXT NOT NULL,
	weight REAL NOT NULL,
	df INTEGER DEFAULT 0,
	rank INTEGER NOT NULL,
	included INTEGER NOT NULL,
	PRIMARY KEY(run_id, term),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS edges (
	run_id TEXT NOT NULL,
	pos INTEGER NOT NULL,
	source TEXT NOT NULL,
	target TEXT NOT NULL,
	weight INTEGER NOT NULL,
	npmi REAL DEFAULT 0,
	PRIMARY KEY(run_id, source, target),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_edges_source ON edges(run_id, source);
CREATE INDEX IF NOT EXISTS idx_edges_target ON edges(run_id, target);

CREATE TABLE IF NOT EXISTS memberships (
	run_id TEXT NOT NULL,
	label TEXT NOT NULL,
	community INTEGER NOT NULL,
	degree INTEGER DEFAULT 0,
	pos INTEGER NOT NULL,
	PRIMARY KEY(run_id, label),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS stoplist (
	token TEXT PRIMARY KEY
);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s sql.NullString) time.Time {
	if !s.Valid || s.String == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return time.Time{}
	}
	return t
}

// UpsertPost inserts or updates a post keyed by URL.
func (s *sqliteStore) UpsertPost(ctx context.Context, p store.Post) error {
	if p.URL == "" {
		return fmt.Errorf("post without url: %w", internalerr.ErrInvalidInput)
	}
	const stmt = `
INSERT INTO posts (url, title, body, crawled_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(url) DO UPDATE SET
	title=excluded.title,
	body=excluded.body,
	crawled_at=excluded.crawled_at;
`
	_, err := s.db.ExecContext(ctx, stmt, p.URL, p.Title, p.Body, formatTime(p.CrawledAt))
	return err
}

// GetPostByURL returns a post by URL.
func (s *sqliteStore) GetPostByURL(ctx context.Context, url string) (store.Post, bool, error) {
	var (
		p         store.Post
		crawledAt sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT url, title, body, crawled_at FROM posts WHERE url = ?`, url,
	).Scan(&p.URL, &p.Title, &p.Body, &crawledAt)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Post{}, false, nil
	}
	if err != nil {
		return store.Post{}, false, err
	}
	p.CrawledAt = parseTime(crawledAt)
	return p, true, nil
}

// CountPosts returns the number of stored posts.
func (s *sqliteStore) CountPosts(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts`).Scan(&n)
	return n, err
}

// CreateRun stores a new run, assigning an id and start time when missing.
func (s *sqliteStore) CreateRun(ctx context.Context, r store.Run) (store.Run, error) {
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now()
	}
	if r.ID == "" {
		r.ID = store.NewRunID(r.StartedAt)
	}
	if r.Status == "" {
		r.Status = store.StatusRunning
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO runs (id, stage, params, status, docs, started_at, finished_at, modularity)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Stage, r.Params, r.Status, r.Docs,
		formatTime(r.StartedAt), formatTime(r.FinishedAt), r.Modularity,
	)
	if err != nil {
		return store.Run{}, fmt.Errorf("create run: %w", err)
	}
	return r, nil
}

// FinishRun sets the final status of a run.
func (s *sqliteStore) FinishRun(ctx context.Context, id, status string, finishedAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, finished_at = ? WHERE id = ?`,
		status, formatTime(finishedAt), id,
	)
	if err != nil {
		return err
	}
	return requireRow(res, "run "+id)
}

func requireRow(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, internalerr.ErrNotFound)
	}
	return nil
}

const runColumns = `id, stage, params, status, docs, started_at, finished_at, modularity`

func scanRun(row interface{ Scan(...any) error }) (store.Run, error) {
	var (
		r                 store.Run
		params            sql.NullString
		started, finished sql.NullString
	)
	if err := row.Scan(&r.ID, &r.Stage, &params, &r.Status, &r.Docs, &started, &finished, &r.Modularity); err != nil {
		return store.Run{}, err
	}
	r.Params = params.String
	r.StartedAt = parseTime(started)
	r.FinishedAt = parseTime(finished)
	return r, nil
}

// GetRun returns a run by id.
func (s *sqliteStore) GetRun(ctx context.Context, id string) (store.Run, error) {
	r, err := scanRun(s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return store.Run{}, fmt.Errorf("run %s: %w", id, internalerr.ErrNotFound)
	}
	return r, err
}

// ListRuns returns the most recent runs first.
func (s *sqliteStore) ListRuns(ctx context.Context, limit int) ([]store.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []store.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// SaveTerms replaces the ranked vocabulary of a run.
func (s *sqliteStore) SaveTerms(ctx context.Context, runID string, terms []store.Term) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM terms WHERE run_id = ?`, runID); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO terms (run_id, term, weight, df, rank, included) VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(run_id, term) DO UPDATE SET
	weight=excluded.weight, df=excluded.df, rank=excluded.rank, included=excluded.included`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, t := range terms {
		if _, err := stmt.ExecContext(ctx, runID, t.Term, t.Weight, t.DF, t.Rank, boolToInt(t.Included)); err != nil {
			return fmt.Errorf("save term %q: %w", t.Term, err)
		}
	}
	return tx.Commit()
}

// GetTerms returns a run's vocabulary in rank order.
func (s *sqliteStore) GetTerms(ctx context.Context, runID string) ([]store.Term, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT term, weight, df, rank, included FROM terms WHERE run_id = ? ORDER BY rank`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var terms []store.Term
	for rows.Next() {
		var (
			t        store.Term
			included int
		)
		if err := rows.Scan(&t.Term, &t.Weight, &t.DF, &t.Rank, &included); err != nil {
			return nil, err
		}
		t.Included = included != 0
		terms = append(terms, t)
	}
	return terms, rows.Err()
}

// SaveEdges replaces the edge list of a run.
func (s *sqliteStore) SaveEdges(ctx context.Context, runID string, edges []store.Edge) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM edges WHERE run_id = ?`, runID); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO edges (run_id, pos, source, target, weight, npmi) VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(run_id, source, target) DO UPDATE SET
	weight=edges.weight + excluded.weight`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, e := range edges {
		if _, err := stmt.ExecContext(ctx, runID, i, e.Source, e.Target, e.Weight, e.NPMI); err != nil {
			return fmt.Errorf("save edge %s-%s: %w", e.Source, e.Target, err)
		}
	}
	return tx.Commit()
}

// GetEdges returns a run's edges in their saved order.
func (s *sqliteStore) GetEdges(ctx context.Context, runID string) ([]store.Edge, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT pos, source, target, weight, npmi FROM edges WHERE run_id = ? ORDER BY pos`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var edges []store.Edge
	for rows.Next() {
		var e store.Edge
		if err := rows.Scan(&e.Pos, &e.Source, &e.Target, &e.Weight, &e.NPMI); err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// TopNeighbors returns the k terms most strongly linked to term, by weight
// and then NPMI.
func (s *sqliteStore) TopNeighbors(ctx context.Context, runID, term string, k int) ([]store.Neighbor, error) {
	if k <= 0 {
		k = 10
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT CASE WHEN source = ? THEN target ELSE source END AS other, weight, npmi, pos
FROM edges
WHERE run_id = ? AND (source = ? OR target = ?)`,
		term, runID, term, term)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type ranked struct {
		store.Neighbor
		pos int
	}
	var all []ranked
	for rows.Next() {
		var r ranked
		if err := rows.Scan(&r.Term, &r.Weight, &r.NPMI, &r.pos); err != nil {
			return nil, err
		}
		all = append(all, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Weight != all[j].Weight {
			return all[i].Weight > all[j].Weight
		}
		if all[i].NPMI != all[j].NPMI {
			return all[i].NPMI > all[j].NPMI
		}
		return all[i].pos < all[j].pos
	})
	if len(all) > k {
		all = all[:k]
	}
	out := make([]store.Neighbor, len(all))
	for i, r := range all {
		out[i] = r.Neighbor
	}
	return out, nil
}

// SavePartition replaces the community assignment of a run.
func (s *sqliteStore) SavePartition(ctx context.Context, runID string, members []store.Membership, modularity float64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE runs SET modularity = ? WHERE id = ?`, modularity, runID)
	if err != nil {
		return err
	}
	if err := requireRow(res, "run "+runID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM memberships WHERE run_id = ?`, runID); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO memberships (run_id, label, community, degree, pos) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, m := range members {
		if _, err := stmt.ExecContext(ctx, runID, m.Label, m.Community, m.Degree, i); err != nil {
			return fmt.Errorf("save membership %q: %w", m.Label, err)
		}
	}
	return tx.Commit()
}

// GetPartition returns memberships in saved order.
func (s *sqliteStore) GetPartition(ctx context.Context, runID string) ([]store.Membership, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT label, community, degree FROM memberships WHERE run_id = ? ORDER BY pos`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []store.Membership
	for rows.Next() {
		var m store.Membership
		if err := rows.Scan(&m.Label, &m.Community, &m.Degree); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// UpsertStoplist adds tokens to the curated stoplist.
func (s *sqliteStore) UpsertStoplist(ctx context.Context, tokens []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO stoplist (token) VALUES (?) ON CONFLICT(token) DO NOTHING`, tok); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Stoplist returns the curated stoplist in sorted order.
func (s *sqliteStore) Stoplist(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT token FROM stoplist ORDER BY token`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var tok string
		if err := rows.Scan(&tok); err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
	}
	return tokens, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
