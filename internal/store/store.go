// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/thuan734655/all-tools-nihongo/internal/model"
	"github.com/thuan734655/all-tools-nihongo/internal/srs"

	_ "modernc.org/sqlite" // SQLite driver.
)

const driverName = "sqlite"

// timeLayout is fixed width so that stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func init() {
	sqlx.BindDriver(driverName, sqlx.QUESTION)
}

// Store wraps SQLite access for cards, schedules and sessions.
type Store struct {
	db *sqlx.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create data directory")
	}
	db, err := sqlx.Open(driverName, path+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS items (
			id TEXT PRIMARY KEY,
			deck TEXT NOT NULL,
			front TEXT NOT NULL,
			reading TEXT NOT NULL DEFAULT '',
			romaji TEXT NOT NULL DEFAULT '',
			meaning TEXT NOT NULL DEFAULT '',
			meaning_vi TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS schedules (
			item_id TEXT PRIMARY KEY REFERENCES items(id) ON DELETE CASCADE,
			ease_factor REAL NOT NULL,
			interval_days REAL NOT NULL,
			repetitions INTEGER NOT NULL,
			lapses INTEGER NOT NULL,
			due_at TEXT NOT NULL,
			last_reviewed_at TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS review_log (
			id INTEGER PRIMARY KEY,
			item_id TEXT NOT NULL,
			grade INTEGER NOT NULL,
			reviewed_at TEXT NOT NULL,
			interval_days REAL NOT NULL,
			ease_factor REAL NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id INTEGER PRIMARY KEY,
			deck TEXT NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			reviewed INTEGER NOT NULL,
			correct INTEGER NOT NULL,
			xp INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_items_deck ON items(deck);`,
		`CREATE INDEX IF NOT EXISTS idx_schedules_due_at ON schedules(due_at);`,
		`CREATE INDEX IF NOT EXISTS idx_review_log_item ON review_log(item_id, reviewed_at);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_ended_at ON sessions(ended_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return errors.Wrap(err, "failed to migrate database")
		}
	}
	return nil
}

type itemRow struct {
	ID        string `db:"id"`
	Deck      string `db:"deck"`
	Front     string `db:"front"`
	Reading   string `db:"reading"`
	Romaji    string `db:"romaji"`
	Meaning   string `db:"meaning"`
	MeaningVi string `db:"meaning_vi"`
	CreatedAt string `db:"created_at"`
}

// UpsertItems inserts new cards and refreshes the text of existing ones.
// Creation time and schedules of existing cards are kept. It returns the
// number of rows written.
func (s *Store) UpsertItems(ctx context.Context, items []model.Item) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}
	now := time.Now()
	rows := make([]itemRow, 0, len(items))
	for _, it := range items {
		if it.ID == "" || it.Deck == "" || it.Front == "" {
			return 0, errors.Errorf("item %q: id, deck and front are required", it.Front)
		}
		created := it.CreatedAt
		if created.IsZero() {
			created = now
		}
		rows = append(rows, itemRow{
			ID:        it.ID,
			Deck:      it.Deck,
			Front:     it.Front,
			Reading:   it.Reading,
			Romaji:    it.Romaji,
			Meaning:   it.Meaning,
			MeaningVi: it.MeaningVi,
			CreatedAt: formatTime(created),
		})
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	for _, row := range rows {
		if _, err = tx.NamedExecContext(ctx,
			`INSERT INTO items (id, deck, front, reading, romaji, meaning, meaning_vi, created_at)
			 VALUES (:id, :deck, :front, :reading, :romaji, :meaning, :meaning_vi, :created_at)
			 ON CONFLICT(id) DO UPDATE SET
				deck = excluded.deck,
				front = excluded.front,
				reading = excluded.reading,
				romaji = excluded.romaji,
				meaning = excluded.meaning,
				meaning_vi = excluded.meaning_vi`, row); err != nil {
			return 0, errors.Wrapf(err, "failed to upsert item %s", row.ID)
		}
	}
	if err = tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "failed to commit items")
	}
	return len(rows), nil
}

// ListItems returns the cards of a deck in import order. An empty deck lists
// every card.
func (s *Store) ListItems(ctx context.Context, deck string) ([]model.Item, error) {
	var rows []itemRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT id, deck, front, reading, romaji, meaning, meaning_vi, created_at
		 FROM items
		 WHERE (? = '' OR deck = ?)
		 ORDER BY rowid ASC`, deck, deck)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list items")
	}
	items := make([]model.Item, 0, len(rows))
	for _, row := range rows {
		created, err := parseTime(row.CreatedAt)
		if err != nil {
			return nil, err
		}
		items = append(items, model.Item{
			ID:        row.ID,
			Deck:      row.Deck,
			Front:     row.Front,
			Reading:   row.Reading,
			Romaji:    row.Romaji,
			Meaning:   row.Meaning,
			MeaningVi: row.MeaningVi,
			CreatedAt: created,
		})
	}
	return items, nil
}

type scheduleRow struct {
	ItemID         string          `db:"item_id"`
	EaseFactor     sql.NullFloat64 `db:"ease_factor"`
	IntervalDays   sql.NullFloat64 `db:"interval_days"`
	Repetitions    sql.NullInt64   `db:"repetitions"`
	Lapses         sql.NullInt64   `db:"lapses"`
	DueAt          sql.NullString  `db:"due_at"`
	LastReviewedAt sql.NullString  `db:"last_reviewed_at"`
}

// LoadSchedules returns one schedule per card of the deck, in import order.
// Cards that were never graded get newSchedule(id); those are not written
// back until graded.
func (s *Store) LoadSchedules(ctx context.Context, deck string, newSchedule func(itemID string) srs.Schedule) ([]srs.Schedule, error) {
	var rows []scheduleRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT i.id AS item_id, s.ease_factor, s.interval_days, s.repetitions, s.lapses, s.due_at, s.last_reviewed_at
		 FROM items i
		 LEFT JOIN schedules s ON s.item_id = i.id
		 WHERE (? = '' OR i.deck = ?)
		 ORDER BY i.rowid ASC`, deck, deck)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load schedules")
	}
	out := make([]srs.Schedule, 0, len(rows))
	for _, row := range rows {
		if !row.DueAt.Valid {
			out = append(out, newSchedule(row.ItemID))
			continue
		}
		sched, err := row.schedule()
		if err != nil {
			return nil, err
		}
		out = append(out, sched)
	}
	return out, nil
}

func (r scheduleRow) schedule() (srs.Schedule, error) {
	due, err := parseTime(r.DueAt.String)
	if err != nil {
		return srs.Schedule{}, err
	}
	sched := srs.Schedule{
		ItemID:       r.ItemID,
		EaseFactor:   r.EaseFactor.Float64,
		IntervalDays: r.IntervalDays.Float64,
		Repetitions:  int(r.Repetitions.Int64),
		Lapses:       int(r.Lapses.Int64),
		DueAt:        due,
	}
	if r.LastReviewedAt.Valid {
		last, err := parseTime(r.LastReviewedAt.String)
		if err != nil {
			return srs.Schedule{}, err
		}
		sched.LastReviewedAt = &last
	}
	return sched, nil
}

// SaveReview persists the schedule produced by a grade together with a log
// entry. Both writes happen in one transaction.
func (s *Store) SaveReview(ctx context.Context, sched srs.Schedule, grade srs.Grade) (err error) {
	if err := sched.Validate(); err != nil {
		return err
	}
	if !grade.IsValid() {
		return errors.Wrapf(srs.ErrInvalidArgument, "grade %d", int(grade))
	}
	reviewedAt := sched.DueAt
	var last any
	if sched.LastReviewedAt != nil {
		reviewedAt = *sched.LastReviewedAt
		last = formatTime(*sched.LastReviewedAt)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO schedules (item_id, ease_factor, interval_days, repetitions, lapses, due_at, last_reviewed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(item_id) DO UPDATE SET
			ease_factor = excluded.ease_factor,
			interval_days = excluded.interval_days,
			repetitions = excluded.repetitions,
			lapses = excluded.lapses,
			due_at = excluded.due_at,
			last_reviewed_at = excluded.last_reviewed_at`,
		sched.ItemID,
		sched.EaseFactor,
		sched.IntervalDays,
		sched.Repetitions,
		sched.Lapses,
		formatTime(sched.DueAt),
		last,
	); err != nil {
		return errors.Wrapf(err, "failed to save schedule for %s", sched.ItemID)
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO review_log (item_id, grade, reviewed_at, interval_days, ease_factor)
		 VALUES (?, ?, ?, ?, ?)`,
		sched.ItemID,
		int(grade),
		formatTime(reviewedAt),
		sched.IntervalDays,
		sched.EaseFactor,
	); err != nil {
		return errors.Wrapf(err, "failed to log review for %s", sched.ItemID)
	}
	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit review")
	}
	return nil
}

type reviewRow struct {
	ItemID       string  `db:"item_id"`
	Grade        int     `db:"grade"`
	ReviewedAt   string  `db:"reviewed_at"`
	IntervalDays float64 `db:"interval_days"`
	EaseFactor   float64 `db:"ease_factor"`
}

// ListReviews returns the review log of an item, oldest first.
func (s *Store) ListReviews(ctx context.Context, itemID string) ([]model.ReviewLog, error) {
	var rows []reviewRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT item_id, grade, reviewed_at, interval_days, ease_factor
		 FROM review_log
		 WHERE item_id = ?
		 ORDER BY reviewed_at ASC, id ASC`, itemID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list reviews")
	}
	logs := make([]model.ReviewLog, 0, len(rows))
	for _, row := range rows {
		at, err := parseTime(row.ReviewedAt)
		if err != nil {
			return nil, err
		}
		logs = append(logs, model.ReviewLog{
			ItemID:       row.ItemID,
			Grade:        row.Grade,
			ReviewedAt:   at,
			IntervalDays: row.IntervalDays,
			EaseFactor:   row.EaseFactor,
		})
	}
	return logs, nil
}

// InsertSession stores a finished session summary.
func (s *Store) InsertSession(ctx context.Context, rec model.SessionRecord) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (deck, started_at, ended_at, reviewed, correct, xp)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Deck,
		formatTime(rec.StartedAt),
		formatTime(rec.EndedAt),
		rec.Reviewed,
		rec.Correct,
		rec.XP,
	)
	if err != nil {
		return 0, errors.Wrap(err, "failed to insert session")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "failed to read session id")
	}
	return id, nil
}

type sessionRow struct {
	ID        int64  `db:"id"`
	Deck      string `db:"deck"`
	StartedAt string `db:"started_at"`
	EndedAt   string `db:"ended_at"`
	Reviewed  int    `db:"reviewed"`
	Correct   int    `db:"correct"`
	XP        int    `db:"xp"`
}

// ListSessions returns sessions filtered by stats config, oldest first.
func (s *Store) ListSessions(ctx context.Context, cfg model.StatsConfig) ([]model.SessionRecord, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Deck != "" {
		clauses = append(clauses, "deck = ?")
		args = append(args, cfg.Deck)
	}
	if cfg.Since != nil {
		clauses = append(clauses, "ended_at >= ?")
		args = append(args, formatTime(*cfg.Since))
	}
	query := fmt.Sprintf(`SELECT id, deck, started_at, ended_at, reviewed, correct, xp
		FROM sessions
		WHERE %s
		ORDER BY ended_at ASC, id ASC`, strings.Join(clauses, " AND "))

	var rows []sessionRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "failed to list sessions")
	}
	sessions := make([]model.SessionRecord, 0, len(rows))
	for _, row := range rows {
		started, err := parseTime(row.StartedAt)
		if err != nil {
			return nil, err
		}
		ended, err := parseTime(row.EndedAt)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, model.SessionRecord{
			ID:        row.ID,
			Deck:      row.Deck,
			StartedAt: started,
			EndedAt:   ended,
			Reviewed:  row.Reviewed,
			Correct:   row.Correct,
			XP:        row.XP,
		})
	}
	return sessions, nil
}

// CountDue counts previously reviewed cards of a deck due before at.
func (s *Store) CountDue(ctx context.Context, deck string, at time.Time) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n,
		`SELECT COUNT(*)
		 FROM schedules s
		 JOIN items i ON i.id = s.item_id
		 WHERE s.last_reviewed_at IS NOT NULL
		   AND s.due_at < ?
		   AND (? = '' OR i.deck = ?)`, formatTime(at), deck, deck)
	if err != nil {
		return 0, errors.Wrap(err, "failed to count due cards")
	}
	return n, nil
}

type studiedRow struct {
	Fresh int `db:"fresh"`
	Total int `db:"total"`
}

// CountStudied counts the grades logged in [from, to) for a deck. A grade is
// new when it is the first one ever logged for its card; every other grade
// counts as a review.
func (s *Store) CountStudied(ctx context.Context, deck string, from, to time.Time) (news, reviews int, err error) {
	var row studiedRow
	err = s.db.GetContext(ctx, &row,
		`SELECT
			COALESCE(SUM(CASE WHEN NOT EXISTS (
				SELECT 1 FROM review_log p
				WHERE p.item_id = r.item_id
				  AND (p.reviewed_at < r.reviewed_at OR (p.reviewed_at = r.reviewed_at AND p.id < r.id))
			) THEN 1 ELSE 0 END), 0) AS fresh,
			COUNT(*) AS total
		 FROM review_log r
		 JOIN items i ON i.id = r.item_id
		 WHERE r.reviewed_at >= ? AND r.reviewed_at < ?
		   AND (? = '' OR i.deck = ?)`, formatTime(from), formatTime(to), deck, deck)
	if err != nil {
		return 0, 0, errors.Wrap(err, "failed to count studied cards")
	}
	return row.Fresh, row.Total - row.Fresh, nil
}

type overviewRow struct {
	Deck     string `db:"deck"`
	Total    int    `db:"total"`
	Fresh    int    `db:"fresh"`
	Due      int    `db:"due"`
	Learning int    `db:"learning"`
	Lapses   int    `db:"lapses"`
}

// Overview counts cards per deck at the given time.
func (s *Store) Overview(ctx context.Context, at time.Time) ([]model.Overview, error) {
	var rows []overviewRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT i.deck AS deck,
			COUNT(*) AS total,
			SUM(CASE WHEN s.last_reviewed_at IS NULL THEN 1 ELSE 0 END) AS fresh,
			SUM(CASE WHEN s.last_reviewed_at IS NOT NULL AND s.due_at < ? THEN 1 ELSE 0 END) AS due,
			SUM(CASE WHEN s.last_reviewed_at IS NOT NULL AND s.repetitions = 0 THEN 1 ELSE 0 END) AS learning,
			COALESCE(SUM(s.lapses), 0) AS lapses
		 FROM items i
		 LEFT JOIN schedules s ON s.item_id = i.id
		 GROUP BY i.deck
		 ORDER BY i.deck ASC`, formatTime(at))
	if err != nil {
		return nil, errors.Wrap(err, "failed to build overview")
	}
	out := make([]model.Overview, 0, len(rows))
	for _, row := range rows {
		out = append(out, model.Overview{
			Deck:     row.Deck,
			Total:    row.Total,
			New:      row.Fresh,
			Due:      row.Due,
			Learning: row.Learning,
			Lapses:   row.Lapses,
		})
	}
	return out, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "failed to parse timestamp %q", value)
	}
	return t, nil
}
