package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"

	DefaultCategoryColor = "#3498db"
)

var ErrNotFound = errors.New("todo not found")

type Item struct {
	ID          int
	Text        string
	Category    string
	Tags        string
	CreatedAt   time.Time
	CompletedAt sql.NullTime
	Status      string
	OrderIndex  int64
}

type Category struct {
	Name  string
	Color string
}

type Store struct {
	db *sql.DB
}

func Open(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, errors.New("db path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, err
	}
	db, err := sql.Open("sqlite", sqliteDSN(dbPath))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec %q: %w", pragma, err)
		}
	}

	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS todos (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	text TEXT NOT NULL,
	category TEXT NOT NULL DEFAULT '',
	tags TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL,
	completed_at TEXT DEFAULT NULL,
	status TEXT NOT NULL DEFAULT 'pending',
	order_index INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS categories (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT UNIQUE NOT NULL,
	color TEXT NOT NULL DEFAULT '#3498db'
);`
	if _, err := s.db.Exec(ddl); err != nil {
		return err
	}
	return s.ensureTodoColumns()
}

// ensureTodoColumns backfills columns added after the first release so an
// existing database keeps working.
func (s *Store) ensureTodoColumns() error {
	required := map[string]string{
		"completed_at": "ALTER TABLE todos ADD COLUMN completed_at TEXT DEFAULT NULL;",
		"order_index":  "ALTER TABLE todos ADD COLUMN order_index INTEGER NOT NULL DEFAULT 0;",
	}
	existing := map[string]struct{}{}
	rows, err := s.db.Query(`PRAGMA table_info(todos);`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return err
		}
		existing[name] = struct{}{}
	}
	for col, alter := range required {
		if _, ok := existing[col]; ok {
			continue
		}
		if _, err := s.db.Exec(alter); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Add inserts a pending item at the end of the list and returns its id.
// A previously unseen category is registered with the default color.
func (s *Store) Add(text, category, tags string) (int, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, errors.New("todo text is empty")
	}
	category = strings.TrimSpace(category)
	tags = normalizeTags(tags)

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var maxOrder sql.NullInt64
	row := tx.QueryRow(`SELECT MAX(order_index) FROM todos WHERE status = ?;`, StatusPending)
	if err := row.Scan(&maxOrder); err != nil {
		return 0, fmt.Errorf("max order: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	res, err := tx.Exec(`INSERT INTO todos (text, category, tags, created_at, status, order_index) VALUES (?, ?, ?, ?, ?, ?);`,
		text, category, tags, now, StatusPending, maxOrder.Int64+orderGap)
	if err != nil {
		return 0, fmt.Errorf("insert todo: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if category != "" {
		if _, err := tx.Exec(`INSERT OR IGNORE INTO categories (name, color) VALUES (?, ?);`, category, DefaultCategoryColor); err != nil {
			return 0, fmt.Errorf("register category: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return int(id), nil
}

// Pending returns pending items in manual order.
func (s *Store) Pending() ([]Item, error) {
	return s.query(`SELECT id, text, category, tags, created_at, completed_at, status, order_index
FROM todos WHERE status = ? ORDER BY order_index ASC;`, StatusPending)
}

// Completed returns completed items, most recently completed first.
func (s *Store) Completed() ([]Item, error) {
	return s.query(`SELECT id, text, category, tags, created_at, completed_at, status, order_index
FROM todos WHERE status = ? ORDER BY completed_at DESC, id DESC;`, StatusCompleted)
}

func (s *Store) Get(id int) (Item, error) {
	items, err := s.query(`SELECT id, text, category, tags, created_at, completed_at, status, order_index
FROM todos WHERE id = ?;`, id)
	if err != nil {
		return Item{}, err
	}
	if len(items) == 0 {
		return Item{}, ErrNotFound
	}
	return items[0], nil
}

func (s *Store) query(q string, args ...any) ([]Item, error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		var createdStr string
		var completedStr sql.NullString
		if err := rows.Scan(&it.ID, &it.Text, &it.Category, &it.Tags, &createdStr, &completedStr, &it.Status, &it.OrderIndex); err != nil {
			return nil, err
		}
		if created, err := time.Parse(time.RFC3339, createdStr); err == nil {
			it.CreatedAt = created
		}
		if completedStr.Valid {
			if parsed, err := time.Parse(time.RFC3339, completedStr.String); err == nil {
				it.CompletedAt = sql.NullTime{Time: parsed, Valid: true}
			}
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Complete marks a pending item done and stamps the completion time.
func (s *Store) Complete(id int) error {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec(`UPDATE todos SET status = ?, completed_at = ? WHERE id = ? AND status = ?;`,
		StatusCompleted, now, id, StatusPending)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

// Reopen returns a completed item to the end of the pending list.
func (s *Store) Reopen(id int) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var maxOrder sql.NullInt64
	if err := tx.QueryRow(`SELECT MAX(order_index) FROM todos WHERE status = ?;`, StatusPending).Scan(&maxOrder); err != nil {
		return fmt.Errorf("max order: %w", err)
	}
	res, err := tx.Exec(`UPDATE todos SET status = ?, completed_at = NULL, order_index = ? WHERE id = ? AND status = ?;`,
		StatusPending, maxOrder.Int64+orderGap, id, StatusCompleted)
	if err != nil {
		return err
	}
	if err := checkAffected(res); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) Delete(id int) error {
	res, err := s.db.Exec(`DELETE FROM todos WHERE id = ?;`, id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

// ClearCompleted deletes every completed item and reports how many went away.
func (s *Store) ClearCompleted() (int, error) {
	res, err := s.db.Exec(`DELETE FROM todos WHERE status = ?;`, StatusCompleted)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (s *Store) UpdateText(id int, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return errors.New("todo text is empty")
	}
	res, err := s.db.Exec(`UPDATE todos SET text = ? WHERE id = ?;`, text, id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

// UpdateMeta replaces the category and tags of an item. Ordering is untouched.
func (s *Store) UpdateMeta(id int, category, tags string) error {
	category = strings.TrimSpace(category)
	tags = normalizeTags(tags)

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`UPDATE todos SET category = ?, tags = ? WHERE id = ?;`, category, tags, id)
	if err != nil {
		return err
	}
	if err := checkAffected(res); err != nil {
		return err
	}
	if category != "" {
		if _, err := tx.Exec(`INSERT OR IGNORE INTO categories (name, color) VALUES (?, ?);`, category, DefaultCategoryColor); err != nil {
			return fmt.Errorf("register category: %w", err)
		}
	}
	return tx.Commit()
}

func (s *Store) Categories() ([]Category, error) {
	rows, err := s.db.Query(`SELECT name, color FROM categories ORDER BY name;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cats []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.Name, &c.Color); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

func (s *Store) AddCategory(name, color string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("category name is empty")
	}
	if color == "" {
		color = DefaultCategoryColor
	}
	_, err := s.db.Exec(`INSERT OR IGNORE INTO categories (name, color) VALUES (?, ?);`, name, color)
	return err
}

// Stats returns the pending and completed item counts.
func (s *Store) Stats() (pending, completed int, err error) {
	rows, err := s.db.Query(`SELECT status, COUNT(*) FROM todos GROUP BY status;`)
	if err != nil {
		return 0, 0, err
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return 0, 0, err
		}
		switch status {
		case StatusPending:
			pending = n
		case StatusCompleted:
			completed = n
		}
	}
	return pending, completed, rows.Err()
}

// FilterCategory keeps items whose category equals name, order preserved.
func FilterCategory(items []Item, name string) []Item {
	name = strings.TrimSpace(name)
	var out []Item
	for _, it := range items {
		if strings.EqualFold(it.Category, name) {
			out = append(out, it)
		}
	}
	return out
}

// FilterTag keeps items carrying the tag, order preserved. Matching is exact
// against the comma-split tag set, case-insensitive.
func FilterTag(items []Item, tag string) []Item {
	tag = strings.TrimSpace(tag)
	var out []Item
	for _, it := range items {
		for _, t := range SplitTags(it.Tags) {
			if strings.EqualFold(t, tag) {
				out = append(out, it)
				break
			}
		}
	}
	return out
}

// SplitTags splits a comma-separated tag string, dropping blanks.
func SplitTags(s string) []string {
	var tags []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func normalizeTags(s string) string {
	return strings.Join(SplitTags(s), ",")
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func sqliteDSN(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	abs, err := filepath.Abs(path)
	if err == nil {
		path = abs
	}
	u := url.URL{
		Scheme: "file",
		Path:   path,
	}
	q := u.Query()
	q.Set("mode", "rwc")
	q.Set("_pragma", "busy_timeout(5000)")
	u.RawQuery = q.Encode()
	return u.String()
}
