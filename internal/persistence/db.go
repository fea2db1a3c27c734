// Package persistence provides SQLite-based world state storage.
//
// Each entity table keeps a few indexed columns for inspection with the
// sqlite3 shell and the full record as JSON in data_json. Saves replace
// every table inside one transaction.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/SebaZ9/sz42-Jomini-sub006/internal/character"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/clock"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/engine"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/ids"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/journal"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/realm"
)

// Meta keys.
const (
	MetaStartYear = "start_year"
	MetaYear      = "year"
	MetaSeason    = "season"
	MetaCounters  = "counters"
	MetaWinner    = "winner"
	MetaUsers     = "users"
	MetaSavedAt   = "saved_at"
)

// ErrNoWorld is returned by LoadWorldState when nothing has been saved.
var ErrNoWorld = errors.New("no saved world")

// DB wraps a SQLite connection for world state persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kingdoms (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		owner TEXT NOT NULL,
		data_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS provinces (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		kingdom TEXT NOT NULL,
		owner TEXT NOT NULL,
		data_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS fiefs (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		province TEXT NOT NULL,
		owner TEXT NOT NULL,
		treasury REAL NOT NULL,
		data_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS characters (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		kind INTEGER NOT NULL,
		alive INTEGER NOT NULL,
		location TEXT NOT NULL,
		data_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS armies (
		id TEXT PRIMARY KEY,
		owner TEXT NOT NULL,
		location TEXT NOT NULL,
		data_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sieges (
		id TEXT PRIMARY KEY,
		fief TEXT NOT NULL,
		besieger TEXT NOT NULL,
		data_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS challenges (
		id TEXT PRIMARY KEY,
		place TEXT NOT NULL,
		challenger TEXT NOT NULL,
		data_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS journal (
		id INTEGER PRIMARY KEY,
		year INTEGER NOT NULL,
		season INTEGER NOT NULL,
		type TEXT NOT NULL,
		description TEXT NOT NULL,
		data_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS scheduled (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		year INTEGER NOT NULL,
		season INTEGER NOT NULL,
		type TEXT NOT NULL,
		data_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_characters_location ON characters(location);
	CREATE INDEX IF NOT EXISTS idx_characters_alive ON characters(alive);
	CREATE INDEX IF NOT EXISTS idx_fiefs_owner ON fiefs(owner);
	CREATE INDEX IF NOT EXISTS idx_journal_date ON journal(year, season);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// writeRows replaces the contents of table with one row per item. row
// returns the column values in the order of cols, data_json excluded.
func writeRows[T any](tx *sqlx.Tx, table string, cols string, items []T, row func(T) []any) error {
	if _, err := tx.Exec("DELETE FROM " + table); err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	n := len(row(items[0])) + 1
	marks := "?"
	for range n - 1 {
		marks += ", ?"
	}
	stmt, err := tx.Preparex(fmt.Sprintf("INSERT INTO %s (%s, data_json) VALUES (%s)", table, cols, marks))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, it := range items {
		data, err := json.Marshal(it)
		if err != nil {
			return fmt.Errorf("encode %s row %d: %w", table, i, err)
		}
		if _, err := stmt.Exec(append(row(it), string(data))...); err != nil {
			return fmt.Errorf("insert %s row %d: %w", table, i, err)
		}
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// SaveWorldState performs a full save of all world state in one transaction.
func (db *DB) SaveWorldState(st engine.State) error {
	slog.Info("saving world state", "date", st.Now, "characters", len(st.Characters), "fiefs", len(st.Fiefs), "journal", len(st.Journal))

	tx, err := db.conn.Beginx()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := writeRows(tx, "kingdoms", "id, name, owner", st.Kingdoms, func(k *realm.Kingdom) []any {
		return []any{k.ID, k.Name, k.Owner}
	}); err != nil {
		return fmt.Errorf("save kingdoms: %w", err)
	}
	if err := writeRows(tx, "provinces", "id, name, kingdom, owner", st.Provinces, func(p *realm.Province) []any {
		return []any{p.ID, p.Name, p.Kingdom, p.Owner}
	}); err != nil {
		return fmt.Errorf("save provinces: %w", err)
	}
	if err := writeRows(tx, "fiefs", "id, name, province, owner, treasury", st.Fiefs, func(f *realm.Fief) []any {
		return []any{f.ID, f.Name, f.Province, f.Owner, f.Treasury}
	}); err != nil {
		return fmt.Errorf("save fiefs: %w", err)
	}
	if err := writeRows(tx, "characters", "id, name, kind, alive, location", st.Characters, func(c *character.Character) []any {
		return []any{c.ID, c.FullName(), c.Kind, boolInt(c.Alive), c.Location}
	}); err != nil {
		return fmt.Errorf("save characters: %w", err)
	}
	if err := writeRows(tx, "armies", "id, owner, location", st.Armies, func(a *realm.Army) []any {
		return []any{a.ID, a.Owner, a.Location}
	}); err != nil {
		return fmt.Errorf("save armies: %w", err)
	}
	if err := writeRows(tx, "sieges", "id, fief, besieger", st.Sieges, func(s *realm.Siege) []any {
		return []any{s.ID, s.Fief, s.BesiegingPlayer}
	}); err != nil {
		return fmt.Errorf("save sieges: %w", err)
	}
	if err := writeRows(tx, "challenges", "id, place, challenger", st.Challenges, func(c *realm.OwnershipChallenge) []any {
		return []any{c.ID, c.Place, c.Challenger}
	}); err != nil {
		return fmt.Errorf("save challenges: %w", err)
	}
	if err := writeRows(tx, "journal", "id, year, season, type, description", st.Journal, func(e journal.Entry) []any {
		return []any{uint64(e.ID), e.Date.Year, e.Date.Season, e.Type, e.Description}
	}); err != nil {
		return fmt.Errorf("save journal: %w", err)
	}
	if err := writeRows(tx, "scheduled", "year, season, type", st.Scheduled, func(e journal.Entry) []any {
		return []any{e.Date.Year, e.Date.Season, e.Type}
	}); err != nil {
		return fmt.Errorf("save scheduled: %w", err)
	}

	counters, err := json.Marshal(st.Counters)
	if err != nil {
		return fmt.Errorf("encode counters: %w", err)
	}
	users, err := json.Marshal(st.Users)
	if err != nil {
		return fmt.Errorf("encode users: %w", err)
	}
	meta := map[string]string{
		MetaStartYear: strconv.Itoa(st.StartYear),
		MetaYear:      strconv.Itoa(st.Now.Year),
		MetaSeason:    strconv.Itoa(int(st.Now.Season)),
		MetaCounters:  string(counters),
		MetaWinner:    string(st.Winner),
		MetaUsers:     string(users),
		MetaSavedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range meta {
		if _, err := tx.Exec("INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)", k, v); err != nil {
			return fmt.Errorf("save meta %s: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	slog.Info("world state saved", "date", st.Now)
	return nil
}

// HasWorldState reports whether a world has been saved.
func (db *DB) HasWorldState() (bool, error) {
	_, err := db.GetMeta(MetaStartYear)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// readRows decodes the data_json column of every row of query.
func readRows[T any](conn *sqlx.DB, query string, args ...any) ([]T, error) {
	var raw []string
	if err := conn.Select(&raw, query, args...); err != nil {
		return nil, err
	}
	out := make([]T, 0, len(raw))
	for i, r := range raw {
		var v T
		if err := json.Unmarshal([]byte(r), &v); err != nil {
			return nil, fmt.Errorf("decode row %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// LoadWorldState reads the saved world. It returns ErrNoWorld when the
// database is empty. The result still has to pass engine.Load.
func (db *DB) LoadWorldState() (engine.State, error) {
	var st engine.State
	ok, err := db.HasWorldState()
	if err != nil {
		return st, err
	}
	if !ok {
		return st, ErrNoWorld
	}

	meta, err := db.allMeta()
	if err != nil {
		return st, fmt.Errorf("load meta: %w", err)
	}
	if st.StartYear, err = strconv.Atoi(meta[MetaStartYear]); err != nil {
		return st, fmt.Errorf("meta %s: %w", MetaStartYear, err)
	}
	year, err := strconv.Atoi(meta[MetaYear])
	if err != nil {
		return st, fmt.Errorf("meta %s: %w", MetaYear, err)
	}
	season, err := strconv.ParseUint(meta[MetaSeason], 10, 8)
	if err != nil {
		return st, fmt.Errorf("meta %s: %w", MetaSeason, err)
	}
	st.Now = clock.Date{Year: year, Season: uint8(season)}
	st.Winner = ids.CharID(meta[MetaWinner])
	if err := json.Unmarshal([]byte(meta[MetaCounters]), &st.Counters); err != nil {
		return st, fmt.Errorf("meta %s: %w", MetaCounters, err)
	}
	if err := json.Unmarshal([]byte(meta[MetaUsers]), &st.Users); err != nil {
		return st, fmt.Errorf("meta %s: %w", MetaUsers, err)
	}

	if st.Kingdoms, err = readRows[*realm.Kingdom](db.conn, "SELECT data_json FROM kingdoms ORDER BY id"); err != nil {
		return st, fmt.Errorf("load kingdoms: %w", err)
	}
	if st.Provinces, err = readRows[*realm.Province](db.conn, "SELECT data_json FROM provinces ORDER BY id"); err != nil {
		return st, fmt.Errorf("load provinces: %w", err)
	}
	if st.Fiefs, err = readRows[*realm.Fief](db.conn, "SELECT data_json FROM fiefs ORDER BY id"); err != nil {
		return st, fmt.Errorf("load fiefs: %w", err)
	}
	if st.Characters, err = readRows[*character.Character](db.conn, "SELECT data_json FROM characters ORDER BY id"); err != nil {
		return st, fmt.Errorf("load characters: %w", err)
	}
	if st.Armies, err = readRows[*realm.Army](db.conn, "SELECT data_json FROM armies ORDER BY id"); err != nil {
		return st, fmt.Errorf("load armies: %w", err)
	}
	if st.Sieges, err = readRows[*realm.Siege](db.conn, "SELECT data_json FROM sieges ORDER BY id"); err != nil {
		return st, fmt.Errorf("load sieges: %w", err)
	}
	if st.Challenges, err = readRows[*realm.OwnershipChallenge](db.conn, "SELECT data_json FROM challenges ORDER BY id"); err != nil {
		return st, fmt.Errorf("load challenges: %w", err)
	}
	if st.Journal, err = readRows[journal.Entry](db.conn, "SELECT data_json FROM journal ORDER BY id"); err != nil {
		return st, fmt.Errorf("load journal: %w", err)
	}
	if st.Scheduled, err = readRows[journal.Entry](db.conn, "SELECT data_json FROM scheduled ORDER BY seq"); err != nil {
		return st, fmt.Errorf("load scheduled: %w", err)
	}
	return st, nil
}

// SaveMeta stores a key-value pair in world metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	return value, err
}

func (db *DB) allMeta() (map[string]string, error) {
	var rows []struct {
		Key   string `db:"key"`
		Value string `db:"value"`
	}
	if err := db.conn.Select(&rows, "SELECT key, value FROM world_meta"); err != nil {
		return nil, err
	}
	m := make(map[string]string, len(rows))
	for _, r := range rows {
		m[r.Key] = r.Value
	}
	return m, nil
}

// RecentEntries returns the most recent journal entries, newest first.
func (db *DB) RecentEntries(limit int) ([]journal.Entry, error) {
	return readRows[journal.Entry](db.conn, "SELECT data_json FROM journal ORDER BY id DESC LIMIT ?", limit)
}
