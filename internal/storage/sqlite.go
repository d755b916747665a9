// Package storage archives battle recordings in SQLite. It uses the
// pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/rdowning07/starter-town-tactics-sub001/internal/sim"
)

// Store manages the SQLite connection for the replay archive.
type Store struct {
	db *sql.DB
}

// Record is one archived battle: the identifying header plus the full
// JSON recording. Seed and FinalHash round-trip through SQLite's
// signed INTEGER column via int64 conversion.
type Record struct {
	ID         int64
	Scenario   string
	Seed       uint64
	Difficulty string
	Outcome    string
	Ticks      uint64
	FinalHash  uint64
	Log        []byte
	CreatedAt  time.Time
}

// NewRecord builds an archive row from a battle's recording.
func NewRecord(r sim.Replay, difficulty string) (Record, error) {
	data, err := r.Marshal()
	if err != nil {
		return Record{}, fmt.Errorf("storage: encoding replay: %w", err)
	}
	if difficulty == "" {
		difficulty = "normal"
	}
	return Record{
		Scenario:   r.Scenario,
		Seed:       r.Seed,
		Difficulty: difficulty,
		Outcome:    r.Outcome,
		Ticks:      r.Ticks,
		FinalHash:  r.FinalHash,
		Log:        data,
	}, nil
}

// Recording decodes the stored replay log.
func (r Record) Recording() (sim.Replay, error) {
	return sim.ParseReplay(r.Log)
}

// HashString renders the final hash the way the CLI prints it.
func (r Record) HashString() string {
	return fmt.Sprintf("%016x", r.FinalHash)
}

// Open creates or opens the archive database at the given path. It
// expands a leading ~, creates parent directories and runs migrations.
func Open(dbPath string) (*Store, error) {
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}
	return store, nil
}

// migrate creates the schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS replays (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			scenario TEXT NOT NULL,
			seed INTEGER NOT NULL,
			difficulty TEXT NOT NULL DEFAULT 'normal',
			outcome TEXT NOT NULL,
			ticks INTEGER NOT NULL,
			final_hash INTEGER NOT NULL,
			log_json BLOB NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_replays_scenario ON replays(scenario);
		CREATE INDEX IF NOT EXISTS idx_replays_recent ON replays(created_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Save archives one battle and returns the row id.
func (s *Store) Save(rec Record) (int64, error) {
	result, err := s.db.Exec(
		`INSERT INTO replays (scenario, seed, difficulty, outcome, ticks, final_hash, log_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.Scenario,
		int64(rec.Seed),
		rec.Difficulty,
		rec.Outcome,
		int64(rec.Ticks),
		int64(rec.FinalHash),
		rec.Log,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save replay: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}
	return id, nil
}

// ByID retrieves one archived battle, or nil when the id is unknown.
func (s *Store) ByID(id int64) (*Record, error) {
	var (
		rec               Record
		seed, ticks, hash int64
		createdAt         any
	)
	err := s.db.QueryRow(
		`SELECT id, scenario, seed, difficulty, outcome, ticks, final_hash, log_json, created_at
		 FROM replays WHERE id = ?`, id,
	).Scan(&rec.ID, &rec.Scenario, &seed, &rec.Difficulty, &rec.Outcome, &ticks, &hash, &rec.Log, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query replay %d: %w", id, err)
	}
	rec.Seed, rec.Ticks, rec.FinalHash = uint64(seed), uint64(ticks), uint64(hash)
	rec.CreatedAt = scanTime(createdAt)
	return &rec, nil
}

// Recent lists archived battles, newest first. An empty scenario lists
// every scenario; limit <= 0 means 20.
func (s *Store) Recent(scenario string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT id, scenario, seed, difficulty, outcome, ticks, final_hash, log_json, created_at
	          FROM replays`
	args := []any{}
	if scenario != "" {
		query += ` WHERE scenario = ?`
		args = append(args, scenario)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query replays: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			rec               Record
			seed, ticks, hash int64
			createdAt         any
		)
		if err := rows.Scan(&rec.ID, &rec.Scenario, &seed, &rec.Difficulty, &rec.Outcome,
			&ticks, &hash, &rec.Log, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		rec.Seed, rec.Ticks, rec.FinalHash = uint64(seed), uint64(ticks), uint64(hash)
		rec.CreatedAt = scanTime(createdAt)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return records, nil
}

// Delete removes one archived battle.
func (s *Store) Delete(id int64) error {
	result, err := s.db.Exec("DELETE FROM replays WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("storage: cannot delete replay %d: %w", id, err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("storage: no replay with id %d", id)
	}
	return nil
}

// ScenarioStats aggregates the archive per scenario.
type ScenarioStats struct {
	Scenario   string
	Battles    int
	Victories  int
	Defeats    int
	AvgTicks   float64
	LastPlayed time.Time
}

// Stats aggregates every archived scenario in name order.
func (s *Store) Stats() ([]ScenarioStats, error) {
	rows, err := s.db.Query(
		`SELECT scenario, COUNT(*),
		        COALESCE(SUM(CASE WHEN outcome = 'victory' THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN outcome = 'defeat' THEN 1 ELSE 0 END), 0),
		        COALESCE(AVG(ticks), 0),
		        MAX(created_at)
		 FROM replays
		 GROUP BY scenario
		 ORDER BY scenario`,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query stats: %w", err)
	}
	defer rows.Close()

	var stats []ScenarioStats
	for rows.Next() {
		var st ScenarioStats
		var lastPlayed any
		if err := rows.Scan(&st.Scenario, &st.Battles, &st.Victories, &st.Defeats,
			&st.AvgTicks, &lastPlayed); err != nil {
			return nil, fmt.Errorf("storage: cannot scan stats row: %w", err)
		}
		st.LastPlayed = scanTime(lastPlayed)
		stats = append(stats, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return stats, nil
}

// scanTime converts the driver's created_at representation, which may
// arrive as time.Time or as a string.
func scanTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
