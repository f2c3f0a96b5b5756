// Package storage provides SQLite-based session logging for cave episodes.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Store handles SQLite database operations for episode session logging.
type Store struct {
	db *sql.DB
}

// Session represents one episode record.
type Session struct {
	ID          string     `json:"id"`
	MapHash     string     `json:"map_hash"`
	Skill       int        `json:"skill"`
	Seed        int64      `json:"seed"`
	StartedAt   time.Time  `json:"started_at"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
	TotalTicks  int        `json:"total_ticks"`
	GoldBanked  int        `json:"gold_banked"`
	TotalReward float64    `json:"total_reward"`
	Exited      bool       `json:"exited"`
	Died        bool       `json:"died"`
}

// Decision represents a single decision/tick record.
type Decision struct {
	ID            int64     `json:"id"`
	SessionID     string    `json:"session_id"`
	Tick          int       `json:"tick"`
	Timestamp     time.Time `json:"timestamp"`
	Col           int       `json:"col"`
	Row           int       `json:"row"`
	Gold          int       `json:"gold"`
	Action        string    `json:"action"`
	Reward        float64   `json:"reward"`
	BridgeAttempt bool      `json:"bridge_attempt"`
	BridgeSuccess bool      `json:"bridge_success"`
}

// NewSessionID returns a fresh session identifier.
func NewSessionID() string {
	return uuid.New().String()
}

// New creates a new Store with the given database path.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		map_hash TEXT NOT NULL,
		skill INTEGER NOT NULL DEFAULT 0,
		seed INTEGER NOT NULL DEFAULT 0,
		started_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		ended_at DATETIME,
		total_ticks INTEGER DEFAULT 0,
		gold_banked INTEGER DEFAULT 0,
		total_reward REAL DEFAULT 0,
		exited INTEGER DEFAULT 0,
		died INTEGER DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS decisions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		timestamp DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		col INTEGER NOT NULL,
		row INTEGER NOT NULL,
		gold INTEGER NOT NULL DEFAULT 0,
		action TEXT NOT NULL,
		reward REAL NOT NULL DEFAULT 0,
		bridge_attempt INTEGER DEFAULT 0,
		bridge_success INTEGER DEFAULT 0,
		FOREIGN KEY (session_id) REFERENCES sessions(id)
	);

	CREATE INDEX IF NOT EXISTS idx_decisions_session ON decisions(session_id);
	CREATE INDEX IF NOT EXISTS idx_decisions_session_tick ON decisions(session_id, tick);
	CREATE INDEX IF NOT EXISTS idx_sessions_map ON sessions(map_hash);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection for custom queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// CreateSession creates a new session record.
func (s *Store) CreateSession(id, mapHash string, skill int, seed int64) error {
	_, err := s.db.Exec(
		`INSERT INTO sessions (id, map_hash, skill, seed, started_at) VALUES (?, ?, ?, ?, ?)`,
		id, mapHash, skill, seed, time.Now().UTC(),
	)
	return err
}

// EndSession marks a session as ended with its final outcome.
func (s *Store) EndSession(id string, ticks, gold int, totalReward float64, exited, died bool) error {
	_, err := s.db.Exec(
		`UPDATE sessions SET ended_at = ?, total_ticks = ?, gold_banked = ?,
		 total_reward = ?, exited = ?, died = ?
		 WHERE id = ?`,
		time.Now().UTC(), ticks, gold, totalReward, exited, died, id,
	)
	return err
}

// LogDecision logs a single decision.
func (s *Store) LogDecision(d *Decision) error {
	_, err := s.db.Exec(
		`INSERT INTO decisions (session_id, tick, timestamp, col, row, gold,
		 action, reward, bridge_attempt, bridge_success)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.SessionID, d.Tick, time.Now().UTC(), d.Col, d.Row, d.Gold,
		d.Action, d.Reward, d.BridgeAttempt, d.BridgeSuccess,
	)
	return err
}

// GetSession retrieves a session by ID.
func (s *Store) GetSession(id string) (*Session, error) {
	row := s.db.QueryRow(
		`SELECT id, map_hash, skill, seed, started_at, ended_at, total_ticks,
		 gold_banked, total_reward, exited, died
		 FROM sessions WHERE id = ?`, id,
	)
	return scanSession(row)
}

func scanSession(row *sql.Row) (*Session, error) {
	var sess Session
	var endedAt sql.NullTime
	err := row.Scan(&sess.ID, &sess.MapHash, &sess.Skill, &sess.Seed,
		&sess.StartedAt, &endedAt, &sess.TotalTicks, &sess.GoldBanked,
		&sess.TotalReward, &sess.Exited, &sess.Died)
	if err != nil {
		return nil, err
	}
	if endedAt.Valid {
		sess.EndedAt = &endedAt.Time
	}
	return &sess, nil
}

// GetDecisions retrieves all decisions for a session in tick order.
func (s *Store) GetDecisions(sessionID string) ([]*Decision, error) {
	rows, err := s.db.Query(
		`SELECT id, session_id, tick, timestamp, col, row, gold, action,
		 reward, bridge_attempt, bridge_success
		 FROM decisions WHERE session_id = ? ORDER BY tick`, sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var decisions []*Decision
	for rows.Next() {
		var d Decision
		err := rows.Scan(&d.ID, &d.SessionID, &d.Tick, &d.Timestamp,
			&d.Col, &d.Row, &d.Gold, &d.Action, &d.Reward,
			&d.BridgeAttempt, &d.BridgeSuccess)
		if err != nil {
			return nil, err
		}
		decisions = append(decisions, &d)
	}
	return decisions, rows.Err()
}

// RecentSessions returns the most recent sessions.
func (s *Store) RecentSessions(limit int) ([]*Session, error) {
	rows, err := s.db.Query(
		`SELECT id, map_hash, skill, seed, started_at, ended_at, total_ticks,
		 gold_banked, total_reward, exited, died
		 FROM sessions ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		var sess Session
		var endedAt sql.NullTime
		err := rows.Scan(&sess.ID, &sess.MapHash, &sess.Skill, &sess.Seed,
			&sess.StartedAt, &endedAt, &sess.TotalTicks, &sess.GoldBanked,
			&sess.TotalReward, &sess.Exited, &sess.Died)
		if err != nil {
			return nil, err
		}
		if endedAt.Valid {
			sess.EndedAt = &endedAt.Time
		}
		sessions = append(sessions, &sess)
	}
	return sessions, rows.Err()
}

// MapSummary provides aggregated outcomes across sessions on one map.
type MapSummary struct {
	MapHash        string  `json:"map_hash"`
	Sessions       int     `json:"sessions"`
	Exits          int     `json:"exits"`
	Deaths         int     `json:"deaths"`
	AvgGold        float64 `json:"avg_gold"`
	AvgReward      float64 `json:"avg_reward"`
	BridgeAttempts int     `json:"bridge_attempts"`
	BridgeCrossed  int     `json:"bridge_crossed"`
}

// GetMapSummary returns aggregated stats for all sessions on a map.
func (s *Store) GetMapSummary(mapHash string) (*MapSummary, error) {
	sum := &MapSummary{MapHash: mapHash}

	row := s.db.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(exited), 0), COALESCE(SUM(died), 0),
		 COALESCE(AVG(gold_banked), 0), COALESCE(AVG(total_reward), 0)
		 FROM sessions WHERE map_hash = ?`, mapHash,
	)
	if err := row.Scan(&sum.Sessions, &sum.Exits, &sum.Deaths, &sum.AvgGold, &sum.AvgReward); err != nil {
		return nil, err
	}

	row = s.db.QueryRow(
		`SELECT COALESCE(SUM(d.bridge_attempt), 0), COALESCE(SUM(d.bridge_success), 0)
		 FROM decisions d JOIN sessions sess ON d.session_id = sess.id
		 WHERE sess.map_hash = ?`, mapHash,
	)
	if err := row.Scan(&sum.BridgeAttempts, &sum.BridgeCrossed); err != nil {
		return nil, err
	}

	return sum, nil
}

// ExportSessionJSON exports a session and its decisions as JSON.
func (s *Store) ExportSessionJSON(sessionID string) ([]byte, error) {
	sess, err := s.GetSession(sessionID)
	if err != nil {
		return nil, err
	}

	decisions, err := s.GetDecisions(sessionID)
	if err != nil {
		return nil, err
	}

	export := map[string]any{
		"session":   sess,
		"decisions": decisions,
	}

	return json.MarshalIndent(export, "", "  ")
}
