package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err = store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS users (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        email TEXT UNIQUE NOT NULL,
        name TEXT NOT NULL DEFAULT '',
        password_hash TEXT NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS essays (
        id TEXT PRIMARY KEY, -- UUID
        user_id INTEGER NOT NULL,
        topic TEXT NOT NULL,
        body TEXT NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY (user_id) REFERENCES users (id)
    );

    CREATE TABLE IF NOT EXISTS corrections (
        id TEXT PRIMARY KEY, -- UUID
        essay_id TEXT NOT NULL,
        total INTEGER NOT NULL,
        grade_json TEXT NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY (essay_id) REFERENCES essays (id)
    );

    CREATE INDEX IF NOT EXISTS idx_essays_user ON essays (user_id, created_at);
    CREATE INDEX IF NOT EXISTS idx_corrections_essay ON corrections (essay_id, created_at);
    `
	_, err := s.db.Exec(schema)
	return err
}

// User methods

func (s *SQLiteStore) GetUserByEmail(email string) (*User, error) {
	var user User
	err := s.db.QueryRow("SELECT id, email, name, password_hash, created_at FROM users WHERE email = ?", email).
		Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &user, nil
}

func (s *SQLiteStore) GetUserByID(id int64) (*User, error) {
	var user User
	err := s.db.QueryRow("SELECT id, email, name, password_hash, created_at FROM users WHERE id = ?", id).
		Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return &user, nil
}

func (s *SQLiteStore) CreateUser(email, name, passwordHash string) (*User, error) {
	res, err := s.db.Exec("INSERT INTO users (email, name, password_hash) VALUES (?, ?, ?)", email, name, passwordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetUserByID(id)
}

func (s *SQLiteStore) UpdateUserName(id int64, name string) (*User, error) {
	res, err := s.db.Exec("UPDATE users SET name = ? WHERE id = ?", name, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return nil, nil
	}
	return s.GetUserByID(id)
}

// Essay methods

// FindOrCreateEssay returns the existing essay for an identical (user, topic,
// body) submission, creating one when none exists. The lookup and insert run
// in one transaction; a concurrent identical submission can still slip in a
// duplicate row, which is tolerated.
func (s *SQLiteStore) FindOrCreateEssay(userID int64, topic, body string) (*Essay, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var essay Essay
	err = tx.QueryRow(
		"SELECT id, user_id, topic, body, created_at FROM essays WHERE user_id = ? AND topic = ? AND body = ? LIMIT 1",
		userID, topic, body,
	).Scan(&essay.ID, &essay.UserID, &essay.Topic, &essay.Body, &essay.CreatedAt)
	if err == nil {
		return &essay, tx.Commit()
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to query essay: %w", err)
	}

	essay = Essay{
		ID:        uuid.NewString(),
		UserID:    userID,
		Topic:     topic,
		Body:      body,
		CreatedAt: time.Now(),
	}
	_, err = tx.Exec(
		"INSERT INTO essays (id, user_id, topic, body, created_at) VALUES (?, ?, ?, ?, ?)",
		essay.ID, essay.UserID, essay.Topic, essay.Body, essay.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert essay: %w", err)
	}
	return &essay, tx.Commit()
}

func (s *SQLiteStore) GetEssayByID(essayID string, userID int64) (*Essay, error) {
	var essay Essay
	err := s.db.QueryRow(
		"SELECT id, user_id, topic, body, created_at FROM essays WHERE id = ? AND user_id = ?",
		essayID, userID,
	).Scan(&essay.ID, &essay.UserID, &essay.Topic, &essay.Body, &essay.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get essay: %w", err)
	}
	return &essay, nil
}

// Correction methods

func (s *SQLiteStore) CreateCorrection(essayID string, total int, grade json.RawMessage) (*Correction, error) {
	correction := Correction{
		ID:        uuid.NewString(),
		EssayID:   essayID,
		Total:     total,
		Grade:     grade,
		CreatedAt: time.Now(),
	}
	_, err := s.db.Exec(
		"INSERT INTO corrections (id, essay_id, total, grade_json, created_at) VALUES (?, ?, ?, ?, ?)",
		correction.ID, correction.EssayID, correction.Total, string(grade), correction.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert correction: %w", err)
	}
	return &correction, nil
}

func (s *SQLiteStore) GetCorrectionsByEssayID(essayID string) ([]Correction, error) {
	rows, err := s.db.Query(
		"SELECT id, essay_id, total, grade_json, created_at FROM corrections WHERE essay_id = ? ORDER BY created_at DESC, rowid DESC",
		essayID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query corrections: %w", err)
	}
	defer rows.Close()

	var corrections []Correction
	for rows.Next() {
		var c Correction
		var gradeJSON string
		if err := rows.Scan(&c.ID, &c.EssayID, &c.Total, &gradeJSON, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan correction row: %w", err)
		}
		c.Grade = json.RawMessage(gradeJSON)
		corrections = append(corrections, c)
	}
	return corrections, rows.Err()
}

// ListEssaysWithLatestCorrection returns every essay of a user, oldest first,
// each paired with its most recent correction (nil when the essay has none).
func (s *SQLiteStore) ListEssaysWithLatestCorrection(userID int64) ([]EssayWithCorrection, error) {
	query := `
        SELECT e.id, e.user_id, e.topic, e.body, e.created_at,
               c.id, c.total, c.grade_json, c.created_at
        FROM essays e
        LEFT JOIN corrections c ON c.id = (
            SELECT c2.id FROM corrections c2
            WHERE c2.essay_id = e.id
            ORDER BY c2.created_at DESC, c2.rowid DESC
            LIMIT 1
        )
        WHERE e.user_id = ?
        ORDER BY e.created_at ASC, e.rowid ASC
    `
	rows, err := s.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query essays: %w", err)
	}
	defer rows.Close()

	var results []EssayWithCorrection
	for rows.Next() {
		var ewc EssayWithCorrection
		var corrID sql.NullString
		var corrTotal sql.NullInt64
		var corrGrade sql.NullString
		var corrCreated sql.NullTime
		err := rows.Scan(
			&ewc.Essay.ID, &ewc.Essay.UserID, &ewc.Essay.Topic, &ewc.Essay.Body, &ewc.Essay.CreatedAt,
			&corrID, &corrTotal, &corrGrade, &corrCreated,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan essay row: %w", err)
		}
		if corrID.Valid {
			ewc.Latest = &Correction{
				ID:        corrID.String,
				EssayID:   ewc.Essay.ID,
				Total:     int(corrTotal.Int64),
				Grade:     json.RawMessage(corrGrade.String),
				CreatedAt: corrCreated.Time,
			}
		}
		results = append(results, ewc)
	}
	return results, rows.Err()
}
