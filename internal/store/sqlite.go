package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/akshay-abraham/lyra/internal/domain"
)

// SQLiteStore implements Repository using the pure-Go SQLite driver.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a SQLite-backed repository. Use ":memory:" for tests.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	// WAL allows concurrent reads during writes; busy_timeout avoids
	// SQLITE_BUSY under burst writes.
	dsn := dbPath +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=foreign_keys(ON)" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=synchronous(NORMAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if dbPath == ":memory:" {
		// Each pooled connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		user_id TEXT PRIMARY KEY,
		role TEXT NOT NULL,
		class TEXT NOT NULL DEFAULT '',
		school TEXT NOT NULL DEFAULT '',
		classes_taught TEXT NOT NULL DEFAULT '[]',
		subjects_taught TEXT NOT NULL DEFAULT '[]'
	);
	CREATE INDEX IF NOT EXISTS idx_users_role_school ON users(role, school);

	CREATE TABLE IF NOT EXISTS chat_sessions (
		session_id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		subject TEXT NOT NULL,
		title TEXT NOT NULL,
		start_time INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_user ON chat_sessions(user_id, start_time);

	CREATE TABLE IF NOT EXISTS messages (
		message_id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL REFERENCES chat_sessions(session_id),
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, created_at);

	CREATE TABLE IF NOT EXISTS teacher_settings (
		settings_key TEXT PRIMARY KEY,
		system_prompt TEXT NOT NULL,
		example_answers TEXT NOT NULL DEFAULT '[]'
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// GetUserProfile retrieves a profile by user id.
func (s *SQLiteStore) GetUserProfile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	query := `
		SELECT user_id, role, class, school, classes_taught, subjects_taught
		FROM users WHERE user_id = ?`

	return scanProfile(s.db.QueryRowContext(ctx, query, userID))
}

// UpsertUserProfile creates or updates a profile record.
func (s *SQLiteStore) UpsertUserProfile(ctx context.Context, profile *domain.UserProfile) error {
	classes, err := json.Marshal(emptyIfNil(profile.ClassesTaught))
	if err != nil {
		return fmt.Errorf("marshal classes: %w", err)
	}
	subjects, err := json.Marshal(emptyIfNil(profile.SubjectsTaught))
	if err != nil {
		return fmt.Errorf("marshal subjects: %w", err)
	}

	query := `
		INSERT INTO users (user_id, role, class, school, classes_taught, subjects_taught)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			role = excluded.role,
			class = excluded.class,
			school = excluded.school,
			classes_taught = excluded.classes_taught,
			subjects_taught = excluded.subjects_taught`

	if _, err := s.db.ExecContext(ctx, query, profile.UserID, string(profile.Role),
		profile.Class, profile.School, string(classes), string(subjects)); err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// FindTeachers returns teacher profiles for a school whose taught classes
// include class. This is the store-side half of settings resolution; the
// subject predicate is applied in-process by the caller.
func (s *SQLiteStore) FindTeachers(ctx context.Context, school, class string) ([]*domain.UserProfile, error) {
	query := `
		SELECT user_id, role, class, school, classes_taught, subjects_taught
		FROM users
		WHERE role = ? AND school = ?
		  AND EXISTS (SELECT 1 FROM json_each(users.classes_taught) WHERE json_each.value = ?)
		ORDER BY user_id`

	rows, err := s.db.QueryContext(ctx, query, string(domain.RoleTeacher), school, class)
	if err != nil {
		return nil, fmt.Errorf("query teachers: %w", err)
	}
	defer rows.Close()

	var teachers []*domain.UserProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		teachers = append(teachers, p)
	}
	return teachers, rows.Err()
}

// GetTeacherSettings fetches a settings document by key.
func (s *SQLiteStore) GetTeacherSettings(ctx context.Context, key string) (*domain.TeacherSettings, error) {
	query := `SELECT system_prompt, example_answers FROM teacher_settings WHERE settings_key = ?`

	var settings domain.TeacherSettings
	var examples string
	err := s.db.QueryRowContext(ctx, query, key).Scan(&settings.SystemPrompt, &examples)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get settings %q: %w", key, err)
	}

	if err := json.Unmarshal([]byte(examples), &settings.ExampleAnswers); err != nil {
		return nil, fmt.Errorf("unmarshal examples for %q: %w", key, err)
	}
	return &settings, nil
}

// UpsertTeacherSettings creates or updates a settings document.
func (s *SQLiteStore) UpsertTeacherSettings(ctx context.Context, key string, settings *domain.TeacherSettings) error {
	examples, err := json.Marshal(emptyIfNil(settings.ExampleAnswers))
	if err != nil {
		return fmt.Errorf("marshal examples: %w", err)
	}

	query := `
		INSERT INTO teacher_settings (settings_key, system_prompt, example_answers)
		VALUES (?, ?, ?)
		ON CONFLICT(settings_key) DO UPDATE SET
			system_prompt = excluded.system_prompt,
			example_answers = excluded.example_answers`

	if _, err := s.db.ExecContext(ctx, query, key, settings.SystemPrompt, string(examples)); err != nil {
		return fmt.Errorf("upsert settings %q: %w", key, err)
	}
	return nil
}

// CreateSession creates a session with a generated id and server-assigned
// start time.
func (s *SQLiteStore) CreateSession(ctx context.Context, userID, subject, title string) (*domain.ChatSession, error) {
	session := &domain.ChatSession{
		ID:        uuid.NewString(),
		UserID:    userID,
		Subject:   subject,
		Title:     title,
		StartTime: time.Now().UTC(),
	}

	query := `
		INSERT INTO chat_sessions (session_id, user_id, subject, title, start_time)
		VALUES (?, ?, ?, ?, ?)`

	if _, err := s.db.ExecContext(ctx, query, session.ID, session.UserID,
		session.Subject, session.Title, session.StartTime.UnixNano()); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

// GetSession retrieves a session by id.
func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (*domain.ChatSession, error) {
	query := `
		SELECT session_id, user_id, subject, title, start_time
		FROM chat_sessions WHERE session_id = ?`

	var session domain.ChatSession
	var startTime int64
	err := s.db.QueryRowContext(ctx, query, sessionID).Scan(
		&session.ID, &session.UserID, &session.Subject, &session.Title, &startTime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session %q: %w", sessionID, err)
	}

	session.StartTime = time.Unix(0, startTime).UTC()
	return &session, nil
}

// ListSessions returns a user's sessions, newest first.
func (s *SQLiteStore) ListSessions(ctx context.Context, userID string) ([]*domain.ChatSession, error) {
	query := `
		SELECT session_id, user_id, subject, title, start_time
		FROM chat_sessions WHERE user_id = ?
		ORDER BY start_time DESC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*domain.ChatSession
	for rows.Next() {
		var session domain.ChatSession
		var startTime int64
		if err := rows.Scan(&session.ID, &session.UserID, &session.Subject,
			&session.Title, &startTime); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		session.StartTime = time.Unix(0, startTime).UTC()
		sessions = append(sessions, &session)
	}
	return sessions, rows.Err()
}

// AppendMessage appends a message with a generated id and server-assigned
// creation time.
func (s *SQLiteStore) AppendMessage(ctx context.Context, sessionID string, role domain.MessageRole, content string) (*domain.Message, error) {
	msg := &domain.Message{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}

	query := `
		INSERT INTO messages (message_id, session_id, role, content, created_at)
		VALUES (?, ?, ?, ?, ?)`

	if _, err := s.db.ExecContext(ctx, query, msg.ID, msg.SessionID,
		string(msg.Role), msg.Content, msg.CreatedAt.UnixNano()); err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}
	return msg, nil
}

// ListMessages returns a session's messages ordered by creation time
// ascending. Rowid breaks creation-time ties in insert order.
func (s *SQLiteStore) ListMessages(ctx context.Context, sessionID string) ([]*domain.Message, error) {
	query := `
		SELECT message_id, session_id, role, content, created_at
		FROM messages WHERE session_id = ?
		ORDER BY created_at ASC, rowid ASC`

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var messages []*domain.Message
	for rows.Next() {
		var msg domain.Message
		var role string
		var createdAt int64
		if err := rows.Scan(&msg.ID, &msg.SessionID, &role, &msg.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msg.Role = domain.MessageRole(role)
		msg.CreatedAt = time.Unix(0, createdAt).UTC()
		messages = append(messages, &msg)
	}
	return messages, rows.Err()
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*domain.UserProfile, error) {
	var p domain.UserProfile
	var role, classes, subjects string
	err := row.Scan(&p.UserID, &role, &p.Class, &p.School, &classes, &subjects)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan profile: %w", err)
	}

	p.Role = domain.UserRole(role)
	if err := json.Unmarshal([]byte(classes), &p.ClassesTaught); err != nil {
		return nil, fmt.Errorf("unmarshal classes: %w", err)
	}
	if err := json.Unmarshal([]byte(subjects), &p.SubjectsTaught); err != nil {
		return nil, fmt.Errorf("unmarshal subjects: %w", err)
	}
	return &p, nil
}

func emptyIfNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
