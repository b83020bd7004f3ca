// Package store provides transcript and profile persistence.
package store

import (
	"context"
	"errors"

	"github.com/akshay-abraham/lyra/internal/domain"
)

// ErrNotFound is returned when a requested document does not exist.
var ErrNotFound = errors.New("store: not found")

// Repository defines the interface for persisting profiles, sessions,
// messages, and teacher settings. Sessions and messages are create/append
// only; nothing in this interface mutates or deletes transcript data.
type Repository interface {
	// GetUserProfile retrieves a profile by user id.
	GetUserProfile(ctx context.Context, userID string) (*domain.UserProfile, error)

	// UpsertUserProfile creates or updates a profile record.
	UpsertUserProfile(ctx context.Context, profile *domain.UserProfile) error

	// FindTeachers returns teacher profiles for the given school whose taught
	// classes include class. Subject filtering is left to the caller; the
	// store supports only one set-membership constraint per query.
	FindTeachers(ctx context.Context, school, class string) ([]*domain.UserProfile, error)

	// GetTeacherSettings fetches a settings document by its deterministic key.
	GetTeacherSettings(ctx context.Context, key string) (*domain.TeacherSettings, error)

	// UpsertTeacherSettings creates or updates a settings document.
	UpsertTeacherSettings(ctx context.Context, key string, settings *domain.TeacherSettings) error

	// CreateSession creates a session with a generated id and server-assigned
	// start time.
	CreateSession(ctx context.Context, userID, subject, title string) (*domain.ChatSession, error)

	// GetSession retrieves a session by id.
	GetSession(ctx context.Context, sessionID string) (*domain.ChatSession, error)

	// ListSessions returns a user's sessions, newest first.
	ListSessions(ctx context.Context, userID string) ([]*domain.ChatSession, error)

	// AppendMessage appends a message with a generated id and server-assigned
	// creation time.
	AppendMessage(ctx context.Context, sessionID string, role domain.MessageRole, content string) (*domain.Message, error)

	// ListMessages returns a session's messages ordered by creation time
	// ascending.
	ListMessages(ctx context.Context, sessionID string) ([]*domain.Message, error)

	// Ping verifies store connectivity.
	Ping(ctx context.Context) error

	// Close closes the store.
	Close() error
}
