// Package domain contains core domain types for the Lyra tutoring backend.
package domain

import (
	"strings"
	"time"
)

// MessageRole distinguishes who authored a transcript message.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// ChatSession groups the ordered messages of one conversation under one subject.
// Created exactly once, at the first message of a new conversation.
type ChatSession struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Subject   string    `json:"subject"`
	Title     string    `json:"title"`
	StartTime time.Time `json:"start_time"`
}

// Message is a single append-only transcript entry, ordered by CreatedAt.
type Message struct {
	ID        string      `json:"id"`
	SessionID string      `json:"session_id"`
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"created_at"`
}

// TeacherSettings holds per-teacher-per-subject customization applied to a
// student's prompt. Written by the teacher-facing flow; read-only here.
type TeacherSettings struct {
	SystemPrompt   string   `json:"system_prompt"`
	ExampleAnswers []string `json:"example_answers"`
}

// SettingsKey builds the deterministic teacher-settings document key for a
// teacher and subject, with whitespace in the subject replaced by dashes.
func SettingsKey(teacherID, subject string) string {
	return teacherID + "_" + strings.Join(strings.Fields(subject), "-")
}
