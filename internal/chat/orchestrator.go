// Package chat coordinates the stateful send-message sequence: session
// resolution, settings resolution, provider routing, and transcript
// persistence.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/akshay-abraham/lyra/internal/domain"
	"github.com/akshay-abraham/lyra/internal/notify"
	"github.com/akshay-abraham/lyra/internal/observability"
	"github.com/akshay-abraham/lyra/internal/settings"
	"github.com/akshay-abraham/lyra/internal/store"
	"github.com/akshay-abraham/lyra/internal/tutor"
)

var (
	// ErrNoIdentity is returned when no authenticated user id is supplied.
	ErrNoIdentity = errors.New("chat: no authenticated identity")
	// ErrNoContent is returned for an empty message.
	ErrNoContent = errors.New("chat: message content is required")
	// ErrNoSubject is returned when neither the session nor the caller
	// carries a subject.
	ErrNoSubject = errors.New("chat: subject is required")
	// ErrBusy is returned when a send for the same user is already in
	// flight. No side effects have happened.
	ErrBusy = errors.New("chat: a send is already in progress")
	// ErrForbidden is returned when the session belongs to another user.
	ErrForbidden = errors.New("chat: session belongs to another user")
)

// apologyMessage is the fixed assistant reply persisted when routing fails,
// so the transcript never ends on a blank state.
const apologyMessage = "Sorry, I couldn't reach the tutoring service just now. " +
	"Please send your question again in a moment."

// SendInput is one send-message call. SessionID is empty for the first
// message of a new conversation; Model is empty for the default route.
type SendInput struct {
	UserID    string
	SessionID string
	Subject   string
	Content   string
	Model     string
}

// SendResult reports where the conversation lives and the assistant reply
// that was persisted (the routed answer or the apology).
type SendResult struct {
	SessionID string
	Reply     *domain.Message
}

// Orchestrator owns the lifecycle transition from "no session" to "session
// with id" and produces at most two transcript writes per call, user message
// first.
type Orchestrator struct {
	store    store.Repository
	router   *tutor.Router
	settings *settings.Resolver
	titles   TitleGenerator
	notifier notify.Notifier
	logger   *zap.Logger
	metrics  *observability.Metrics

	mu       sync.Mutex
	inFlight map[string]bool
}

// NewOrchestrator constructs an Orchestrator.
func NewOrchestrator(repo store.Repository, router *tutor.Router, resolver *settings.Resolver,
	titles TitleGenerator, notifier notify.Notifier, logger *zap.Logger, metrics *observability.Metrics) *Orchestrator {
	if titles == nil {
		titles = WordClampTitler{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		store:    repo,
		router:   router,
		settings: resolver,
		titles:   titles,
		notifier: notifier,
		logger:   logger,
		metrics:  metrics,
		inFlight: make(map[string]bool),
	}
}

// IsLoading reports whether a send for userID is currently in flight.
func (o *Orchestrator) IsLoading(userID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.inFlight[userID]
}

// SendMessage runs one send-message call. Validation failures return an error
// with no side effects; provider failures are absorbed into a persisted
// apology message plus a notification and do not surface as errors.
func (o *Orchestrator) SendMessage(ctx context.Context, in SendInput) (SendResult, error) {
	content := strings.TrimSpace(in.Content)
	switch {
	case in.UserID == "":
		return SendResult{}, ErrNoIdentity
	case content == "":
		return SendResult{}, ErrNoContent
	}

	if !o.begin(in.UserID) {
		return SendResult{}, ErrBusy
	}
	defer o.end(in.UserID)

	o.metrics.IncActiveSends()
	defer o.metrics.DecActiveSends()

	started := time.Now()
	outcome := "error"
	defer func() {
		o.metrics.RecordSend(outcome, time.Since(started))
	}()

	session, subject, err := o.resolveSession(ctx, in, content)
	if err != nil {
		return SendResult{}, err
	}

	// The user-message write is issued before the provider call but its
	// durability is not on the critical path. Failures surface through the
	// notifier and the log, and the result channel is drained before the
	// assistant message is written so transcript order holds.
	userWritten := make(chan error, 1)
	go func() {
		_, err := o.store.AppendMessage(ctx, session.ID, domain.RoleUser, content)
		if err != nil {
			o.logger.Error("user message write failed",
				zap.String("session", session.ID), zap.Error(err))
			o.notify(notify.LevelError, "Your message could not be saved.")
		}
		userWritten <- err
	}()

	req := tutor.Request{Problem: content, Model: in.Model}
	if ts := o.resolveSettings(ctx, in.UserID, subject); ts != nil {
		req.SystemPrompt = ts.SystemPrompt
		req.ExampleAnswers = ts.ExampleAnswers
	}

	result, routeErr := o.router.Route(ctx, req)

	<-userWritten

	if routeErr != nil {
		o.logger.Warn("routing failed, persisting apology",
			zap.String("session", session.ID),
			zap.String("user", in.UserID),
			zap.Error(routeErr))
		o.notify(notify.LevelError, "The tutor could not answer right now. Please try again.")

		reply, err := o.store.AppendMessage(ctx, session.ID, domain.RoleAssistant, apologyMessage)
		if err != nil {
			return SendResult{}, fmt.Errorf("persist error message: %w", err)
		}
		return SendResult{SessionID: session.ID, Reply: reply}, nil
	}

	reply, err := o.store.AppendMessage(ctx, session.ID, domain.RoleAssistant, result.Response)
	if err != nil {
		return SendResult{}, fmt.Errorf("persist assistant message: %w", err)
	}

	outcome = "success"
	return SendResult{SessionID: session.ID, Reply: reply}, nil
}

// resolveSession loads or creates the session and determines the effective
// subject. An existing session's stored subject always wins over the
// caller-supplied one.
func (o *Orchestrator) resolveSession(ctx context.Context, in SendInput, content string) (*domain.ChatSession, string, error) {
	if in.SessionID != "" {
		session, err := o.store.GetSession(ctx, in.SessionID)
		if err != nil {
			return nil, "", fmt.Errorf("resolve session %q: %w", in.SessionID, err)
		}
		if session.UserID != in.UserID {
			return nil, "", ErrForbidden
		}
		subject := session.Subject
		if subject == "" {
			subject = strings.TrimSpace(in.Subject)
		}
		if subject == "" {
			return nil, "", ErrNoSubject
		}
		return session, subject, nil
	}

	subject := strings.TrimSpace(in.Subject)
	if subject == "" {
		return nil, "", ErrNoSubject
	}

	title := o.titles.Title(ctx, content)
	session, err := o.store.CreateSession(ctx, in.UserID, subject, title)
	if err != nil {
		return nil, "", fmt.Errorf("create session: %w", err)
	}
	o.logger.Info("session created",
		zap.String("session", session.ID),
		zap.String("user", in.UserID),
		zap.String("subject", subject))
	return session, subject, nil
}

// resolveSettings applies teacher customization for students only. Teachers
// and unknown profiles chat without customization.
func (o *Orchestrator) resolveSettings(ctx context.Context, userID, subject string) *domain.TeacherSettings {
	if o.settings == nil {
		return nil
	}

	profile, err := o.store.GetUserProfile(ctx, userID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			o.logger.Warn("profile lookup failed, continuing without settings",
				zap.String("user", userID), zap.Error(err))
		}
		return nil
	}
	if profile.Role != domain.RoleStudent {
		return nil
	}
	return o.settings.Resolve(ctx, profile, subject)
}

func (o *Orchestrator) notify(level notify.Level, message string) {
	if o.notifier == nil {
		return
	}
	o.notifier.Notify(notify.Notification{Level: level, Message: message})
}

func (o *Orchestrator) begin(userID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.inFlight[userID] {
		return false
	}
	o.inFlight[userID] = true
	return true
}

func (o *Orchestrator) end(userID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.inFlight, userID)
}
