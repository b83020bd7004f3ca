// Package settings resolves which teacher's customization applies to a
// student's current subject.
package settings

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/akshay-abraham/lyra/internal/domain"
	"github.com/akshay-abraham/lyra/internal/store"
)

// Resolver performs the two-phase teacher-settings lookup: a store-side
// filter by role/school/class, then an in-process subject filter over the
// small result set, then a deterministic-key fetch of the settings document.
type Resolver struct {
	store  store.Repository
	logger *zap.Logger
}

// NewResolver constructs a Resolver.
func NewResolver(repo store.Repository, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{store: repo, logger: logger}
}

// Resolve returns the settings applying to student and subject, or nil when
// no customization applies. Missing customization is an expected condition:
// store failures are logged and answered with nil, never propagated.
func (r *Resolver) Resolve(ctx context.Context, student *domain.UserProfile, subject string) *domain.TeacherSettings {
	if student == nil || student.Class == "" || student.School == "" {
		return nil
	}

	teachers, err := r.store.FindTeachers(ctx, student.School, student.Class)
	if err != nil {
		r.logger.Warn("teacher lookup failed, continuing without settings",
			zap.String("school", student.School),
			zap.String("class", student.Class),
			zap.Error(err))
		return nil
	}

	var teacher *domain.UserProfile
	for _, t := range teachers {
		if t.Teaches(subject) {
			teacher = t
			break
		}
	}
	if teacher == nil {
		return nil
	}

	key := domain.SettingsKey(teacher.UserID, subject)
	settings, err := r.store.GetTeacherSettings(ctx, key)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			r.logger.Warn("settings fetch failed, continuing without settings",
				zap.String("key", key), zap.Error(err))
		}
		return nil
	}
	return settings
}
