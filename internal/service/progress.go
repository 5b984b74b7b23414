package service

import (
	"context"
	"errors"
	"log/slog"
	"math"

	"github.com/lecternapp/lectern-server/internal/course"
	apperrors "github.com/lecternapp/lectern-server/internal/errors"
	"github.com/lecternapp/lectern-server/internal/natsort"
	"github.com/lecternapp/lectern-server/internal/store"
)

// ProgressService tracks lesson completion and playback positions.
//
// Lessons are identified positionally, `(sectionIndex, lessonIndex)`
// within the current structure. Because builds are deterministic, the
// same folder contents always yield the same identifiers, so progress
// survives rescans. If the folder itself changes shape, entries that
// fall outside the new structure are simply ignored when reporting.
type ProgressService struct {
	store   *store.Store
	library *LibraryService
	logger  *slog.Logger
}

// NewProgressService creates a new progress service.
func NewProgressService(st *store.Store, library *LibraryService, logger *slog.Logger) *ProgressService {
	return &ProgressService{
		store:   st,
		library: library,
		logger:  logger,
	}
}

// CourseProgress is the progress summary for one course.
type CourseProgress struct {
	CourseID        string                    `json:"course_id"`
	TotalLessons    int                       `json:"total_lessons"`
	Completed       []string                  `json:"completed"`
	PercentComplete int                       `json:"percent_complete"`
	Positions       map[string]store.Position `json:"positions"`
	LastViewed      string                    `json:"last_viewed,omitempty"`
}

// PercentComplete computes a whole-number completion percentage,
// rounding to nearest. A course with no lessons is 0% complete.
func PercentComplete(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(completed) / float64(total)))
}

// MarkLesson marks a lesson complete or not complete. The change is
// durable once this returns.
func (s *ProgressService) MarkLesson(ctx context.Context, courseID string, lessonID course.LessonID, complete bool) error {
	if err := s.checkLesson(ctx, courseID, lessonID); err != nil {
		return err
	}
	if err := s.store.SetLessonComplete(ctx, courseID, lessonID.Key(), complete); err != nil {
		return err
	}
	s.logger.Debug("lesson marked",
		"course_id", courseID,
		"lesson", lessonID.Key(),
		"complete", complete,
	)
	return nil
}

// Progress returns the completion summary for a course. Stored entries
// that no longer map to a lesson in the current structure are excluded
// from the count.
func (s *ProgressService) Progress(ctx context.Context, courseID string) (*CourseProgress, error) {
	_, structure, err := s.library.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	keys, err := s.store.GetCompletedLessons(ctx, courseID)
	if err != nil {
		return nil, err
	}

	completed := make([]string, 0, len(keys))
	for _, key := range keys {
		lessonID, err := course.ParseLessonKey(key)
		if err != nil {
			continue
		}
		if _, err := structure.Lesson(lessonID); err != nil {
			continue
		}
		completed = append(completed, key)
	}
	natsort.Sort(completed)

	positions, err := s.store.GetPositionsForCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	lastViewed, err := s.store.GetLastViewed(ctx, courseID)
	if err != nil && !errors.Is(err, store.ErrLastViewedNotFound) {
		return nil, err
	}

	total := structure.TotalLessons()
	return &CourseProgress{
		CourseID:        courseID,
		TotalLessons:    total,
		Completed:       completed,
		PercentComplete: PercentComplete(len(completed), total),
		Positions:       positions,
		LastViewed:      lastViewed,
	}, nil
}

// RecordPosition saves the playback position for a lesson, durable
// once this returns.
func (s *ProgressService) RecordPosition(ctx context.Context, courseID string, lessonID course.LessonID, seconds float64) error {
	if seconds < 0 {
		return apperrors.Validation("position must not be negative")
	}
	if err := s.checkLesson(ctx, courseID, lessonID); err != nil {
		return err
	}
	return s.store.RecordPosition(ctx, courseID, lessonID.Key(), seconds)
}

// Position returns the saved playback position for a lesson, or a
// not-found error if none was recorded.
func (s *ProgressService) Position(ctx context.Context, courseID string, lessonID course.LessonID) (*store.Position, error) {
	return s.store.GetPosition(ctx, courseID, lessonID.Key())
}

// SetLastViewed records which lesson the user viewed most recently.
func (s *ProgressService) SetLastViewed(ctx context.Context, courseID string, lessonID course.LessonID) error {
	if err := s.checkLesson(ctx, courseID, lessonID); err != nil {
		return err
	}
	return s.store.SetLastViewed(ctx, courseID, lessonID.Key())
}

// LastViewed returns the last-viewed lesson key for a course, or ""
// if none was recorded.
func (s *ProgressService) LastViewed(ctx context.Context, courseID string) (string, error) {
	key, err := s.store.GetLastViewed(ctx, courseID)
	if errors.Is(err, store.ErrLastViewedNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return key, nil
}

// checkLesson verifies the lesson exists in the course's current
// structure before a mutation is accepted.
func (s *ProgressService) checkLesson(ctx context.Context, courseID string, lessonID course.LessonID) error {
	_, structure, err := s.library.GetCourse(ctx, courseID)
	if err != nil {
		return err
	}
	_, err = structure.Lesson(lessonID)
	return err
}
