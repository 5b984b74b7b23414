package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"

	apperrors "github.com/lecternapp/lectern-server/internal/errors"
)

// Sentinel errors for progress operations.
var (
	ErrPositionNotFound   = apperrors.NotFound("playback position not found")
	ErrLastViewedNotFound = apperrors.NotFound("no last-viewed lesson recorded")
)

// Completion records that one lesson was marked complete.
type Completion struct {
	CourseID    string    `json:"courseId"`
	LessonKey   string    `json:"lessonKey"`
	CompletedAt time.Time `json:"completedAt"`
}

// Position is the last known playback offset of one lesson's video.
type Position struct {
	CourseID  string    `json:"courseId"`
	LessonKey string    `json:"lessonKey"`
	Seconds   float64   `json:"seconds"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SetLessonComplete marks or unmarks a lesson as complete. The write is
// synced before returning.
func (s *Store) SetLessonComplete(ctx context.Context, courseID, lessonKey string, complete bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := []byte(completePrefix + courseID + ":" + lessonKey)
	if !complete {
		return s.delete(key)
	}
	return s.set(key, Completion{
		CourseID:    courseID,
		LessonKey:   lessonKey,
		CompletedAt: time.Now().UTC(),
	})
}

// IsLessonComplete reports whether a lesson is marked complete.
func (s *Store) IsLessonComplete(ctx context.Context, courseID, lessonKey string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(completePrefix + courseID + ":" + lessonKey))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetCompletedLessons returns the lesson keys marked complete for a
// course.
func (s *Store) GetCompletedLessons(ctx context.Context, courseID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := completePrefix + courseID + ":"
	keys := []string{}

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
			k := it.Item().Key()
			keys = append(keys, string(k[len(prefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// RecordPosition stores the last playback offset for a lesson's video.
// The write is synced before returning.
func (s *Store) RecordPosition(ctx context.Context, courseID, lessonKey string, seconds float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := []byte(positionPrefix + courseID + ":" + lessonKey)
	return s.set(key, Position{
		CourseID:  courseID,
		LessonKey: lessonKey,
		Seconds:   seconds,
		UpdatedAt: time.Now().UTC(),
	})
}

// GetPosition retrieves the stored playback position for a lesson.
// Returns ErrPositionNotFound when no position was ever recorded.
func (s *Store) GetPosition(ctx context.Context, courseID, lessonKey string) (*Position, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var pos Position
	err := s.get([]byte(positionPrefix+courseID+":"+lessonKey), &pos)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrPositionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &pos, nil
}

// GetPositionsForCourse retrieves all stored positions for a course,
// keyed by lesson key.
func (s *Store) GetPositionsForCourse(ctx context.Context, courseID string) (map[string]Position, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := positionPrefix + courseID + ":"
	positions := make(map[string]Position)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		opts.PrefetchValues = true

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
			var pos Position
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &pos)
			})
			if err != nil {
				continue // Skip corrupt records
			}
			positions[pos.LessonKey] = pos
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return positions, nil
}

// SetLastViewed records the lesson the user most recently opened in a
// course.
func (s *Store) SetLastViewed(ctx context.Context, courseID, lessonKey string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.set([]byte(lastViewedPrefix+courseID), lessonKey)
}

// GetLastViewed returns the lesson key the user most recently opened.
// Returns ErrLastViewedNotFound when nothing was recorded.
func (s *Store) GetLastViewed(ctx context.Context, courseID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var lessonKey string
	err := s.get([]byte(lastViewedPrefix+courseID), &lessonKey)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", ErrLastViewedNotFound
	}
	if err != nil {
		return "", err
	}
	return lessonKey, nil
}

// DeleteCourseData removes all progress records for a course:
// completions, positions, and the last-viewed marker.
func (s *Store) DeleteCourseData(ctx context.Context, courseID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.deletePrefix(completePrefix + courseID + ":"); err != nil {
		return err
	}
	if err := s.deletePrefix(positionPrefix + courseID + ":"); err != nil {
		return err
	}
	return s.delete([]byte(lastViewedPrefix + courseID))
}
