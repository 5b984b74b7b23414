package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lecternapp/lectern-server/internal/catalog"
	"github.com/lecternapp/lectern-server/internal/course"
	apperrors "github.com/lecternapp/lectern-server/internal/errors"
	"github.com/lecternapp/lectern-server/internal/id"
	"github.com/lecternapp/lectern-server/internal/search"
	"github.com/lecternapp/lectern-server/internal/store"
	"github.com/lecternapp/lectern-server/internal/util"
)

// LibraryService orchestrates the course catalog: registering course
// folders, scanning them into structures, and keeping the search index
// in step.
//
// Structures are cached per course after the first scan. The cache is
// invalidated on rescan, reattach and removal, and by the filesystem
// watcher when a course folder changes on disk.
type LibraryService struct {
	catalog *catalog.Catalog
	store   *store.Store
	search  *search.Index
	builder *course.Builder
	logger  *slog.Logger

	mu         sync.RWMutex
	structures map[string]*course.Structure
}

// NewLibraryService creates a new library service.
func NewLibraryService(cat *catalog.Catalog, st *store.Store, idx *search.Index, logger *slog.Logger) *LibraryService {
	return &LibraryService{
		catalog:    cat,
		store:      st,
		search:     idx,
		builder:    course.NewBuilder(logger),
		logger:     logger,
		structures: make(map[string]*course.Structure),
	}
}

// AddCourseRequest contains the data for registering a course folder.
type AddCourseRequest struct {
	Path string `json:"path" validate:"required"`
	Name string `json:"name"`
}

// ScanResult summarizes one structure build.
type ScanResult struct {
	RunID    string        `json:"run_id"`
	CourseID string        `json:"course_id"`
	Sections int           `json:"sections"`
	Lessons  int           `json:"lessons"`
	Videos   int           `json:"videos"`
	Duration time.Duration `json:"-"`
}

// AddCourse registers a course folder, scans it and indexes its
// lessons. The folder must already form a valid section/lesson
// hierarchy; structure errors from the scan are returned to the
// caller unchanged.
func (s *LibraryService) AddCourse(ctx context.Context, req AddCourseRequest) (*catalog.Course, *ScanResult, error) {
	if err := validate.Struct(req); err != nil {
		return nil, nil, formatValidationError(err)
	}

	abs, err := filepath.Abs(req.Path)
	if err != nil {
		return nil, nil, apperrors.Validationf("invalid path: %v", err)
	}

	info, err := os.Stat(abs)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, nil, apperrors.Validationf("path does not exist: %s", abs)
	case errors.Is(err, fs.ErrPermission):
		return nil, nil, apperrors.Forbiddenf("permission denied: %s", abs)
	case err != nil:
		return nil, nil, apperrors.Wrap(err, apperrors.CodeInternal, "stat course path")
	case !info.IsDir():
		return nil, nil, apperrors.Validationf("path is not a directory: %s", abs)
	}

	name := req.Name
	if name == "" {
		name = filepath.Base(abs)
	}
	slug := util.NormalizeSlug(name)
	if slug == "" {
		return nil, nil, apperrors.Validationf("course name %q has no usable characters", name)
	}

	if existing, err := s.catalog.GetCourseBySlug(ctx, slug); err == nil {
		return nil, nil, apperrors.AlreadyExistsf("course %q is already registered at %s", existing.Name, existing.Path)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, nil, fmt.Errorf("check existing course: %w", err)
	}

	started := time.Now()
	structure, err := s.buildStructure(ctx, abs)
	if err != nil {
		return nil, nil, err
	}

	courseID, err := id.Generate("crs")
	if err != nil {
		return nil, nil, fmt.Errorf("generate course ID: %w", err)
	}

	now := time.Now()
	crs := &catalog.Course{
		ID:        courseID,
		Slug:      slug,
		Name:      name,
		Path:      abs,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.catalog.CreateCourse(ctx, crs); err != nil {
		return nil, nil, err
	}
	if err := s.catalog.TouchLastScan(ctx, courseID, now); err != nil {
		s.logger.Warn("record scan time", "course_id", courseID, "error", err)
	}

	s.cacheStructure(courseID, structure)
	s.indexCourse(courseID, name, structure)

	result := s.scanResult(courseID, structure, time.Since(started))
	s.logger.Info("course added",
		"course_id", courseID,
		"name", name,
		"path", abs,
		"sections", result.Sections,
		"lessons", result.Lessons,
		"run_id", result.RunID,
	)

	return crs, result, nil
}

// GetCourse returns a course and its structure, scanning the folder
// if no cached structure exists.
func (s *LibraryService) GetCourse(ctx context.Context, courseID string) (*catalog.Course, *course.Structure, error) {
	crs, err := s.catalog.GetCourse(ctx, courseID)
	if err != nil {
		return nil, nil, err
	}

	s.mu.RLock()
	structure, ok := s.structures[courseID]
	s.mu.RUnlock()
	if ok {
		return crs, structure, nil
	}

	structure, err = s.buildStructure(ctx, crs.Path)
	if err != nil {
		return nil, nil, err
	}
	s.cacheStructure(courseID, structure)

	return crs, structure, nil
}

// ListCourses returns all registered courses in creation order.
func (s *LibraryService) ListCourses(ctx context.Context) ([]*catalog.Course, error) {
	return s.catalog.ListCourses(ctx)
}

// RescanCourse rebuilds a course's structure from disk and reindexes
// its lessons. Completion and position entries are keyed by position,
// so they carry over to the rebuilt structure unchanged.
func (s *LibraryService) RescanCourse(ctx context.Context, courseID string) (*ScanResult, error) {
	crs, err := s.catalog.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	structure, err := s.buildStructure(ctx, crs.Path)
	if err != nil {
		return nil, err
	}

	s.cacheStructure(courseID, structure)
	s.indexCourse(courseID, crs.Name, structure)

	if err := s.catalog.TouchLastScan(ctx, courseID, time.Now()); err != nil {
		s.logger.Warn("record scan time", "course_id", courseID, "error", err)
	}

	result := s.scanResult(courseID, structure, time.Since(started))
	s.logger.Info("course rescanned",
		"course_id", courseID,
		"sections", result.Sections,
		"lessons", result.Lessons,
		"run_id", result.RunID,
	)

	return result, nil
}

// ReattachCourse points an existing course at a new folder, for when
// the original location moved. The new folder's name must slugify to
// the course's slug so progress cannot silently attach to a different
// course.
func (s *LibraryService) ReattachCourse(ctx context.Context, courseID, newPath string) (*catalog.Course, error) {
	crs, err := s.catalog.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(newPath)
	if err != nil {
		return nil, apperrors.Validationf("invalid path: %v", err)
	}

	info, err := os.Stat(abs)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, apperrors.Validationf("path does not exist: %s", abs)
	case errors.Is(err, fs.ErrPermission):
		return nil, apperrors.Forbiddenf("permission denied: %s", abs)
	case err != nil:
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "stat course path")
	case !info.IsDir():
		return nil, apperrors.Validationf("path is not a directory: %s", abs)
	}

	if folderSlug := util.NormalizeSlug(filepath.Base(abs)); folderSlug != crs.Slug {
		return nil, apperrors.Conflictf("folder %q does not match course %q", filepath.Base(abs), crs.Name)
	}

	structure, err := s.buildStructure(ctx, abs)
	if err != nil {
		return nil, err
	}

	if err := s.catalog.UpdateCoursePath(ctx, courseID, abs); err != nil {
		return nil, err
	}

	s.cacheStructure(courseID, structure)
	s.indexCourse(courseID, crs.Name, structure)

	if err := s.catalog.TouchLastScan(ctx, courseID, time.Now()); err != nil {
		s.logger.Warn("record scan time", "course_id", courseID, "error", err)
	}

	crs.Path = abs
	s.logger.Info("course reattached", "course_id", courseID, "path", abs)

	return crs, nil
}

// RemoveCourse deletes a course from the catalog along with its
// progress entries and search documents. Files on disk are untouched.
func (s *LibraryService) RemoveCourse(ctx context.Context, courseID string) error {
	if err := s.catalog.DeleteCourse(ctx, courseID); err != nil {
		return err
	}
	if err := s.store.DeleteCourseData(ctx, courseID); err != nil {
		return fmt.Errorf("delete course progress: %w", err)
	}
	if err := s.search.DeleteCourse(courseID); err != nil {
		s.logger.Warn("delete course search documents", "course_id", courseID, "error", err)
	}

	s.mu.Lock()
	delete(s.structures, courseID)
	s.mu.Unlock()

	s.logger.Info("course removed", "course_id", courseID)
	return nil
}

// ResolveLessonFile returns the absolute path of a lesson's file with
// the given role, for streaming.
func (s *LibraryService) ResolveLessonFile(ctx context.Context, courseID string, lessonID course.LessonID, role course.FileRole) (string, error) {
	crs, structure, err := s.GetCourse(ctx, courseID)
	if err != nil {
		return "", err
	}

	lesson, err := structure.Lesson(lessonID)
	if err != nil {
		return "", err
	}

	for _, f := range lesson.Files {
		if f.Role == role {
			return filepath.Join(crs.Path, filepath.FromSlash(f.Path)), nil
		}
	}
	return "", apperrors.NotFoundf("lesson %s has no %s file", lessonID.Key(), role)
}

// Invalidate drops the cached structure for a course. The watcher
// calls this when the course folder changes so the next read rescans.
func (s *LibraryService) Invalidate(courseID string) {
	s.mu.Lock()
	delete(s.structures, courseID)
	s.mu.Unlock()
}

// CourseIDForPath finds the registered course whose folder contains
// the given path. Used by the watcher to map filesystem events back to
// courses.
func (s *LibraryService) CourseIDForPath(ctx context.Context, path string) (string, error) {
	courses, err := s.catalog.ListCourses(ctx)
	if err != nil {
		return "", err
	}
	for _, crs := range courses {
		if path == crs.Path {
			return crs.ID, nil
		}
		rel, err := filepath.Rel(crs.Path, path)
		if err == nil && filepath.IsLocal(rel) {
			return crs.ID, nil
		}
	}
	return "", apperrors.NotFoundf("no course registered for path %s", path)
}

// buildStructure scans a course folder, classifying filesystem errors
// into domain errors. Structure errors from the builder pass through
// unchanged.
func (s *LibraryService) buildStructure(ctx context.Context, path string) (*course.Structure, error) {
	if _, err := os.Stat(path); err != nil {
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return nil, apperrors.PathUnavailablef("course folder is no longer available: %s", path)
		case errors.Is(err, fs.ErrPermission):
			return nil, apperrors.Forbiddenf("permission denied: %s", path)
		default:
			return nil, apperrors.Wrap(err, apperrors.CodeInternal, "stat course folder")
		}
	}

	structure, err := s.builder.Build(ctx, os.DirFS(path))
	if err != nil {
		var domainErr *apperrors.Error
		switch {
		case errors.As(err, &domainErr):
			return nil, err
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil, err
		case errors.Is(err, fs.ErrPermission):
			return nil, apperrors.Forbiddenf("permission denied while scanning %s", path)
		case errors.Is(err, fs.ErrNotExist):
			return nil, apperrors.PathUnavailablef("course folder is no longer available: %s", path)
		default:
			return nil, apperrors.Wrap(err, apperrors.CodeInternal, "scan course folder")
		}
	}
	return structure, nil
}

func (s *LibraryService) cacheStructure(courseID string, structure *course.Structure) {
	s.mu.Lock()
	s.structures[courseID] = structure
	s.mu.Unlock()
}

// indexCourse replaces a course's search documents. Indexing failures
// are logged, never fatal; search is a convenience over the catalog.
func (s *LibraryService) indexCourse(courseID, courseName string, structure *course.Structure) {
	if s.search == nil {
		return
	}
	if err := s.search.DeleteCourse(courseID); err != nil {
		s.logger.Warn("clear course search documents", "course_id", courseID, "error", err)
		return
	}
	docs := search.CourseDocuments(courseID, courseName, structure)
	if err := s.search.IndexDocuments(docs); err != nil {
		s.logger.Warn("index course lessons", "course_id", courseID, "error", err)
	}
}

func (s *LibraryService) scanResult(courseID string, structure *course.Structure, elapsed time.Duration) *ScanResult {
	videos := 0
	for i := range structure.Sections {
		for j := range structure.Sections[i].Lessons {
			for _, f := range structure.Sections[i].Lessons[j].Files {
				if f.Role == course.RoleVideo {
					videos++
				}
			}
		}
	}
	return &ScanResult{
		RunID:    uuid.NewString(),
		CourseID: courseID,
		Sections: len(structure.Sections),
		Lessons:  structure.TotalLessons(),
		Videos:   videos,
		Duration: elapsed,
	}
}
