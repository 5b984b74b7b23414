package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lecternapp/lectern-server/internal/catalog"
	"github.com/lecternapp/lectern-server/internal/course"
	apperrors "github.com/lecternapp/lectern-server/internal/errors"
	"github.com/lecternapp/lectern-server/internal/search"
	"github.com/lecternapp/lectern-server/internal/store"
)

// newTestLibrary wires a library service against temporary storage.
func newTestLibrary(t *testing.T) (*LibraryService, *store.Store, *search.Index) {
	t.Helper()

	dataDir := t.TempDir()
	logger := slog.New(slog.DiscardHandler)

	cat, err := catalog.Open(filepath.Join(dataDir, "catalog.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cat.Close() })

	st, err := store.New(filepath.Join(dataDir, "progress"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	idx, err := search.NewIndex(search.Options{DataPath: dataDir, Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })

	return NewLibraryService(cat, st, idx, logger), st, idx
}

// writeCourseDir lays out a course folder on disk: one directory per
// section, one file per name.
func writeCourseDir(t *testing.T, name string, sections map[string][]string) string {
	t.Helper()

	root := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.MkdirAll(root, 0755))
	for dir, files := range sections {
		require.NoError(t, os.MkdirAll(filepath.Join(root, dir), 0755))
		for _, f := range files {
			require.NoError(t, os.WriteFile(filepath.Join(root, dir, f), []byte("x"), 0644))
		}
	}
	return root
}

func TestLibraryService_AddCourse(t *testing.T) {
	lib, _, idx := newTestLibrary(t)
	ctx := context.Background()

	root := writeCourseDir(t, "Go Basics", map[string][]string{
		"1. Intro": {"1. Welcome.mp4", "1. Welcome.vtt"},
		"2. Concurrency": {
			"1. Goroutines.mp4",
			"2. Channels.mp4",
		},
	})

	crs, result, err := lib.AddCourse(ctx, AddCourseRequest{Path: root})
	require.NoError(t, err)

	assert.Equal(t, "Go Basics", crs.Name)
	assert.Equal(t, "go-basics", crs.Slug)
	assert.Equal(t, root, crs.Path)
	assert.NotEmpty(t, crs.ID)

	assert.Equal(t, 2, result.Sections)
	assert.Equal(t, 3, result.Lessons)
	assert.Equal(t, 3, result.Videos)
	assert.NotEmpty(t, result.RunID)

	// Lessons landed in the search index.
	count, err := idx.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)

	// Structure is retrievable with positional lesson IDs.
	_, structure, err := lib.GetCourse(ctx, crs.ID)
	require.NoError(t, err)
	assert.Equal(t, "Intro", structure.Sections[0].DisplayName)
	assert.Equal(t, "Welcome", structure.Sections[0].Lessons[0].DisplayName)
	assert.Equal(t, "Concurrency", structure.Sections[1].DisplayName)
}

func TestLibraryService_AddCourse_DuplicateName(t *testing.T) {
	lib, _, _ := newTestLibrary(t)
	ctx := context.Background()

	sections := map[string][]string{"1. Intro": {"1. Welcome.mp4"}}
	first := writeCourseDir(t, "Go Basics", sections)
	second := writeCourseDir(t, "Go Basics", sections)

	_, _, err := lib.AddCourse(ctx, AddCourseRequest{Path: first})
	require.NoError(t, err)

	_, _, err = lib.AddCourse(ctx, AddCourseRequest{Path: second})
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
}

func TestLibraryService_AddCourse_PathErrors(t *testing.T) {
	lib, _, _ := newTestLibrary(t)
	ctx := context.Background()

	_, _, err := lib.AddCourse(ctx, AddCourseRequest{})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, _, err = lib.AddCourse(ctx, AddCourseRequest{Path: filepath.Join(t.TempDir(), "nope")})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	file := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))
	_, _, err = lib.AddCourse(ctx, AddCourseRequest{Path: file})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestLibraryService_AddCourse_StructureErrors(t *testing.T) {
	lib, _, _ := newTestLibrary(t)
	ctx := context.Background()

	empty := writeCourseDir(t, "Empty Course", nil)
	_, _, err := lib.AddCourse(ctx, AddCourseRequest{Path: empty})
	assert.ErrorIs(t, err, apperrors.ErrNoSections)

	noVideos := writeCourseDir(t, "Paper Course", map[string][]string{
		"1. Reading": {"notes.pdf", "syllabus.txt"},
	})
	_, _, err = lib.AddCourse(ctx, AddCourseRequest{Path: noVideos})
	assert.ErrorIs(t, err, apperrors.ErrNoVideos)
}

func TestLibraryService_GetCourse_PathGone(t *testing.T) {
	lib, _, _ := newTestLibrary(t)
	ctx := context.Background()

	root := writeCourseDir(t, "Go Basics", map[string][]string{
		"1. Intro": {"1. Welcome.mp4"},
	})
	crs, _, err := lib.AddCourse(ctx, AddCourseRequest{Path: root})
	require.NoError(t, err)

	require.NoError(t, os.RemoveAll(root))
	lib.Invalidate(crs.ID)

	_, _, err = lib.GetCourse(ctx, crs.ID)
	assert.ErrorIs(t, err, apperrors.ErrPathUnavailable)
}

func TestLibraryService_RescanCourse(t *testing.T) {
	lib, _, _ := newTestLibrary(t)
	ctx := context.Background()

	root := writeCourseDir(t, "Go Basics", map[string][]string{
		"1. Intro": {"1. Welcome.mp4"},
	})
	crs, _, err := lib.AddCourse(ctx, AddCourseRequest{Path: root})
	require.NoError(t, err)

	// A new section appears on disk.
	require.NoError(t, os.MkdirAll(filepath.Join(root, "2. Concurrency"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "2. Concurrency", "1. Goroutines.mp4"), []byte("x"), 0644))

	result, err := lib.RescanCourse(ctx, crs.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Sections)
	assert.Equal(t, 2, result.Lessons)

	_, structure, err := lib.GetCourse(ctx, crs.ID)
	require.NoError(t, err)
	assert.Len(t, structure.Sections, 2)
}

func TestLibraryService_ReattachCourse(t *testing.T) {
	lib, _, _ := newTestLibrary(t)
	ctx := context.Background()

	sections := map[string][]string{"1. Intro": {"1. Welcome.mp4"}}
	root := writeCourseDir(t, "Go Basics", sections)
	crs, _, err := lib.AddCourse(ctx, AddCourseRequest{Path: root})
	require.NoError(t, err)

	// A folder whose name slugifies differently is rejected.
	other := writeCourseDir(t, "Rust Basics", sections)
	_, err = lib.ReattachCourse(ctx, crs.ID, other)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	// Same name at a new location is accepted.
	moved := writeCourseDir(t, "Go Basics", sections)
	updated, err := lib.ReattachCourse(ctx, crs.ID, moved)
	require.NoError(t, err)
	assert.Equal(t, moved, updated.Path)

	fetched, _, err := lib.GetCourse(ctx, crs.ID)
	require.NoError(t, err)
	assert.Equal(t, moved, fetched.Path)
}

func TestLibraryService_RemoveCourse(t *testing.T) {
	lib, st, idx := newTestLibrary(t)
	ctx := context.Background()

	root := writeCourseDir(t, "Go Basics", map[string][]string{
		"1. Intro": {"1. Welcome.mp4"},
	})
	crs, _, err := lib.AddCourse(ctx, AddCourseRequest{Path: root})
	require.NoError(t, err)

	require.NoError(t, st.SetLessonComplete(ctx, crs.ID, "s0.l0", true))

	require.NoError(t, lib.RemoveCourse(ctx, crs.ID))

	_, _, err = lib.GetCourse(ctx, crs.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	keys, err := st.GetCompletedLessons(ctx, crs.ID)
	require.NoError(t, err)
	assert.Empty(t, keys)

	count, err := idx.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestLibraryService_ResolveLessonFile(t *testing.T) {
	lib, _, _ := newTestLibrary(t)
	ctx := context.Background()

	root := writeCourseDir(t, "Go Basics", map[string][]string{
		"1. Intro": {"1. Welcome.mp4", "1. Welcome.vtt"},
	})
	crs, _, err := lib.AddCourse(ctx, AddCourseRequest{Path: root})
	require.NoError(t, err)

	videoPath, err := lib.ResolveLessonFile(ctx, crs.ID, course.LessonID{Section: 0, Lesson: 0}, course.RoleVideo)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "1. Intro", "1. Welcome.mp4"), videoPath)

	_, statErr := os.Stat(videoPath)
	require.NoError(t, statErr)

	subPath, err := lib.ResolveLessonFile(ctx, crs.ID, course.LessonID{Section: 0, Lesson: 0}, course.RoleSubtitle)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "1. Intro", "1. Welcome.vtt"), subPath)

	_, err = lib.ResolveLessonFile(ctx, crs.ID, course.LessonID{Section: 0, Lesson: 9}, course.RoleVideo)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestLibraryService_CourseIDForPath(t *testing.T) {
	lib, _, _ := newTestLibrary(t)
	ctx := context.Background()

	root := writeCourseDir(t, "Go Basics", map[string][]string{
		"1. Intro": {"1. Welcome.mp4"},
	})
	crs, _, err := lib.AddCourse(ctx, AddCourseRequest{Path: root})
	require.NoError(t, err)

	id, err := lib.CourseIDForPath(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, crs.ID, id)

	id, err = lib.CourseIDForPath(ctx, filepath.Join(root, "1. Intro", "1. Welcome.mp4"))
	require.NoError(t, err)
	assert.Equal(t, crs.ID, id)

	_, err = lib.CourseIDForPath(ctx, t.TempDir())
	var domainErr *apperrors.Error
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, apperrors.CodeNotFound, domainErr.Code)
}
