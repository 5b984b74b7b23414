package course

import (
	"context"
	"io/fs"
	"log/slog"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lecternapp/lectern-server/internal/errors"
)

func testBuilder() *Builder {
	return NewBuilder(slog.New(slog.DiscardHandler))
}

func courseFS(paths ...string) fstest.MapFS {
	fsys := fstest.MapFS{}
	for _, p := range paths {
		fsys[p] = &fstest.MapFile{}
	}
	return fsys
}

func TestBuild_EndToEnd(t *testing.T) {
	fsys := courseFS(
		"1. Intro/1. Welcome.mp4",
		"1. Intro/1. Welcome.vtt",
		"2. Extra/notes.pdf",
	)

	structure, err := testBuilder().Build(context.Background(), fsys)
	require.NoError(t, err)

	// "2. Extra" has no video and is dropped entirely.
	require.Len(t, structure.Sections, 1)

	sec := structure.Sections[0]
	assert.Equal(t, "1. Intro", sec.RawName)
	assert.Equal(t, "Intro", sec.DisplayName)
	assert.False(t, sec.HasExtraFiles)
	require.Len(t, sec.Lessons, 1)

	lesson := sec.Lessons[0]
	assert.Equal(t, "Welcome", lesson.DisplayName)
	require.Len(t, lesson.Files, 2)
	assert.NotNil(t, lesson.Video())
	assert.NotNil(t, lesson.Subtitle())
	assert.Equal(t, "1. Intro/1. Welcome.mp4", lesson.Video().Path)
}

func TestBuild_NoSections(t *testing.T) {
	fsys := fstest.MapFS{
		"loose.mp4": &fstest.MapFile{},
	}

	_, err := testBuilder().Build(context.Background(), fsys)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNoSections), "got %v", err)
}

func TestBuild_EmptyRoot(t *testing.T) {
	_, err := testBuilder().Build(context.Background(), fstest.MapFS{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNoSections))
}

func TestBuild_NoVideos(t *testing.T) {
	fsys := courseFS(
		"1. Docs/readme.pdf",
		"2. More Docs/notes.txt",
	)

	_, err := testBuilder().Build(context.Background(), fsys)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNoVideos), "got %v", err)
}

func TestBuild_SubtitlesAloneAreNotVideos(t *testing.T) {
	fsys := courseFS("1. Intro/1. Welcome.vtt")

	_, err := testBuilder().Build(context.Background(), fsys)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNoVideos))
}

func TestBuild_SectionOrderIsNatural(t *testing.T) {
	fsys := courseFS(
		"10. Wrap Up/1. Bye.mp4",
		"2. Basics/1. Vars.mp4",
		"1. Intro/1. Hello.mp4",
	)

	structure, err := testBuilder().Build(context.Background(), fsys)
	require.NoError(t, err)

	require.Len(t, structure.Sections, 3)
	assert.Equal(t, "Intro", structure.Sections[0].DisplayName)
	assert.Equal(t, "Basics", structure.Sections[1].DisplayName)
	assert.Equal(t, "Wrap Up", structure.Sections[2].DisplayName)
}

func TestBuild_Deterministic(t *testing.T) {
	fsys := courseFS(
		"1. Intro/1. Hello.mp4",
		"1. Intro/2. Setup.mp4",
		"1. Intro/2. Setup.vtt",
		"1. Intro/slides.odp",
		"2. Basics/1. Vars.mp4",
		"2. Basics/10. Funcs.mp4",
		"2. Basics/9. Loops.mp4",
	)

	first, err := testBuilder().Build(context.Background(), fsys)
	require.NoError(t, err)

	// Repeated builds over unchanged contents must reproduce the exact
	// structure; ordering is the identity scheme for saved progress.
	for i := 0; i < 5; i++ {
		again, err := testBuilder().Build(context.Background(), fsys)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}

	// Lessons within a section follow numeric ordinal order.
	basics := first.Sections[1]
	require.Len(t, basics.Lessons, 3)
	assert.Equal(t, "Vars", basics.Lessons[0].DisplayName)
	assert.Equal(t, "Loops", basics.Lessons[1].DisplayName)
	assert.Equal(t, "Funcs", basics.Lessons[2].DisplayName)
}

func TestBuild_ExtraFilesFlag(t *testing.T) {
	fsys := courseFS(
		"1. Intro/1. Hello.mp4",
		"1. Intro/worksheet.pdf",
		"2. Basics/1. Vars.mp4",
	)

	structure, err := testBuilder().Build(context.Background(), fsys)
	require.NoError(t, err)

	require.Len(t, structure.Sections, 2)
	assert.True(t, structure.Sections[0].HasExtraFiles)
	assert.False(t, structure.Sections[1].HasExtraFiles)
}

func TestBuild_HiddenEntriesIgnored(t *testing.T) {
	fsys := courseFS(
		"1. Intro/1. Hello.mp4",
		"1. Intro/.DS_Store",
		".git/config",
	)

	structure, err := testBuilder().Build(context.Background(), fsys)
	require.NoError(t, err)

	require.Len(t, structure.Sections, 1)
	require.Len(t, structure.Sections[0].Lessons, 1)
	assert.False(t, structure.Sections[0].HasExtraFiles)
}

func TestBuild_NestedDirectoriesIgnored(t *testing.T) {
	// Only the two-level convention is modeled; a directory inside a
	// section contributes nothing.
	fsys := courseFS(
		"1. Intro/1. Hello.mp4",
		"1. Intro/assets/diagram.png",
	)

	structure, err := testBuilder().Build(context.Background(), fsys)
	require.NoError(t, err)

	require.Len(t, structure.Sections, 1)
	require.Len(t, structure.Sections[0].Lessons, 1)
}

func TestBuild_ContextCancelled(t *testing.T) {
	fsys := courseFS("1. Intro/1. Hello.mp4")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testBuilder().Build(ctx, fsys)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestBuild_ReadErrorPropagates(t *testing.T) {
	_, err := testBuilder().Build(context.Background(), failFS{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrPermission))
}

// failFS denies all reads.
type failFS struct{}

func (failFS) Open(name string) (fs.File, error) {
	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrPermission}
}

func TestStructure_TotalLessons(t *testing.T) {
	s := &Structure{Sections: []Section{
		{Lessons: make([]LessonGroup, 2)},
		{Lessons: make([]LessonGroup, 3)},
	}}
	assert.Equal(t, 5, s.TotalLessons())

	empty := &Structure{}
	assert.Zero(t, empty.TotalLessons())
}

func TestStructure_Lesson(t *testing.T) {
	s := &Structure{Sections: []Section{
		{Lessons: []LessonGroup{{DisplayName: "Hello"}, {DisplayName: "Setup"}}},
	}}

	got, err := s.Lesson(LessonID{Section: 0, Lesson: 1})
	require.NoError(t, err)
	assert.Equal(t, "Setup", got.DisplayName)

	_, err = s.Lesson(LessonID{Section: 1, Lesson: 0})
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	_, err = s.Lesson(LessonID{Section: 0, Lesson: 2})
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestLessonID_Key(t *testing.T) {
	assert.Equal(t, "s0.l3", LessonID{Section: 0, Lesson: 3}.Key())
	assert.Equal(t, "s12.l0", LessonID{Section: 12, Lesson: 0}.Key())
}

func TestParseLessonKey(t *testing.T) {
	id, err := ParseLessonKey("s2.l7")
	require.NoError(t, err)
	assert.Equal(t, LessonID{Section: 2, Lesson: 7}, id)

	for _, bad := range []string{"", "2.7", "s2", "sx.ly", "s-1.l0", "s2.l7junk", "s2x.l7", " s2.l7"} {
		_, err := ParseLessonKey(bad)
		assert.Error(t, err, "key %q", bad)
	}
}
