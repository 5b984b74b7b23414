package course

import (
	"context"
	"io/fs"
	"log/slog"
	"path"
	"strings"

	"github.com/lecternapp/lectern-server/internal/errors"
	"github.com/lecternapp/lectern-server/internal/natsort"
)

// Builder infers a course structure from a two-level directory tree:
// immediate subdirectories become sections, files within them become
// lessons. Builds are read-only and deterministic; the same directory
// contents always produce the same structure, which is what keeps
// positional lesson identifiers stable across rescans.
type Builder struct {
	logger *slog.Logger
}

// NewBuilder creates a structure builder.
func NewBuilder(logger *slog.Logger) *Builder {
	return &Builder{logger: logger}
}

// Build scans the root of fsys and assembles the course structure.
//
// It fails with a NO_SECTIONS error when the root has no
// subdirectories, with NO_VIDEOS when no video file exists anywhere,
// and with INVALID_STRUCTURE when videos exist but no section retained
// a lesson group. Filesystem errors propagate unchanged for the caller
// to classify (permission, stale handle).
func (b *Builder) Build(ctx context.Context, fsys fs.FS) (*Structure, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, err
	}

	dirNames := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		dirNames = append(dirNames, e.Name())
	}

	if len(dirNames) == 0 {
		return nil, errors.NoSections("course folder contains no section directories")
	}

	natsort.Sort(dirNames)

	structure := &Structure{}
	totalVideos := 0

	for _, dirName := range dirNames {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		section, videos, err := b.buildSection(fsys, dirName)
		if err != nil {
			return nil, err
		}
		totalVideos += videos

		if len(section.Lessons) == 0 {
			b.logger.Debug("dropping section with no video lessons", "dir", dirName)
			continue
		}
		structure.Sections = append(structure.Sections, *section)
	}

	if len(structure.Sections) == 0 {
		if totalVideos == 0 {
			return nil, errors.NoVideos("course folder contains no video files")
		}
		return nil, errors.InvalidStructure("course folder does not form a section/lesson hierarchy")
	}

	b.logger.Debug("built course structure",
		"sections", len(structure.Sections),
		"lessons", structure.TotalLessons())

	return structure, nil
}

// buildSection scans one section directory and groups its files into
// lessons. Nested directories are ignored; only the two-level
// convention is modeled.
func (b *Builder) buildSection(fsys fs.FS, dirName string) (*Section, int, error) {
	entries, err := fs.ReadDir(fsys, dirName)
	if err != nil {
		return nil, 0, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, e.Name())
	}
	natsort.Sort(names)

	files := make([]SourceFile, len(names))
	for i, name := range names {
		files[i] = SourceFile{
			Name: name,
			Path: path.Join(dirName, name),
		}
	}

	lessons, hasExtra := Group(files)

	videos := 0
	for i := range lessons {
		for _, f := range lessons[i].Files {
			if f.Role == RoleVideo {
				videos++
			}
		}
	}

	return &Section{
		RawName:       dirName,
		DisplayName:   StripOrdinal(dirName),
		Lessons:       lessons,
		HasExtraFiles: hasExtra,
	}, videos, nil
}
