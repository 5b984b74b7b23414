// Package course implements the course-structure inference engine: it
// classifies file names by role, groups them into lessons by leading
// ordinal, and assembles a deterministic section/lesson hierarchy from
// a two-level directory tree.
package course

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lecternapp/lectern-server/internal/errors"
)

// FileRole is the semantic role inferred from a file's extension.
type FileRole string

// Roles recognized by the classifier.
const (
	RoleVideo        FileRole = "video"
	RoleSubtitle     FileRole = "subtitle"
	RolePDF          FileRole = "pdf"
	RoleHTML         FileRole = "html"
	RoleText         FileRole = "text"
	RoleArchive      FileRole = "archive"
	RolePresentation FileRole = "presentation"
	RoleOther        FileRole = "other"
)

// IsMedia reports whether the role participates in lesson grouping.
// Only videos and subtitles are absorbed into lesson groups; everything
// else is tallied as extra material.
func (r FileRole) IsMedia() bool {
	return r == RoleVideo || r == RoleSubtitle
}

// FileEntry is one discovered file. The Path is relative to the course
// root and is the only handle the engine keeps; file contents are never
// read during a scan.
type FileEntry struct {
	Name string   `json:"name"`
	Role FileRole `json:"role"`
	Path string   `json:"path"`
}

// LessonGroup is the set of media files sharing one leading ordinal
// within a section. Files holds video and subtitle entries only, in the
// order they were encountered after natural sorting.
type LessonGroup struct {
	Ordinal     string      `json:"ordinal"`
	DisplayName string      `json:"displayName"`
	Files       []FileEntry `json:"files"`
}

// Video returns the group's first video entry, or nil if the group has
// none. Retained groups always have one.
func (g *LessonGroup) Video() *FileEntry {
	for i := range g.Files {
		if g.Files[i].Role == RoleVideo {
			return &g.Files[i]
		}
	}
	return nil
}

// Subtitle returns the group's first subtitle entry, or nil.
func (g *LessonGroup) Subtitle() *FileEntry {
	for i := range g.Files {
		if g.Files[i].Role == RoleSubtitle {
			return &g.Files[i]
		}
	}
	return nil
}

// Section is one top-level subdirectory of the course root that
// retained at least one video-bearing lesson group.
type Section struct {
	RawName     string        `json:"rawName"`
	DisplayName string        `json:"displayName"`
	Lessons     []LessonGroup `json:"lessons"`
	// HasExtraFiles is true when the directory held files that are
	// neither videos nor subtitles (PDFs, archives, notes, ...).
	HasExtraFiles bool `json:"hasExtraFiles"`
}

// Structure is the fully inferred course: an ordered sequence of
// retained sections. It is rebuilt from scratch on every scan and the
// ordering doubles as the lesson identity scheme, so builds over an
// unchanged directory must reproduce it exactly.
type Structure struct {
	Sections []Section `json:"sections"`
}

// TotalLessons counts lessons across all sections.
func (s *Structure) TotalLessons() int {
	n := 0
	for i := range s.Sections {
		n += len(s.Sections[i].Lessons)
	}
	return n
}

// Lesson resolves a positional lesson identifier against the structure.
func (s *Structure) Lesson(id LessonID) (*LessonGroup, error) {
	if id.Section < 0 || id.Section >= len(s.Sections) {
		return nil, errors.NotFoundf("section %d out of range", id.Section)
	}
	sec := &s.Sections[id.Section]
	if id.Lesson < 0 || id.Lesson >= len(sec.Lessons) {
		return nil, errors.NotFoundf("lesson %d out of range in section %d", id.Lesson, id.Section)
	}
	return &sec.Lessons[id.Lesson], nil
}

// LessonID identifies a lesson by its 0-based position in the current
// structure. Positional identity means renumbering or inserting
// sections in the source directory shifts the keys; saved progress then
// attaches to whatever lesson now occupies the position.
type LessonID struct {
	Section int `json:"section"`
	Lesson  int `json:"lesson"`
}

// Key renders the identifier in its persisted form, e.g. "s0.l3".
func (id LessonID) Key() string {
	return fmt.Sprintf("s%d.l%d", id.Section, id.Lesson)
}

// ParseLessonKey parses the persisted "s<section>.l<lesson>" form.
func ParseLessonKey(key string) (LessonID, error) {
	sec, les, ok := strings.Cut(key, ".")
	if !ok || !strings.HasPrefix(sec, "s") || !strings.HasPrefix(les, "l") {
		return LessonID{}, errors.Validationf("invalid lesson key %q", key)
	}

	section, err := strconv.Atoi(sec[1:])
	if err != nil || section < 0 {
		return LessonID{}, errors.Validationf("invalid lesson key %q", key)
	}
	lesson, err := strconv.Atoi(les[1:])
	if err != nil || lesson < 0 {
		return LessonID{}, errors.Validationf("invalid lesson key %q", key)
	}

	return LessonID{Section: section, Lesson: lesson}, nil
}
