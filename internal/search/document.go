// Package search provides full-text lesson search using Bleve. Every
// lesson in every registered course is indexed so users can jump to
// "the lesson about goroutines" without walking the section tree.
package search

import (
	"github.com/lecternapp/lectern-server/internal/course"
)

// Document is one indexed lesson.
//
// Design note: the course and section names are denormalized into each
// lesson document so a single query can match any level of the
// hierarchy. The index is tiny (one document per lesson) so the
// duplication costs nothing.
type Document struct {
	// Identity. ID is "<courseID>:<lessonKey>" so a course's documents
	// can be enumerated and dropped when the course is removed or
	// rescanned.
	ID        string `json:"id"`
	CourseID  string `json:"course_id"`
	LessonKey string `json:"lesson_key"`

	// Searchable text.
	Lesson  string `json:"lesson"`
	Section string `json:"section"`
	Course  string `json:"course"`

	// Positional fields, stored for navigation from a hit.
	SectionIndex int `json:"section_index"`
	LessonIndex  int `json:"lesson_index"`

	HasSubtitle bool `json:"has_subtitle"`
}

// DocumentID builds the index key for a lesson.
func DocumentID(courseID string, id course.LessonID) string {
	return courseID + ":" + id.Key()
}

// ToMap converts the document to a map with lowercase field names.
// Bleve by default uses Go struct field names (capitalized), but our
// mapping uses lowercase names, so we convert explicitly.
func (d *Document) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"id":            d.ID,
		"course_id":     d.CourseID,
		"lesson_key":    d.LessonKey,
		"lesson":        d.Lesson,
		"section":       d.Section,
		"course":        d.Course,
		"section_index": d.SectionIndex,
		"lesson_index":  d.LessonIndex,
		"has_subtitle":  d.HasSubtitle,
	}
}

// CourseDocuments flattens a course structure into one document per
// lesson.
func CourseDocuments(courseID, courseName string, structure *course.Structure) []*Document {
	docs := make([]*Document, 0, structure.TotalLessons())
	for si := range structure.Sections {
		sec := &structure.Sections[si]
		for li := range sec.Lessons {
			lesson := &sec.Lessons[li]
			id := course.LessonID{Section: si, Lesson: li}
			docs = append(docs, &Document{
				ID:           DocumentID(courseID, id),
				CourseID:     courseID,
				LessonKey:    id.Key(),
				Lesson:       lesson.DisplayName,
				Section:      sec.DisplayName,
				Course:       courseName,
				SectionIndex: si,
				LessonIndex:  li,
				HasSubtitle:  lesson.Subtitle() != nil,
			})
		}
	}
	return docs
}
