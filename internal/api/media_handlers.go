package api

import (
	"errors"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/lecternapp/lectern-server/internal/course"
	"github.com/lecternapp/lectern-server/internal/http/response"
)

// cacheOneDayPrivate is the cache policy for lesson media. The files
// never change in place; a changed course gets a fresh scan instead.
const cacheOneDayPrivate = "private, max-age=86400"

func (s *Server) handleStreamVideo(w http.ResponseWriter, r *http.Request) {
	s.streamLessonFile(w, r, course.RoleVideo, "video/mp4")
}

func (s *Server) handleStreamSubtitle(w http.ResponseWriter, r *http.Request) {
	s.streamLessonFile(w, r, course.RoleSubtitle, "text/vtt; charset=utf-8")
}

// streamLessonFile resolves a lesson's file and serves its bytes.
func (s *Server) streamLessonFile(w http.ResponseWriter, r *http.Request, role course.FileRole, contentType string) {
	ctx := r.Context()
	courseID := chi.URLParam(r, "id")

	lessonID, err := lessonIDFromParams(r)
	if err != nil {
		response.BadRequest(w, err.Error(), s.logger)
		return
	}

	path, err := s.library.ResolveLessonFile(ctx, courseID, lessonID, role)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	// The structure may be cached while the file vanished underneath.
	if _, err := os.Stat(path); os.IsNotExist(err) {
		s.logger.Error("Lesson file missing from disk",
			"course_id", courseID,
			"lesson", lessonID.Key(),
			"path", path,
		)
		response.NotFound(w, "Lesson file not found on disk", s.logger)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", cacheOneDayPrivate)

	// http.ServeFile handles:
	// - Range requests (partial content, 206 responses)
	// - Content-Length and Content-Range headers
	// - Accept-Ranges: bytes header
	// - If-Range conditional requests
	// - Last-Modified based caching
	http.ServeFile(w, r, path)
}

// lessonIDFromParams parses the positional lesson ID from the route.
func lessonIDFromParams(r *http.Request) (course.LessonID, error) {
	section, err := strconv.Atoi(chi.URLParam(r, "section"))
	if err != nil || section < 0 {
		return course.LessonID{}, errInvalidLessonPath
	}
	lesson, err := strconv.Atoi(chi.URLParam(r, "lesson"))
	if err != nil || lesson < 0 {
		return course.LessonID{}, errInvalidLessonPath
	}
	return course.LessonID{Section: section, Lesson: lesson}, nil
}

var errInvalidLessonPath = errors.New("section and lesson must be non-negative integers")
