package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/lecternapp/lectern-server/internal/course"
)

func (s *Server) registerProgressRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getCourseProgress",
		Method:      http.MethodGet,
		Path:        "/api/v1/courses/{id}/progress",
		Summary:     "Get course progress",
		Description: "Returns the completion summary for a course",
		Tags:        []string{"Progress"},
	}, s.handleGetProgress)

	huma.Register(s.api, huma.Operation{
		OperationID: "markLesson",
		Method:      http.MethodPut,
		Path:        "/api/v1/courses/{id}/lessons/{section}/{lesson}/complete",
		Summary:     "Mark lesson",
		Description: "Marks a lesson complete or not complete. The change is durable before the response is sent",
		Tags:        []string{"Progress"},
	}, s.handleMarkLesson)

	huma.Register(s.api, huma.Operation{
		OperationID: "recordPosition",
		Method:      http.MethodPut,
		Path:        "/api/v1/courses/{id}/lessons/{section}/{lesson}/position",
		Summary:     "Record playback position",
		Description: "Saves the playback position for a lesson",
		Tags:        []string{"Progress"},
	}, s.handleRecordPosition)

	huma.Register(s.api, huma.Operation{
		OperationID: "getPosition",
		Method:      http.MethodGet,
		Path:        "/api/v1/courses/{id}/lessons/{section}/{lesson}/position",
		Summary:     "Get playback position",
		Description: "Returns the saved playback position for a lesson",
		Tags:        []string{"Progress"},
	}, s.handleGetPosition)

	huma.Register(s.api, huma.Operation{
		OperationID: "setLastViewed",
		Method:      http.MethodPut,
		Path:        "/api/v1/courses/{id}/last-viewed",
		Summary:     "Set last-viewed lesson",
		Description: "Records which lesson the user opened most recently",
		Tags:        []string{"Progress"},
	}, s.handleSetLastViewed)
}

// === DTOs ===

// LessonPathInput addresses one lesson by position.
type LessonPathInput struct {
	ID      string `path:"id" doc:"Course ID"`
	Section int    `path:"section" minimum:"0" doc:"Section index"`
	Lesson  int    `path:"lesson" minimum:"0" doc:"Lesson index within the section"`
}

// ProgressOutput wraps the progress summary for Huma.
type ProgressOutput struct {
	Body ProgressSummary
}

// MarkLessonRequest is the request body for marking a lesson.
type MarkLessonRequest struct {
	Complete bool `json:"complete" doc:"true to mark complete, false to unmark"`
}

// MarkLessonInput wraps the mark lesson request for Huma.
type MarkLessonInput struct {
	LessonPathInput
	Body MarkLessonRequest
}

// RecordPositionRequest is the request body for saving a position.
type RecordPositionRequest struct {
	Seconds float64 `json:"seconds" minimum:"0" doc:"Playback position in seconds"`
}

// RecordPositionInput wraps the record position request for Huma.
type RecordPositionInput struct {
	LessonPathInput
	Body RecordPositionRequest
}

// PositionResponse contains a saved playback position.
type PositionResponse struct {
	LessonKey string    `json:"lesson_key" doc:"Positional lesson key"`
	Seconds   float64   `json:"seconds" doc:"Playback position in seconds"`
	UpdatedAt time.Time `json:"updated_at" doc:"When the position was saved"`
}

// PositionOutput wraps the position response for Huma.
type PositionOutput struct {
	Body PositionResponse
}

// SetLastViewedRequest is the request body for the last-viewed marker.
type SetLastViewedRequest struct {
	Section int `json:"section" minimum:"0" doc:"Section index"`
	Lesson  int `json:"lesson" minimum:"0" doc:"Lesson index within the section"`
}

// SetLastViewedInput wraps the last-viewed request for Huma.
type SetLastViewedInput struct {
	ID   string `path:"id" doc:"Course ID"`
	Body SetLastViewedRequest
}

// === Handlers ===

func (s *Server) handleGetProgress(ctx context.Context, input *GetCourseInput) (*ProgressOutput, error) {
	progress, err := s.progress.Progress(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &ProgressOutput{
		Body: ProgressSummary{
			TotalLessons:    progress.TotalLessons,
			Completed:       progress.Completed,
			PercentComplete: progress.PercentComplete,
			LastViewed:      progress.LastViewed,
		},
	}, nil
}

func (s *Server) handleMarkLesson(ctx context.Context, input *MarkLessonInput) (*MessageOutput, error) {
	lessonID := course.LessonID{Section: input.Section, Lesson: input.Lesson}
	if err := s.progress.MarkLesson(ctx, input.ID, lessonID, input.Body.Complete); err != nil {
		return nil, err
	}

	msg := "Lesson marked complete"
	if !input.Body.Complete {
		msg = "Lesson marked not complete"
	}
	return &MessageOutput{Body: MessageResponse{Message: msg}}, nil
}

func (s *Server) handleRecordPosition(ctx context.Context, input *RecordPositionInput) (*MessageOutput, error) {
	lessonID := course.LessonID{Section: input.Section, Lesson: input.Lesson}
	if err := s.progress.RecordPosition(ctx, input.ID, lessonID, input.Body.Seconds); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Position saved"}}, nil
}

func (s *Server) handleGetPosition(ctx context.Context, input *LessonPathInput) (*PositionOutput, error) {
	lessonID := course.LessonID{Section: input.Section, Lesson: input.Lesson}
	pos, err := s.progress.Position(ctx, input.ID, lessonID)
	if err != nil {
		return nil, err
	}

	return &PositionOutput{
		Body: PositionResponse{
			LessonKey: pos.LessonKey,
			Seconds:   pos.Seconds,
			UpdatedAt: pos.UpdatedAt,
		},
	}, nil
}

func (s *Server) handleSetLastViewed(ctx context.Context, input *SetLastViewedInput) (*MessageOutput, error) {
	lessonID := course.LessonID{Section: input.Body.Section, Lesson: input.Body.Lesson}
	if err := s.progress.SetLastViewed(ctx, input.ID, lessonID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Last viewed lesson saved"}}, nil
}
