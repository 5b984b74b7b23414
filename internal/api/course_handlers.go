package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/lecternapp/lectern-server/internal/catalog"
	"github.com/lecternapp/lectern-server/internal/course"
	"github.com/lecternapp/lectern-server/internal/service"
)

func (s *Server) registerCourseRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listCourses",
		Method:      http.MethodGet,
		Path:        "/api/v1/courses",
		Summary:     "List courses",
		Description: "Returns all registered courses",
		Tags:        []string{"Courses"},
	}, s.handleListCourses)

	huma.Register(s.api, huma.Operation{
		OperationID: "addCourse",
		Method:      http.MethodPost,
		Path:        "/api/v1/courses",
		Summary:     "Add course",
		Description: "Registers a course folder and scans its structure",
		Tags:        []string{"Courses"},
	}, s.handleAddCourse)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCourse",
		Method:      http.MethodGet,
		Path:        "/api/v1/courses/{id}",
		Summary:     "Get course",
		Description: "Returns a course's structure with merged progress",
		Tags:        []string{"Courses"},
	}, s.handleGetCourse)

	huma.Register(s.api, huma.Operation{
		OperationID: "rescanCourse",
		Method:      http.MethodPost,
		Path:        "/api/v1/courses/{id}/scan",
		Summary:     "Rescan course",
		Description: "Rebuilds a course's structure from disk",
		Tags:        []string{"Courses"},
	}, s.handleRescanCourse)

	huma.Register(s.api, huma.Operation{
		OperationID: "reattachCourse",
		Method:      http.MethodPost,
		Path:        "/api/v1/courses/{id}/reattach",
		Summary:     "Reattach course",
		Description: "Points a course at a new folder location",
		Tags:        []string{"Courses"},
	}, s.handleReattachCourse)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteCourse",
		Method:      http.MethodDelete,
		Path:        "/api/v1/courses/{id}",
		Summary:     "Remove course",
		Description: "Removes a course, its progress, and its search documents. Files on disk are untouched",
		Tags:        []string{"Courses"},
	}, s.handleDeleteCourse)
}

// === DTOs ===

// MessageResponse contains a human-readable confirmation.
type MessageResponse struct {
	Message string `json:"message" doc:"Confirmation message"`
}

// MessageOutput wraps the message response for Huma.
type MessageOutput struct {
	Body MessageResponse
}

// CourseResponse contains course catalog data in API responses.
type CourseResponse struct {
	ID         string     `json:"id" doc:"Course ID"`
	Slug       string     `json:"slug" doc:"URL-safe slug"`
	Name       string     `json:"name" doc:"Display name"`
	Path       string     `json:"path" doc:"Course folder on disk"`
	CreatedAt  time.Time  `json:"created_at" doc:"Registration time"`
	UpdatedAt  time.Time  `json:"updated_at" doc:"Last update time"`
	LastScanAt *time.Time `json:"last_scan_at,omitempty" doc:"Last successful scan"`
}

// ListCoursesResponse contains a list of courses.
type ListCoursesResponse struct {
	Courses []CourseResponse `json:"courses" doc:"Registered courses"`
}

// ListCoursesOutput wraps the list courses response for Huma.
type ListCoursesOutput struct {
	Body ListCoursesResponse
}

// AddCourseRequest is the request body for registering a course.
type AddCourseRequest struct {
	Path string `json:"path" validate:"required" doc:"Course folder on disk"`
	Name string `json:"name,omitempty" doc:"Display name (defaults to the folder name)"`
}

// AddCourseInput wraps the add course request for Huma.
type AddCourseInput struct {
	Body AddCourseRequest
}

// ScanResponse summarizes one structure scan.
type ScanResponse struct {
	RunID    string `json:"run_id" doc:"Scan run ID"`
	Sections int    `json:"sections" doc:"Sections found"`
	Lessons  int    `json:"lessons" doc:"Lessons found"`
	Videos   int    `json:"videos" doc:"Video files found"`
}

// AddCourseResponse contains the registered course and scan summary.
type AddCourseResponse struct {
	Course CourseResponse `json:"course" doc:"Registered course"`
	Scan   ScanResponse   `json:"scan" doc:"Initial scan summary"`
}

// AddCourseOutput wraps the add course response for Huma.
type AddCourseOutput struct {
	Body AddCourseResponse
}

// GetCourseInput contains parameters for getting a course.
type GetCourseInput struct {
	ID string `path:"id" doc:"Course ID"`
}

// FileResponse is one file within a lesson.
type FileResponse struct {
	Name string `json:"name" doc:"Filename"`
	Role string `json:"role" doc:"File role: video, subtitle, pdf, html, text, archive, presentation, or other"`
}

// LessonResponse is one lesson with merged progress.
type LessonResponse struct {
	Key             string         `json:"key" doc:"Positional lesson key, e.g. s0.l2"`
	Ordinal         string         `json:"ordinal" doc:"Leading ordinal the lesson was grouped by"`
	DisplayName     string         `json:"display_name" doc:"Cleaned lesson name"`
	HasSubtitle     bool           `json:"has_subtitle" doc:"Whether a subtitle file exists"`
	Files           []FileResponse `json:"files" doc:"Files in this lesson"`
	Completed       bool           `json:"completed" doc:"Whether the lesson is marked complete"`
	PositionSeconds *float64       `json:"position_seconds,omitempty" doc:"Saved playback position"`
}

// SectionResponse is one section of a course.
type SectionResponse struct {
	DisplayName   string           `json:"display_name" doc:"Cleaned section name"`
	HasExtraFiles bool             `json:"has_extra_files" doc:"Whether non-media files exist in the section"`
	Lessons       []LessonResponse `json:"lessons" doc:"Lessons in natural order"`
}

// ProgressSummary is the completion rollup for a course.
type ProgressSummary struct {
	TotalLessons    int      `json:"total_lessons" doc:"Lessons in the current structure"`
	Completed       []string `json:"completed" doc:"Completed lesson keys"`
	PercentComplete int      `json:"percent_complete" doc:"Whole-number completion percentage"`
	LastViewed      string   `json:"last_viewed,omitempty" doc:"Most recently viewed lesson key"`
}

// CourseDetailResponse is a course with its structure and progress.
type CourseDetailResponse struct {
	Course   CourseResponse    `json:"course" doc:"Catalog entry"`
	Sections []SectionResponse `json:"sections" doc:"Inferred structure"`
	Progress ProgressSummary   `json:"progress" doc:"Completion summary"`
}

// CourseDetailOutput wraps the course detail response for Huma.
type CourseDetailOutput struct {
	Body CourseDetailResponse
}

// ScanOutput wraps the scan response for Huma.
type ScanOutput struct {
	Body ScanResponse
}

// ReattachCourseRequest is the request body for reattaching a course.
type ReattachCourseRequest struct {
	Path string `json:"path" validate:"required" doc:"New course folder on disk"`
}

// ReattachCourseInput wraps the reattach request for Huma.
type ReattachCourseInput struct {
	ID   string `path:"id" doc:"Course ID"`
	Body ReattachCourseRequest
}

// CourseOutput wraps a single course response for Huma.
type CourseOutput struct {
	Body CourseResponse
}

// DeleteCourseInput contains parameters for removing a course.
type DeleteCourseInput struct {
	ID string `path:"id" doc:"Course ID"`
}

// === Handlers ===

func toCourseResponse(crs *catalog.Course) CourseResponse {
	return CourseResponse{
		ID:         crs.ID,
		Slug:       crs.Slug,
		Name:       crs.Name,
		Path:       crs.Path,
		CreatedAt:  crs.CreatedAt,
		UpdatedAt:  crs.UpdatedAt,
		LastScanAt: crs.LastScanAt,
	}
}

func toScanResponse(result *service.ScanResult) ScanResponse {
	return ScanResponse{
		RunID:    result.RunID,
		Sections: result.Sections,
		Lessons:  result.Lessons,
		Videos:   result.Videos,
	}
}

func (s *Server) handleListCourses(ctx context.Context, _ *struct{}) (*ListCoursesOutput, error) {
	courses, err := s.library.ListCourses(ctx)
	if err != nil {
		return nil, err
	}

	resp := make([]CourseResponse, len(courses))
	for i, crs := range courses {
		resp[i] = toCourseResponse(crs)
	}

	return &ListCoursesOutput{Body: ListCoursesResponse{Courses: resp}}, nil
}

func (s *Server) handleAddCourse(ctx context.Context, input *AddCourseInput) (*AddCourseOutput, error) {
	crs, result, err := s.library.AddCourse(ctx, service.AddCourseRequest{
		Path: input.Body.Path,
		Name: input.Body.Name,
	})
	if err != nil {
		return nil, err
	}

	return &AddCourseOutput{
		Body: AddCourseResponse{
			Course: toCourseResponse(crs),
			Scan:   toScanResponse(result),
		},
	}, nil
}

func (s *Server) handleGetCourse(ctx context.Context, input *GetCourseInput) (*CourseDetailOutput, error) {
	crs, structure, err := s.library.GetCourse(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	progress, err := s.progress.Progress(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	completed := make(map[string]bool, len(progress.Completed))
	for _, key := range progress.Completed {
		completed[key] = true
	}

	sections := make([]SectionResponse, len(structure.Sections))
	for si := range structure.Sections {
		sec := &structure.Sections[si]
		lessons := make([]LessonResponse, len(sec.Lessons))
		for li := range sec.Lessons {
			lesson := &sec.Lessons[li]
			key := course.LessonID{Section: si, Lesson: li}.Key()

			files := make([]FileResponse, len(lesson.Files))
			for fi, f := range lesson.Files {
				files[fi] = FileResponse{Name: f.Name, Role: string(f.Role)}
			}

			lr := LessonResponse{
				Key:         key,
				Ordinal:     lesson.Ordinal,
				DisplayName: lesson.DisplayName,
				HasSubtitle: lesson.Subtitle() != nil,
				Files:       files,
				Completed:   completed[key],
			}
			if pos, ok := progress.Positions[key]; ok {
				seconds := pos.Seconds
				lr.PositionSeconds = &seconds
			}
			lessons[li] = lr
		}
		sections[si] = SectionResponse{
			DisplayName:   sec.DisplayName,
			HasExtraFiles: sec.HasExtraFiles,
			Lessons:       lessons,
		}
	}

	return &CourseDetailOutput{
		Body: CourseDetailResponse{
			Course:   toCourseResponse(crs),
			Sections: sections,
			Progress: ProgressSummary{
				TotalLessons:    progress.TotalLessons,
				Completed:       progress.Completed,
				PercentComplete: progress.PercentComplete,
				LastViewed:      progress.LastViewed,
			},
		},
	}, nil
}

func (s *Server) handleRescanCourse(ctx context.Context, input *GetCourseInput) (*ScanOutput, error) {
	result, err := s.library.RescanCourse(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &ScanOutput{Body: toScanResponse(result)}, nil
}

func (s *Server) handleReattachCourse(ctx context.Context, input *ReattachCourseInput) (*CourseOutput, error) {
	crs, err := s.library.ReattachCourse(ctx, input.ID, input.Body.Path)
	if err != nil {
		return nil, err
	}
	return &CourseOutput{Body: toCourseResponse(crs)}, nil
}

func (s *Server) handleDeleteCourse(ctx context.Context, input *DeleteCourseInput) (*MessageOutput, error) {
	if err := s.library.RemoveCourse(ctx, input.ID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Course removed"}}, nil
}
