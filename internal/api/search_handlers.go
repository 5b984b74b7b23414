package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/lecternapp/lectern-server/internal/search"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchLessons",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Search lessons",
		Description: "Full-text search across lesson, section, and course names",
		Tags:        []string{"Search"},
	}, s.handleSearchLessons)
}

// === DTOs ===

// SearchInput contains the search query parameters.
type SearchInput struct {
	Query    string `query:"q" doc:"Search query"`
	CourseID string `query:"course_id" doc:"Restrict results to one course"`
	Limit    int    `query:"limit" minimum:"0" maximum:"100" doc:"Maximum hits to return (default 20)"`
	Offset   int    `query:"offset" minimum:"0" doc:"Hits to skip for pagination"`
}

// SearchHit is one matching lesson.
type SearchHit struct {
	CourseID     string            `json:"course_id" doc:"Course the lesson belongs to"`
	LessonKey    string            `json:"lesson_key" doc:"Positional lesson key"`
	Score        float64           `json:"score" doc:"Relevance score"`
	Lesson       string            `json:"lesson" doc:"Lesson display name"`
	Section      string            `json:"section" doc:"Section display name"`
	Course       string            `json:"course" doc:"Course display name"`
	SectionIndex int               `json:"section_index" doc:"Section index"`
	LessonIndex  int               `json:"lesson_index" doc:"Lesson index within the section"`
	HasSubtitle  bool              `json:"has_subtitle" doc:"Whether a subtitle file exists"`
	Highlights   map[string]string `json:"highlights,omitempty" doc:"Matched fragments per field"`
}

// SearchResponse contains search results.
type SearchResponse struct {
	Query  string      `json:"query" doc:"The query that was executed"`
	Total  uint64      `json:"total" doc:"Total matching lessons"`
	TookMs int64       `json:"took_ms" doc:"Search execution time"`
	Hits   []SearchHit `json:"hits" doc:"Matching lessons in relevance order"`
}

// SearchOutput wraps the search response for Huma.
type SearchOutput struct {
	Body SearchResponse
}

// === Handlers ===

func (s *Server) handleSearchLessons(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	result, err := s.search.Search(ctx, search.Params{
		Query:    input.Query,
		CourseID: input.CourseID,
		Limit:    input.Limit,
		Offset:   input.Offset,
	})
	if err != nil {
		return nil, err
	}

	hits := make([]SearchHit, len(result.Hits))
	for i, h := range result.Hits {
		hits[i] = SearchHit{
			CourseID:     h.CourseID,
			LessonKey:    h.LessonKey,
			Score:        h.Score,
			Lesson:       h.Lesson,
			Section:      h.Section,
			Course:       h.Course,
			SectionIndex: h.SectionIndex,
			LessonIndex:  h.LessonIndex,
			HasSubtitle:  h.HasSubtitle,
			Highlights:   h.Highlights,
		}
	}

	return &SearchOutput{
		Body: SearchResponse{
			Query:  result.Query,
			Total:  result.Total,
			TookMs: result.TookMs,
			Hits:   hits,
		},
	}, nil
}
