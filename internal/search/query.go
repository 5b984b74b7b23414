package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// Params configures a lesson search.
type Params struct {
	Query    string // User's search query
	CourseID string // Restrict to one course (empty = all courses)

	// Pagination
	Limit  int
	Offset int
}

// DefaultParams returns sensible defaults.
func DefaultParams() Params {
	return Params{
		Limit:  20,
		Offset: 0,
	}
}

// Result represents the search results.
type Result struct {
	Query  string `json:"query"`
	Total  uint64 `json:"total"`
	TookMs int64  `json:"took_ms"`
	Hits   []Hit  `json:"hits"`
}

// Hit is a single matching lesson.
type Hit struct {
	CourseID     string            `json:"course_id"`
	LessonKey    string            `json:"lesson_key"`
	Score        float64           `json:"score"`
	Lesson       string            `json:"lesson"`
	Section      string            `json:"section"`
	Course       string            `json:"course"`
	SectionIndex int               `json:"section_index"`
	LessonIndex  int               `json:"lesson_index"`
	HasSubtitle  bool              `json:"has_subtitle"`
	Highlights   map[string]string `json:"highlights,omitempty"`
}

// Search executes a lesson search.
func (s *Index) Search(ctx context.Context, params Params) (*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if params.Limit <= 0 {
		params.Limit = DefaultParams().Limit
	}

	// Build the query
	searchQuery := buildSearchQuery(params)

	// Create search request
	searchRequest := bleve.NewSearchRequestOptions(searchQuery, params.Limit, params.Offset, false)
	searchRequest.SortBy([]string{"-_score"})

	// Highlighting on the text fields
	searchRequest.Highlight = bleve.NewHighlight()
	searchRequest.Highlight.AddField("lesson")
	searchRequest.Highlight.AddField("section")

	// Request stored fields
	searchRequest.Fields = []string{
		"course_id", "lesson_key", "lesson", "section", "course",
		"section_index", "lesson_index", "has_subtitle",
	}

	// Execute search
	searchResult, err := s.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	// Convert results
	result := &Result{
		Query:  params.Query,
		Total:  searchResult.Total,
		TookMs: searchResult.Took.Milliseconds(),
		Hits:   make([]Hit, 0, len(searchResult.Hits)),
	}

	for _, hit := range searchResult.Hits {
		h := Hit{Score: hit.Score}

		// Extract stored fields
		if v, ok := hit.Fields["course_id"].(string); ok {
			h.CourseID = v
		}
		if v, ok := hit.Fields["lesson_key"].(string); ok {
			h.LessonKey = v
		}
		if v, ok := hit.Fields["lesson"].(string); ok {
			h.Lesson = v
		}
		if v, ok := hit.Fields["section"].(string); ok {
			h.Section = v
		}
		if v, ok := hit.Fields["course"].(string); ok {
			h.Course = v
		}
		if v, ok := hit.Fields["section_index"].(float64); ok {
			h.SectionIndex = int(v)
		}
		if v, ok := hit.Fields["lesson_index"].(float64); ok {
			h.LessonIndex = int(v)
		}
		if v, ok := hit.Fields["has_subtitle"].(bool); ok {
			h.HasSubtitle = v
		}

		// Extract highlights
		if len(hit.Fragments) > 0 {
			h.Highlights = make(map[string]string)
			for field, fragments := range hit.Fragments {
				if len(fragments) > 0 {
					h.Highlights[field] = fragments[0]
				}
			}
		}

		result.Hits = append(result.Hits, h)
	}

	return result, nil
}

// buildSearchQuery constructs the Bleve query from params.
//
// Lesson names get the highest boost, then section names, then course
// names, so "goroutines" finds the goroutines lesson before the course
// that merely mentions it in a section title. A fuzzy and a prefix
// query on the lesson field add typo tolerance and as-you-type
// matching.
func buildSearchQuery(params Params) query.Query {
	var queries []query.Query

	if params.Query != "" {
		textQueries := []query.Query{}

		// Lesson name match with highest boost
		lessonMatch := bleve.NewMatchQuery(params.Query)
		lessonMatch.SetField("lesson")
		lessonMatch.SetBoost(3.0)
		textQueries = append(textQueries, lessonMatch)

		// Section name match
		sectionMatch := bleve.NewMatchQuery(params.Query)
		sectionMatch.SetField("section")
		sectionMatch.SetBoost(1.5)
		textQueries = append(textQueries, sectionMatch)

		// Course name match
		courseMatch := bleve.NewMatchQuery(params.Query)
		courseMatch.SetField("course")
		courseMatch.SetBoost(1.0)
		textQueries = append(textQueries, courseMatch)

		// Add fuzzy matching for typo tolerance on lesson names
		fuzzyQuery := bleve.NewFuzzyQuery(params.Query)
		fuzzyQuery.SetFuzziness(1)
		fuzzyQuery.SetField("lesson")
		fuzzyQuery.SetBoost(0.8)
		textQueries = append(textQueries, fuzzyQuery)

		// Prefix query for autocomplete (minimum 2 chars)
		if len(params.Query) >= 2 {
			prefixQuery := bleve.NewPrefixQuery(strings.ToLower(params.Query))
			prefixQuery.SetField("lesson")
			prefixQuery.SetBoost(0.5)
			textQueries = append(textQueries, prefixQuery)
		}

		// Combine with OR (match any field)
		queries = append(queries, bleve.NewDisjunctionQuery(textQueries...))
	}

	// Course filter
	if params.CourseID != "" {
		cq := bleve.NewTermQuery(params.CourseID)
		cq.SetField("course_id")
		queries = append(queries, cq)
	}

	// Combine all queries with AND
	if len(queries) == 0 {
		return bleve.NewMatchAllQuery()
	}
	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewConjunctionQuery(queries...)
}
