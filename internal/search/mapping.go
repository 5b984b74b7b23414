package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve index mapping for lesson documents.
//
// The mapping is designed with these priorities:
//  1. Fast full-text search on lesson names with English stemming
//  2. Secondary relevance for section and course name matches
//  3. Exact keyword matching for the course filter
//  4. Stored positional fields so a hit can be navigated to directly
//  5. Term vectors enabled on text fields for highlighting
func buildIndexMapping() mapping.IndexMapping {
	// Create the index mapping
	indexMapping := bleve.NewIndexMapping()

	// Use English analyzer as default for text fields
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	// Create document mapping
	docMapping := bleve.NewDocumentMapping()

	// --- Text fields (full-text searchable) ---

	// Lesson name - primary search target
	lessonFieldMapping := bleve.NewTextFieldMapping()
	lessonFieldMapping.Analyzer = en.AnalyzerName
	lessonFieldMapping.Store = true
	lessonFieldMapping.IncludeTermVectors = true // For highlighting
	docMapping.AddFieldMappingsAt("lesson", lessonFieldMapping)

	// Section name - searchable context
	sectionFieldMapping := bleve.NewTextFieldMapping()
	sectionFieldMapping.Analyzer = en.AnalyzerName
	sectionFieldMapping.Store = true
	sectionFieldMapping.IncludeTermVectors = true // For highlighting
	docMapping.AddFieldMappingsAt("section", sectionFieldMapping)

	// Course name - searchable context
	courseFieldMapping := bleve.NewTextFieldMapping()
	courseFieldMapping.Analyzer = en.AnalyzerName
	courseFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("course", courseFieldMapping)

	// --- Keyword fields (exact match) ---

	// Course ID - for filtering search to one course
	courseIDFieldMapping := bleve.NewTextFieldMapping()
	courseIDFieldMapping.Analyzer = keyword.Name
	courseIDFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("course_id", courseIDFieldMapping)

	// Lesson key - stored but not analyzed
	lessonKeyFieldMapping := bleve.NewTextFieldMapping()
	lessonKeyFieldMapping.Analyzer = keyword.Name
	lessonKeyFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("lesson_key", lessonKeyFieldMapping)

	// ID - stored but not analyzed
	idFieldMapping := bleve.NewTextFieldMapping()
	idFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("id", idFieldMapping)

	// --- Numeric fields (stored for navigation) ---

	sectionIndexFieldMapping := bleve.NewNumericFieldMapping()
	sectionIndexFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("section_index", sectionIndexFieldMapping)

	lessonIndexFieldMapping := bleve.NewNumericFieldMapping()
	lessonIndexFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("lesson_index", lessonIndexFieldMapping)

	// Subtitle availability - boolean
	hasSubtitleFieldMapping := bleve.NewBooleanFieldMapping()
	hasSubtitleFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("has_subtitle", hasSubtitleFieldMapping)

	// Register the document mapping
	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}
