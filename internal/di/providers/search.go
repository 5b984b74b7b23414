package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/lecternapp/lectern-server/internal/config"
	"github.com/lecternapp/lectern-server/internal/logger"
	"github.com/lecternapp/lectern-server/internal/search"
	"github.com/lecternapp/lectern-server/internal/service"
)

// SearchIndexHandle wraps the search index with shutdown capability.
type SearchIndexHandle struct {
	*search.Index
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the Bleve lesson index.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	index, err := search.NewIndex(search.Options{
		DataPath: cfg.Data.BasePath,
		Logger:   log.Logger,
	})
	if err != nil {
		return nil, err
	}

	docCount, _ := index.DocumentCount()
	log.Info("Search index initialized", "documents", docCount)

	return &SearchIndexHandle{Index: index}, nil
}

// TriggerSearchReindexIfNeeded rebuilds the lesson index when it is empty
// but courses are registered. This recovers from a mapping version bump
// or a deleted index directory. Should be called after all services are wired.
func TriggerSearchReindexIfNeeded(i do.Injector) {
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	library := do.MustInvoke[*service.LibraryService](i)
	log := do.MustInvoke[*logger.Logger](i)

	docCount, _ := indexHandle.DocumentCount()
	if docCount > 0 {
		return
	}

	ctx := context.Background()
	courses, err := library.ListCourses(ctx)
	if err != nil || len(courses) == 0 {
		return
	}

	log.Info("Search index is empty but courses exist, triggering initial reindex",
		"course_count", len(courses),
	)

	go func() {
		reindexCtx := context.Background()
		indexed := 0
		for _, crs := range courses {
			_, structure, err := library.GetCourse(reindexCtx, crs.ID)
			if err != nil {
				log.Warn("Skipping course during reindex", "course_id", crs.ID, "error", err)
				continue
			}
			docs := search.CourseDocuments(crs.ID, crs.Name, structure)
			if err := indexHandle.IndexDocuments(docs); err != nil {
				log.Warn("Failed to index course", "course_id", crs.ID, "error", err)
				continue
			}
			indexed++
		}

		count, _ := indexHandle.DocumentCount()
		log.Info("Initial search reindex completed", "courses", indexed, "documents", count)
	}()
}
