package providers

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/lecternapp/lectern-server/internal/catalog"
	"github.com/lecternapp/lectern-server/internal/config"
	apperrors "github.com/lecternapp/lectern-server/internal/errors"
	"github.com/lecternapp/lectern-server/internal/logger"
	"github.com/lecternapp/lectern-server/internal/service"
)

// ProvideLibraryService provides the course library service.
func ProvideLibraryService(i do.Injector) (*service.LibraryService, error) {
	catalogHandle := do.MustInvoke[*CatalogHandle](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewLibraryService(catalogHandle.Catalog, storeHandle.Store, indexHandle.Index, log.Logger), nil
}

// ProvideProgressService provides the lesson progress service.
func ProvideProgressService(i do.Injector) (*service.ProgressService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	library := do.MustInvoke[*service.LibraryService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewProgressService(storeHandle.Store, library, log.Logger), nil
}

// Bootstrap contains the courses registered at startup.
type Bootstrap struct {
	Courses []*catalog.Course
}

// ProvideBootstrap registers courses from the configured courses path and
// returns the full set of registered courses. If no courses path is
// configured the catalog is used as-is; courses can be added via the API.
func ProvideBootstrap(i do.Injector) (*Bootstrap, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	library := do.MustInvoke[*service.LibraryService](i)

	ctx := context.Background()

	if cfg.Library.CoursesPath != "" {
		entries, err := os.ReadDir(cfg.Library.CoursesPath)
		if err != nil {
			return nil, err
		}

		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}

			path := filepath.Join(cfg.Library.CoursesPath, entry.Name())
			crs, scan, err := library.AddCourse(ctx, service.AddCourseRequest{Path: path})
			switch {
			case errors.Is(err, apperrors.ErrAlreadyExists):
				continue
			case err != nil:
				// A folder that doesn't look like a course shouldn't stop startup.
				log.Warn("Skipping folder during startup registration",
					"path", path,
					"error", err,
				)
				continue
			}

			log.Info("Registered course",
				"course_id", crs.ID,
				"name", crs.Name,
				"sections", scan.Sections,
				"lessons", scan.Lessons,
			)
		}
	}

	courses, err := library.ListCourses(ctx)
	if err != nil {
		return nil, err
	}

	log.Info("Course library ready", "courses", len(courses))

	return &Bootstrap{Courses: courses}, nil
}
