package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/lecternapp/lectern-server/internal/config"
	"github.com/lecternapp/lectern-server/internal/logger"
	"github.com/lecternapp/lectern-server/internal/service"
	"github.com/lecternapp/lectern-server/internal/watcher"
)

// FileWatcherHandle wraps the file watcher with shutdown capability.
// Watcher is nil when watching is disabled by configuration.
type FileWatcherHandle struct {
	*watcher.Watcher
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *FileWatcherHandle) Shutdown() error {
	if h.Watcher == nil {
		return nil
	}
	h.cancel()
	return h.Watcher.Close()
}

// ProvideFileWatcher provides the course folder watcher. Debounced change
// events trigger a rescan of the affected course.
func ProvideFileWatcher(i do.Injector) (*FileWatcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	library := do.MustInvoke[*service.LibraryService](i)
	bootstrap := do.MustInvoke[*Bootstrap](i)

	if !cfg.Library.Watch {
		log.Info("File watching disabled by configuration")
		return &FileWatcherHandle{}, nil
	}

	w, err := watcher.New(log.Logger, watcher.Options{
		Debounce:     cfg.Library.WatchDebounce,
		IgnoreHidden: true,
	})
	if err != nil {
		return nil, err
	}

	// Watch every registered course folder. A course whose path is gone
	// stays registered; it can be reattached later.
	watched := 0
	for _, crs := range bootstrap.Courses {
		if err := w.Add(crs.Path); err != nil {
			log.Warn("Cannot watch course folder", "path", crs.Path, "error", err)
			continue
		}
		watched++
	}

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		if err := w.Start(ctx); err != nil {
			log.Error("File watcher error", "error", err)
		}
	}()

	// Rescan courses as their folders change.
	go func() {
		for {
			select {
			case event := <-w.Events():
				courseID, err := library.CourseIDForPath(ctx, event.Root)
				if err != nil {
					log.Warn("Change in unregistered folder", "path", event.Root, "error", err)
					continue
				}

				library.Invalidate(courseID)
				scan, err := library.RescanCourse(ctx, courseID)
				if err != nil {
					log.Warn("Rescan after change failed", "course_id", courseID, "error", err)
					continue
				}

				log.Info("Course rescanned after change",
					"course_id", courseID,
					"sections", scan.Sections,
					"lessons", scan.Lessons,
				)
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Info("File watcher started", "courses", watched)

	return &FileWatcherHandle{
		Watcher: w,
		cancel:  cancel,
	}, nil
}
