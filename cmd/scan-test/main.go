// Command scan-test runs the structure inference engine against a course
// folder and prints what the server would see, without touching any storage.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/lecternapp/lectern-server/internal/course"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: scan-test <course-path>")
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	started := time.Now()
	builder := course.NewBuilder(logger)
	structure, err := builder.Build(ctx, os.DirFS(os.Args[1]))
	if err != nil {
		logger.Error("scan failed", "error", err)
		os.Exit(1)
	}

	videos := 0
	for _, section := range structure.Sections {
		fmt.Printf("%s\n", section.DisplayName)
		for i, lesson := range section.Lessons {
			marker := " "
			if lesson.Subtitle() != nil {
				marker = "s"
			}
			fmt.Printf("  [%2d]%s %s\n", i, marker, lesson.DisplayName)
			for _, f := range lesson.Files {
				if f.Role == course.RoleVideo {
					videos++
				}
			}
		}
		if section.HasExtraFiles {
			fmt.Printf("  (extra materials present)\n")
		}
	}

	fmt.Printf("\n=== Scan Complete ===\n")
	fmt.Printf("Duration: %s\n", time.Since(started))
	fmt.Printf("Sections: %d\n", len(structure.Sections))
	fmt.Printf("Lessons:  %d\n", structure.TotalLessons())
	fmt.Printf("Videos:   %d\n", videos)
}
