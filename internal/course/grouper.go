package course

import (
	"github.com/lecternapp/lectern-server/internal/natsort"
)

// SourceFile is one directory entry handed to the grouper, already
// natural-sorted by the caller.
type SourceFile struct {
	Name string
	Path string
}

// Group buckets sorted files into lesson groups by leading ordinal.
//
// Videos and subtitles sharing an ordinal form one group; the first
// file seen for an ordinal donates the group's display name. Files of
// any other role are tallied as extra material and never enter a
// group. After bucketing, only groups holding at least one video are
// retained; a subtitle whose ordinal never collected a video is
// dropped from the model entirely. Dropped groups do not count toward
// hasExtra — only non-media files do.
//
// Retained groups come back sorted by natural order of their ordinal.
func Group(files []SourceFile) (groups []LessonGroup, hasExtra bool) {
	buckets := make(map[string]*LessonGroup)
	// Ordinals in first-seen order. Numeric collation treats "01" and
	// "1" as equal, so the stable sort below must start from a
	// deterministic order, not map iteration.
	var order []string
	extras := 0

	for _, f := range files {
		c := Classify(f.Name)

		if !c.Role.IsMedia() {
			extras++
			continue
		}

		b, ok := buckets[c.Ordinal]
		if !ok {
			b = &LessonGroup{
				Ordinal:     c.Ordinal,
				DisplayName: c.DisplayName,
			}
			buckets[c.Ordinal] = b
			order = append(order, c.Ordinal)
		}
		b.Files = append(b.Files, FileEntry{
			Name: f.Name,
			Role: c.Role,
			Path: f.Path,
		})
	}

	groups = make([]LessonGroup, 0, len(order))
	for _, ord := range order {
		b := buckets[ord]
		if b.Video() == nil {
			// Subtitle-only ordinal: invisible, not extra.
			continue
		}
		groups = append(groups, *b)
	}

	natsort.SortBy(groups, func(g LessonGroup) string {
		return g.Ordinal
	})

	return groups, extras > 0
}
