package course

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		fileName    string
		wantRole    FileRole
		wantOrdinal string
		wantDisplay string
	}{
		{
			name:        "numbered video",
			fileName:    "10. Final.mp4",
			wantRole:    RoleVideo,
			wantOrdinal: "10",
			wantDisplay: "Final",
		},
		{
			name:        "pdf without ordinal",
			fileName:    "readme.pdf",
			wantRole:    RolePDF,
			wantOrdinal: "0",
			wantDisplay: "readme",
		},
		{
			name:        "subtitle",
			fileName:    "2. Setup.vtt",
			wantRole:    RoleSubtitle,
			wantOrdinal: "2",
			wantDisplay: "Setup",
		},
		{
			name:        "ordinal without space",
			fileName:    "3.Install.mp4",
			wantRole:    RoleVideo,
			wantOrdinal: "3",
			wantDisplay: "Install",
		},
		{
			name:        "uppercase extension",
			fileName:    "1. Intro.MP4",
			wantRole:    RoleVideo,
			wantOrdinal: "1",
			wantDisplay: "Intro",
		},
		{
			name:        "html file",
			fileName:    "exercise.html",
			wantRole:    RoleHTML,
			wantOrdinal: "0",
			wantDisplay: "exercise",
		},
		{
			name:        "text file",
			fileName:    "notes.txt",
			wantRole:    RoleText,
			wantOrdinal: "0",
			wantDisplay: "notes",
		},
		{
			name:        "archive",
			fileName:    "5. starter-code.zip",
			wantRole:    RoleArchive,
			wantOrdinal: "5",
			wantDisplay: "starter-code",
		},
		{
			name:        "presentation",
			fileName:    "slides.odp",
			wantRole:    RolePresentation,
			wantOrdinal: "0",
			wantDisplay: "slides",
		},
		{
			name:        "unknown extension",
			fileName:    "4. demo.mkv",
			wantRole:    RoleOther,
			wantOrdinal: "4",
			wantDisplay: "demo.mkv",
		},
		{
			name:        "no extension",
			fileName:    "Makefile",
			wantRole:    RoleOther,
			wantOrdinal: "0",
			wantDisplay: "Makefile",
		},
		{
			name:        "ordinal dot doubles as extension dot",
			fileName:    "12.mp4",
			wantRole:    RoleVideo,
			wantOrdinal: "12",
			wantDisplay: "mp4",
		},
		{
			name:        "interior dots preserved",
			fileName:    "2.a.b.mp4",
			wantRole:    RoleVideo,
			wantOrdinal: "2",
			wantDisplay: "a.b",
		},
		{
			name:        "surrounding whitespace trimmed",
			fileName:    "7.   Deploying   .mp4",
			wantRole:    RoleVideo,
			wantOrdinal: "7",
			wantDisplay: "Deploying",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.fileName)
			assert.Equal(t, tt.wantRole, got.Role, "role")
			assert.Equal(t, tt.wantOrdinal, got.Ordinal, "ordinal")
			assert.Equal(t, tt.wantDisplay, got.DisplayName, "displayName")
		})
	}
}

func TestClassify_Pure(t *testing.T) {
	// Same input, same output, no state between calls.
	a := Classify("1. Intro.mp4")
	b := Classify("1. Intro.mp4")
	assert.Equal(t, a, b)
}

func TestStripOrdinal(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1. Intro", "Intro"},
		{"12.Deployment", "Deployment"},
		{"Appendix", "Appendix"},
		{"3.", ""},
		{"  spaced  ", "spaced"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StripOrdinal(tt.in), "StripOrdinal(%q)", tt.in)
	}
}

func TestFileRole_IsMedia(t *testing.T) {
	assert.True(t, RoleVideo.IsMedia())
	assert.True(t, RoleSubtitle.IsMedia())
	assert.False(t, RolePDF.IsMedia())
	assert.False(t, RoleArchive.IsMedia())
	assert.False(t, RoleOther.IsMedia())
}
