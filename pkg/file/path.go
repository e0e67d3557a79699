package file

import (
	"path/filepath"
	"strings"
)

var mediaExts = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".m4a":  true,
	".flac": true,
	".ogg":  true,
	".aac":  true,
	".mp4":  true,
	".mov":  true,
	".avi":  true,
	".mkv":  true,
	".webm": true,
	".m4v":  true,
}

// IsMediaFile reports whether the path carries a supported audio or video
// extension.
func IsMediaFile(path string) bool {
	return mediaExts[strings.ToLower(filepath.Ext(path))]
}
