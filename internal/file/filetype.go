package file

import (
	"path/filepath"
	"strings"
)

var typeByExtension = map[string]Type{}

func init() {
	register := func(t Type, exts ...string) {
		for _, ext := range exts {
			typeByExtension[ext] = t
		}
	}
	register(TypeDocument,
		"pdf", "doc", "docx", "txt", "xls", "xlsx", "csv", "rtf", "ods",
		"ppt", "pptx", "odp", "md", "html", "htm", "epub", "pages")
	register(TypeImage, "jpg", "jpeg", "png", "gif", "bmp", "svg", "webp", "heic")
	register(TypeVideo, "mp4", "avi", "mov", "mkv", "webm", "m4v", "3gp")
	register(TypeAudio, "mp3", "wav", "ogg", "flac", "aac", "m4a", "wma")
}

// Classify maps a filename to its content category and bare extension.
// Unknown or missing extensions classify as other.
func Classify(filename string) (Type, string) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ext == "" {
		return TypeOther, ""
	}
	if t, ok := typeByExtension[ext]; ok {
		return t, ext
	}
	return TypeOther, ext
}
