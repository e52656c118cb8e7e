package media

import (
	"mime"
	"path/filepath"
	"strings"
)

const octetStream = "application/octet-stream"

var extensionTypes = map[string]string{
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".pdf":  "application/pdf",
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
	".wav":  "audio/wav",
	".mpeg": "video/mpeg",
	".webm": "video/webm",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// TypeByName looks the extension of name up in the local table, then in
// the system MIME table.
func TypeByName(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return octetStream
	}
	if t, ok := extensionTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return octetStream
}

// MediaType picks the content type for audio/video playback. Common video
// containers are served as video/mp4 so browsers attempt playback.
func MediaType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".mp4", ".mov", ".mkv":
		return "video/mp4"
	case ".mp3", ".m4a", ".aac":
		if t := TypeByName(name); t != octetStream {
			return t
		}
		return "audio/mpeg"
	}
	return TypeByName(name)
}

// IsDOCX reports whether name has a .docx extension.
func IsDOCX(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".docx")
}

func disposition(kind, filename string) string {
	if filename == "" {
		return kind
	}
	if v := mime.FormatMediaType(kind, map[string]string{"filename": filename}); v != "" {
		return v
	}
	return kind
}
