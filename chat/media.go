package chat

import (
	"path/filepath"
	"strings"
)

// NormalizeMime lowercases a MIME type and strips any parameters (e.g. the
// "; charset=" suffix some platforms attach).
func NormalizeMime(raw string) string {
	mime := trimLower(raw)
	if mime == "" {
		return ""
	}
	if idx := strings.Index(mime, ";"); idx >= 0 {
		mime = strings.TrimSpace(mime[:idx])
	}
	return mime
}

// MimeFromDataURL extracts the MIME type from a "data:" URL, or "" if raw
// is not a data URL.
func MimeFromDataURL(raw string) string {
	value := strings.TrimSpace(raw)
	lower := strings.ToLower(value)
	if !strings.HasPrefix(lower, "data:") {
		return ""
	}
	rest := value[len("data:"):]
	if idx := strings.Index(rest, ";"); idx >= 0 {
		return NormalizeMime(rest[:idx])
	}
	if idx := strings.Index(rest, ","); idx >= 0 {
		return NormalizeMime(rest[:idx])
	}
	return ""
}

// InferMediaType infers a canonical MediaType from an adapter-reported
// type, MIME, and file name, in that priority order, falling back to
// MediaFile when nothing matches (spec.md §4.1's Media normalization).
func InferMediaType(current MediaType, mime, name string) MediaType {
	switch trimLower(string(current)) {
	case string(MediaImage), string(MediaAudio), string(MediaVideo), string(MediaVoice), string(MediaGIF):
		return MediaType(trimLower(string(current)))
	}

	normalizedMime := NormalizeMime(mime)
	switch {
	case strings.HasPrefix(normalizedMime, "image/gif"):
		return MediaGIF
	case strings.HasPrefix(normalizedMime, "image/"):
		return MediaImage
	case strings.HasPrefix(normalizedMime, "audio/"):
		return MediaAudio
	case strings.HasPrefix(normalizedMime, "video/"):
		return MediaVideo
	}

	switch strings.ToLower(strings.TrimSpace(filepath.Ext(strings.TrimSpace(name)))) {
	case ".gif":
		return MediaGIF
	case ".jpg", ".jpeg", ".png", ".webp", ".bmp", ".heic", ".heif":
		return MediaImage
	case ".mp3", ".wav", ".ogg", ".m4a", ".aac", ".flac":
		return MediaAudio
	case ".mp4", ".mov", ".mkv", ".webm":
		return MediaVideo
	default:
		return MediaFile
	}
}

// NormalizeMedia applies InferMediaType/NormalizeMime and trims string
// fields on a single Media value, the per-attachment step NewIncoming runs
// over every element of Incoming.Media.
func NormalizeMedia(m Media) Media {
	m.Type = InferMediaType(m.Type, m.Mime, m.Name)
	m.Mime = NormalizeMime(m.Mime)
	m.URL = strings.TrimSpace(m.URL)
	m.Name = strings.TrimSpace(m.Name)
	m.Caption = strings.TrimSpace(m.Caption)
	return m
}
