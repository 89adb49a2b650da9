package service

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/adityawrm/voiceguard/internal/api/domain"
)

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// sanitizeFilename strips any path components and collapses characters that
// are unsafe in storage keys or response payloads.
func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	return strings.Trim(name, "._")
}

// validateFilename checks the submitted filename and returns the sanitized
// name and its lowercase extension.
func validateFilename(name string) (string, string, error) {
	if strings.TrimSpace(name) == "" {
		return "", "", domain.NewError(domain.KindValidation, "file name is empty")
	}

	sanitized := sanitizeFilename(name)
	if sanitized == "" || !strings.Contains(sanitized, ".") {
		return "", "", domain.NewError(domain.KindValidation, "file has no extension")
	}

	ext := strings.ToLower(sanitized[strings.LastIndex(sanitized, ".")+1:])
	if !domain.AllowedExtensions[ext] {
		return "", "", domain.NewError(domain.KindValidation,
			"unsupported format, allowed: mp3, wav, m4a, flac, ogg")
	}

	return sanitized, ext, nil
}

// contentTypeForExt maps an allowed extension to its MIME type.
func contentTypeForExt(ext string) string {
	switch ext {
	case "mp3":
		return "audio/mpeg"
	case "wav":
		return "audio/wav"
	case "m4a":
		return "audio/mp4"
	case "flac":
		return "audio/flac"
	case "ogg":
		return "audio/ogg"
	default:
		return "application/octet-stream"
	}
}
