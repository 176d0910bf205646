package services

import (
  "fmt"
  "mime"
  "net/http"
  "path/filepath"
  "sort"
  "strings"
  "github.com/amplifylms/amplify-backend/internal/apierr"
)

var allowedAudioMimeTypes = map[string]bool{
  "audio/webm":  true,
  "audio/wav":   true,
  "audio/x-wav": true,
  "audio/mpeg":  true,
  "audio/mp3":   true,
  "audio/mp4":   true,
  "audio/aac":   true,
  "audio/ogg":   true,
  "audio/oga":   true,
  "audio/3gpp":  true,
  "audio/3gpp2": true,
}

var allowedAudioExtensions = map[string]bool{
  ".webm": true,
  ".wav":  true,
  ".mp3":  true,
  ".m4a":  true,
  ".mp4":  true,
  ".aac":  true,
  ".ogg":  true,
  ".oga":  true,
}

const DefaultMaxAudioSizeMB = 10

type AudioMeta struct {
  Size        int64
  ContentType string
  Extension   string
}

// ValidateAudio enforces the attachment constraints before any object-store
// call happens: non-empty, within maxBytes, and on the mime/extension
// allow-list. A missing or generic declared mime falls back to the filename
// extension.
func ValidateAudio(data []byte, declaredMime, filename string, maxBytes int64) (*AudioMeta, *apierr.Error) {
  extension := strings.ToLower(filepath.Ext(strings.TrimSpace(filename)))
  mimeType := normalizeMime(declaredMime)

  if (mimeType == "" || mimeType == "application/octet-stream") && extension != "" {
    mimeType = normalizeMime(mime.TypeByExtension(extension))
  }

  if !allowedAudioMimeTypes[mimeType] && !allowedAudioExtensions[extension] {
    return nil, apierr.New(http.StatusBadRequest, "audio_unsupported_type",
      fmt.Errorf("Unsupported audio format. Allowed extensions: %s", strings.Join(sortedExtensions(), ", ")))
  }

  if len(data) == 0 {
    return nil, apierr.New(http.StatusBadRequest, "audio_empty", fmt.Errorf("Audio file is empty"))
  }

  if int64(len(data)) > maxBytes {
    maxMB := float64(maxBytes) / (1024 * 1024)
    return nil, apierr.New(http.StatusRequestEntityTooLarge, "audio_too_large",
      fmt.Errorf("Audio file is too large (max %.2f MB)", maxMB))
  }

  if mimeType == "" {
    mimeType = "application/octet-stream"
  }

  return &AudioMeta{
    Size:        int64(len(data)),
    ContentType: mimeType,
    Extension:   extension,
  }, nil
}

func normalizeMime(mimeType string) string {
  if mimeType == "" {
    return ""
  }
  base := strings.SplitN(mimeType, ";", 2)[0]
  return strings.ToLower(strings.TrimSpace(base))
}

func sortedExtensions() []string {
  out := make([]string, 0, len(allowedAudioExtensions))
  for ext := range allowedAudioExtensions {
    out = append(out, ext)
  }
  sort.Strings(out)
  return out
}
