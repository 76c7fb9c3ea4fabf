// Package upload handles recorded video files: staging incoming bytes to
// a temporary file, then promoting them to a deterministic per-type path
// so a re-recording of the same question overwrites the previous take.
package upload

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/mindwellhq/mindwell/internal/model"
)

// MaxUploadBytes is the server-imposed ceiling on a single video upload.
const MaxUploadBytes = 100 << 20 // 100 MB

var disallowedChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)
var whitespace = regexp.MustCompile(`\s+`)

// SanitizeName makes a user-controlled string safe for use in a file
// name: trim, collapse whitespace to underscores, strip everything
// outside [A-Za-z0-9_-]. This is the hard contract that keeps uploads
// from escaping the video directory.
func SanitizeName(s string) string {
	s = strings.TrimSpace(s)
	s = whitespace.ReplaceAllString(s, "_")
	return disallowedChars.ReplaceAllString(s, "")
}

// AllowedMIME reports whether a multipart part's content type is an
// acceptable video upload. Browsers recording via MediaRecorder send
// video/webm; some send a generic octet-stream.
func AllowedMIME(contentType string) bool {
	return strings.HasPrefix(contentType, "video/") ||
		contentType == "application/octet-stream"
}

// Dir is the root directory video files live under, one subdirectory per
// test type.
type Dir struct {
	Root string
}

// Stage copies incoming bytes to a temporary file under the root. The
// caller must either Promote or Discard the returned path.
func (d Dir) Stage(r io.Reader) (string, error) {
	if err := os.MkdirAll(d.Root, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	f, err := os.CreateTemp(d.Root, "staged-*.webm")
	if err != nil {
		return "", fmt.Errorf("create staged file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		Discard(f.Name())
		return "", fmt.Errorf("write staged file: %w", err)
	}
	if err := f.Close(); err != nil {
		Discard(f.Name())
		return "", fmt.Errorf("close staged file: %w", err)
	}
	return f.Name(), nil
}

// Promote moves a staged file to its final deterministic location:
// <root>/<testType>/<sanitized user name>_q<questionID>.webm.
// An existing file at that path is overwritten. The staged file is
// removed on failure.
func (d Dir) Promote(staged string, testType model.TestType, userName string, questionID int) (string, error) {
	safeUser := SanitizeName(userName)
	if safeUser == "" {
		safeUser = "user"
	}
	targetDir := filepath.Join(d.Root, string(testType))
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		Discard(staged)
		return "", fmt.Errorf("create target dir: %w", err)
	}
	finalPath := filepath.Join(targetDir, fmt.Sprintf("%s_q%d.webm", safeUser, questionID))
	if err := os.Rename(staged, finalPath); err != nil {
		Discard(staged)
		return "", fmt.Errorf("move staged file: %w", err)
	}
	return finalPath, nil
}

// Discard removes a staged or orphaned file, logging (but not failing)
// on error.
func Discard(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to remove staged upload", "path", path, "error", err)
	}
}
