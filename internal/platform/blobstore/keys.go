package blobstore

import (
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var extPattern = regexp.MustCompile(`^\.[A-Za-z0-9]{1,16}$`)

// ValidateKey rejects keys that could address anything other than a file
// below the store root.
func ValidateKey(key string) error {
	if key == "" || strings.TrimSpace(key) != key {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	if strings.HasPrefix(key, "/") || strings.Contains(key, `\`) || strings.ContainsRune(key, 0) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	if path.Clean(key) != key {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

// SafeExtension returns the lowercased extension of name when it is a short
// alphanumeric suffix, and "" otherwise. Nothing else of a client supplied
// file name ever reaches a key.
func SafeExtension(name string) string {
	ext := filepath.Ext(strings.TrimSpace(name))
	if !extPattern.MatchString(ext) {
		return ""
	}
	return strings.ToLower(ext)
}

// TaskPrefix is the key prefix under which a task's attachments live.
func TaskPrefix(projectID, taskID uuid.UUID) string {
	return fmt.Sprintf("project_%s/task_%s/", projectID, taskID)
}

// AttachmentKey builds project_<projectID>/task_<taskID>/<uuid><ext>.
func AttachmentKey(projectID, taskID uuid.UUID, originalName string) string {
	return TaskPrefix(projectID, taskID) + uuid.NewString() + SafeExtension(originalName)
}
