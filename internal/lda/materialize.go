package lda

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PersistArtifact writes one downloaded artifact under jobDir using a
// sanitized version of filenameHint, and returns the path relative to
// mediaRoot with forward slashes. The job directory is created on first
// write. The destination is checked against the resolved job directory
// before any byte hits disk; a hint that would land outside it fails with
// ErrPathEscape.
func PersistArtifact(jobDir, filenameHint string, data []byte, mediaRoot string) (string, error) {
	if err := os.MkdirAll(jobDir, 0o755); err != nil {
		return "", fmt.Errorf("create job dir: %w", err)
	}

	absJob, err := filepath.EvalSymlinks(jobDir)
	if err != nil {
		return "", fmt.Errorf("resolve job dir: %w", err)
	}
	absJob, err = filepath.Abs(absJob)
	if err != nil {
		return "", fmt.Errorf("resolve job dir: %w", err)
	}

	name := SafeFilename(filenameHint)
	dest := filepath.Join(absJob, name)
	if filepath.Dir(dest) != absJob || !strings.HasPrefix(dest, absJob+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrPathEscape, filenameHint)
	}

	// Temp-file-then-rename so a partial write is never observable as success.
	tmp, err := os.CreateTemp(absJob, "."+name+".tmp*")
	if err != nil {
		return "", fmt.Errorf("write artifact %s: %w", name, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("write artifact %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("write artifact %s: %w", name, err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("write artifact %s: %w", name, err)
	}

	absMedia, err := filepath.Abs(mediaRoot)
	if err != nil {
		return "", fmt.Errorf("resolve media root: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(absMedia); err == nil {
		absMedia = resolved
	}
	rel, err := filepath.Rel(absMedia, dest)
	if err != nil {
		return "", fmt.Errorf("relativize %s: %w", dest, err)
	}
	return filepath.ToSlash(rel), nil
}
