package usecase

import (
	"fmt"
	"os"
	"path/filepath"
)

// fileRewriter overwrites the annotated file. In-place mode truncates and
// writes the original path; atomic mode writes a sibling temp file and
// renames it over the original so a crash never leaves a truncated file.
type fileRewriter struct {
	atomic bool
}

func (w fileRewriter) rewrite(path, content string) error {
	if w.atomic {
		return replaceFile(path, []byte(content))
	}
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(path, []byte(content), mode); err != nil {
		return fmt.Errorf("usecase: overwrite %s: %w", path, err)
	}
	return nil
}

func replaceFile(path string, data []byte) (err error) {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("usecase: stat %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("usecase: create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("usecase: write temp file: %w", err)
	}
	if err = tmp.Chmod(info.Mode().Perm()); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("usecase: chmod temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("usecase: sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("usecase: close temp file: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("usecase: replace %s: %w", path, err)
	}
	return nil
}
