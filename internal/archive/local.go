package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalProvider mirrors captures into a directory tree, typically a
// mounted share or a synced folder.
type LocalProvider struct {
	baseDir string
}

func NewLocalProvider(baseDir string) *LocalProvider {
	return &LocalProvider{baseDir: filepath.Clean(baseDir)}
}

func (p *LocalProvider) Name() string { return "local" }

// Store copies the capture into the archive tree under key. The key is
// confined to the archive root; anything resolving outside it is
// rejected.
func (p *LocalProvider) Store(_ context.Context, localPath, key string) error {
	if localPath == "" {
		return errors.New("source path is required")
	}
	if key == "" {
		return errors.New("archive key is required")
	}

	dest, err := containedPath(p.baseDir, key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create archive directory: %w", err)
	}
	return copyFile(localPath, dest)
}

// containedPath resolves key relative to base and rejects anything that
// escapes it.
func containedPath(base, key string) (string, error) {
	absBase, err := filepath.Abs(base)
	if err != nil {
		return "", fmt.Errorf("resolve archive root: %w", err)
	}
	joined, err := filepath.Abs(filepath.Join(absBase, filepath.FromSlash(key)))
	if err != nil {
		return "", fmt.Errorf("resolve archive key: %w", err)
	}
	if joined != absBase && !strings.HasPrefix(joined, absBase+string(filepath.Separator)) {
		return "", fmt.Errorf("archive key %q escapes the archive root", key)
	}
	return joined, nil
}

func copyFile(srcPath, destPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("open capture: %w", err)
	}
	info, err := src.Stat()
	if err != nil {
		_ = src.Close()
		return fmt.Errorf("stat capture: %w", err)
	}

	dest, err := os.Create(destPath)
	if err != nil {
		_ = src.Close()
		return fmt.Errorf("create archive copy: %w", err)
	}

	_, err = io.Copy(dest, src)
	if closeErr := dest.Close(); err == nil {
		err = closeErr
	}
	if closeErr := src.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Chtimes(destPath, info.ModTime(), info.ModTime())
	}
	if err != nil {
		return fmt.Errorf("copy capture: %w", err)
	}
	return nil
}
