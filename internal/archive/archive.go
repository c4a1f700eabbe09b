// Package archive mirrors saved captures to a secondary destination.
// Mirroring is best-effort: the capture on disk is already the product,
// so a failed mirror is logged by the caller, never surfaced as a
// capture failure.
package archive

import (
	"context"
	"errors"
	"fmt"

	"github.com/peterparker57/WSLSnapit-MCP/internal/config"
)

// Provider stores one saved capture under a key.
type Provider interface {
	Name() string
	Store(ctx context.Context, localPath, key string) error
}

// New builds the configured provider. Provider "" or "none" disables
// archiving and returns nil without error.
func New(ctx context.Context, cfg config.ArchiveConfig) (Provider, error) {
	switch cfg.Provider {
	case "", "none":
		return nil, nil
	case "local":
		if cfg.LocalDir == "" {
			return nil, errors.New("archive provider local requires archive.local_dir")
		}
		return NewLocalProvider(cfg.LocalDir), nil
	case "s3":
		return NewS3Provider(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown archive provider %q", cfg.Provider)
	}
}
