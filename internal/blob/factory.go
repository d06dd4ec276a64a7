package blob

import (
	"context"
	"fmt"
)

// Config selects and parameterizes a blob backend.
type Config struct {
	Driver Driver
	Root   string // filesystem root (fs driver)
	S3     S3Config
}

// Open constructs the configured backend. An empty driver defaults to the
// local filesystem.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case DriverMemory:
		return NewMemory(), nil
	case DriverFilesystem, "":
		return NewFilesystem(cfg.Root)
	case DriverS3:
		return NewS3(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown blob driver %q", cfg.Driver)
	}
}
