package settings

import "context"

// Loader is the interface for a format-specific settings loader. A loader
// reads one or more files or directories and translates them into the
// format-agnostic Model.
type Loader interface {
	Load(ctx context.Context, paths ...string) (*Model, error)
}
