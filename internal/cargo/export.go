package cargo

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// SaveArrangement downloads the arrangement CSV to path. The body lands in a
// temporary sibling first, so a failed download never leaves a truncated
// file behind.
func SaveArrangement(ctx context.Context, api API, path string) (int64, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create export dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".export-*.csv")
	if err != nil {
		return 0, fmt.Errorf("create export file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	n, err := api.ExportArrangement(ctx, tmp)
	if err != nil {
		_ = tmp.Close()
		return 0, err
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("close export file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return 0, fmt.Errorf("save export: %w", err)
	}
	return n, nil
}
